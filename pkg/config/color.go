package config

import "fmt"

// ParseHexColor parses a "#RRGGBB" string into 8-bit channels, per the
// display.backgroundColor config field (spec.md §6).
func ParseHexColor(s string) (r, g, b uint8, err error) {
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, fmt.Errorf("config: invalid color %q, want #RRGGBB", s)
	}
	var ri, gi, bi int
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &ri, &gi, &bi); err != nil {
		return 0, 0, 0, fmt.Errorf("config: invalid color %q: %w", s, err)
	}
	return uint8(ri), uint8(gi), uint8(bi), nil
}
