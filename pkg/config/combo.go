package config

import (
	"strconv"
	"strings"

	"github.com/ggdirect/compositor/pkg/protocol"
)

// Combo is a parsed key-combination: a keycode (either a known symbolic
// name or a raw "key<decimal>") plus modifier bits, matching the
// keybinding table's query-by-exact-equality contract (spec.md §3).
type Combo struct {
	Key       string
	Modifiers uint32
}

// modifierOrder is the canonical ordering invariant I4 requires.
var modifierOrder = []struct {
	bit  uint32
	name string
}{
	{protocol.ModCtrl, "ctrl"},
	{protocol.ModAlt, "alt"},
	{protocol.ModShift, "shift"},
	{protocol.ModSuper, "super"},
}

// synonyms maps alternate modifier spellings onto their canonical name,
// per SPEC_FULL.md §C ("super, meta, and win are synonyms").
var synonyms = map[string]string{
	"super": "super",
	"meta":  "super",
	"win":   "super",
	"ctrl":  "ctrl",
	"alt":   "alt",
	"shift": "shift",
}

// ParseCombo parses a combo-string per spec.md §6's grammar:
// "[modifier+]* keyname", modifiers case-insensitive and deduplicated.
func ParseCombo(s string) (Combo, bool) {
	parts := strings.Split(s, "+")
	if len(parts) == 0 {
		return Combo{}, false
	}
	key := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	if key == "" {
		return Combo{}, false
	}

	var mods uint32
	for _, p := range parts[:len(parts)-1] {
		name, ok := synonyms[strings.ToLower(strings.TrimSpace(p))]
		if !ok {
			return Combo{}, false
		}
		for _, m := range modifierOrder {
			if m.name == name {
				mods |= m.bit
			}
		}
	}
	return Combo{Key: key, Modifiers: mods}, true
}

// String canonicalizes a Combo back to a combo-string: lowercase, modifiers
// ordered ctrl, alt, shift, super, per I4.
func (c Combo) String() string {
	var parts []string
	for _, m := range modifierOrder {
		if c.Modifiers&m.bit != 0 {
			parts = append(parts, m.name)
		}
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}

// Canonicalize parses s and re-renders it in canonical form, used by I4's
// round-trip test (toString(fromString(s)) == canonicalize(s)).
func Canonicalize(s string) (string, bool) {
	c, ok := ParseCombo(s)
	if !ok {
		return "", false
	}
	return c.String(), true
}

// KeyCodeLiteral reports whether key is a raw "key<decimal>" form, and if
// so its numeric code.
func KeyCodeLiteral(key string) (int, bool) {
	if !strings.HasPrefix(key, "key") {
		return 0, false
	}
	n, err := strconv.Atoi(key[3:])
	if err != nil {
		return 0, false
	}
	return n, true
}
