package config

import "testing"

func TestParseComboCanonicalOrder(t *testing.T) {
	c, ok := ParseCombo("Shift+Super+Ctrl+Alt+Tab")
	if !ok {
		t.Fatalf("expected combo to parse")
	}
	if got, want := c.String(), "ctrl+alt+shift+super+tab"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParseComboSynonyms(t *testing.T) {
	for _, s := range []string{"meta+f", "win+f", "super+f"} {
		c, ok := ParseCombo(s)
		if !ok || c.Modifiers&0b100 == 0 {
			t.Fatalf("expected %q to resolve to the super modifier", s)
		}
	}
}

func TestComboRoundTripInvariant(t *testing.T) {
	cases := []string{"tab", "alt+tab", "ctrl+alt+shift+super+key65", "SUPER+Left"}
	for _, s := range cases {
		c, ok := ParseCombo(s)
		if !ok {
			t.Fatalf("expected %q to parse", s)
		}
		canon, ok := Canonicalize(s)
		if !ok {
			t.Fatalf("expected %q to canonicalize", s)
		}
		if c.String() != canon {
			t.Fatalf("round-trip mismatch for %q: %q != %q", s, c.String(), canon)
		}
	}
}

func TestParseComboRejectsUnknownModifier(t *testing.T) {
	if _, ok := ParseCombo("hyper+tab"); ok {
		t.Fatalf("expected unknown modifier to be rejected")
	}
}

func TestKeyCodeLiteral(t *testing.T) {
	n, ok := KeyCodeLiteral("key65")
	if !ok || n != 65 {
		t.Fatalf("got %d, %v", n, ok)
	}
	if _, ok := KeyCodeLiteral("tab"); ok {
		t.Fatalf("expected symbolic name to not be a literal")
	}
}
