package config

import "testing"

func TestParseOverridesDefaults(t *testing.T) {
	doc := []byte(`{
		"keybinds": {
			"focusManagement": {"ctrl+tab": "focus-next"},
			"windowManagement": {},
			"customBinds": {}
		},
		"display": {
			"autoDistributeWindows": true,
			"displayAssignmentStrategy": "round_robin",
			"primaryDisplayId": 2,
			"backgroundColor": "#112233",
			"wallpaperPath": "/tmp/wall.png"
		},
		"input": {
			"enableGlobalKeybinds": false,
			"passUnhandledInput": false,
			"inputPollRate": 20
		}
	}`)
	cfg, err := Parse(doc)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.Display.PrimaryDisplayID != 2 {
		t.Fatalf("expected primary display id overridden")
	}
	if cfg.Display.DisplayAssignmentStrategy != StrategyRoundRobin {
		t.Fatalf("expected strategy overridden")
	}
	if cfg.Input.InputPollRate != 20 {
		t.Fatalf("expected poll rate overridden")
	}
	if len(cfg.Keybinds.FocusManagement) != 1 || cfg.Keybinds.FocusManagement["ctrl+tab"] != "focus-next" {
		t.Fatalf("expected focus management binds replaced wholesale, got %+v", cfg.Keybinds.FocusManagement)
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("{not json")); err == nil {
		t.Fatalf("expected an error for invalid JSON")
	}
}

func TestLoadFallsBackToDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load should not error even with no config file present: %v", err)
	}
	if cfg.Input.InputPollRate == 0 {
		t.Fatalf("expected a non-zero default poll rate")
	}
}

func TestParseHexColor(t *testing.T) {
	r, g, b, err := ParseHexColor("#FF8000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != 0xFF || g != 0x80 || b != 0x00 {
		t.Fatalf("got %d %d %d", r, g, b)
	}
	if _, _, _, err := ParseHexColor("bad"); err == nil {
		t.Fatalf("expected an error for a malformed color")
	}
}
