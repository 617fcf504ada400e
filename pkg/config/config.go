// Package config loads GGDirect's JSON configuration (spec.md §6) and its
// environment-variable overrides, and implements the combo-string keybind
// grammar supplemented from original_source/config.cpp (SPEC_FULL.md §C).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/tidwall/gjson"
)

// DisplayStrategy is how sessions are distributed across connected
// displays when autoDistributeWindows is enabled (spec.md §6).
type DisplayStrategy string

const (
	StrategyRoundRobin  DisplayStrategy = "round_robin"
	StrategyPrimaryOnly DisplayStrategy = "primary_only"
	StrategyFillThenNext DisplayStrategy = "fill_then_next"
)

// Display holds the "display" section of the config file.
type Display struct {
	AutoDistributeWindows     bool
	DisplayAssignmentStrategy DisplayStrategy
	PrimaryDisplayID          uint32
	BackgroundColor           string // "#RRGGBB"
	WallpaperPath             string
}

// Input holds the "input" section of the config file.
type Input struct {
	EnableGlobalKeybinds bool
	PassUnhandledInput   bool
	InputPollRate        int
}

// Keybinds holds the raw combo-string -> action-string maps for each
// section, prior to ParseCombo validation (done by Registry.LoadBinds).
type Keybinds struct {
	FocusManagement map[string]string
	WindowManagement map[string]string
	CustomBinds      map[string]string
}

// Config is the full parsed configuration document (spec.md §6).
type Config struct {
	Keybinds Keybinds
	Display  Display
	Input    Input
}

// Env holds ops-facing knobs read from the environment via envconfig,
// matching the teacher's api/pkg/config/config.go pattern (SPEC_FULL.md §A).
type Env struct {
	RendezvousPath string `envconfig:"GGDIRECT_RENDEZVOUS_PATH" default:"/tmp/GGDirect.gateway"`
	DRMDevice      string `envconfig:"GGDIRECT_DRM_DEVICE" default:""`
	LogLevel       string `envconfig:"GGDIRECT_LOG_LEVEL" default:"info"`
}

// LoadEnv reads ops-facing overrides from the environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := envconfig.Process("", &e); err != nil {
		return Env{}, fmt.Errorf("config: process environment: %w", err)
	}
	return e, nil
}

// SearchPaths returns the config file candidates in the order spec.md §6
// defines: executable-local, user ($XDG_CONFIG_HOME or ~/.config), system.
func SearchPaths() []string {
	var paths []string
	paths = append(paths, "./config.json")

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "GGDirect", "config.json"))
	} else if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", "GGDirect", "config.json"))
	}

	paths = append(paths, "/etc/GGDirect/config.json")
	return paths
}

// Load finds the first existing file among SearchPaths and parses it.
// Returns defaultConfig() if none exist, per spec.md §7 ("no preferred ...
// fall back" philosophy extended to "no config file found").
func Load() (Config, error) {
	for _, p := range SearchPaths() {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		return Parse(data)
	}
	return defaultConfig(), nil
}

// Parse decodes a JSON config document using gjson, per SPEC_FULL.md §A
// ("parsed with github.com/tidwall/gjson ... read key-by-key with
// explicit defaults").
func Parse(data []byte) (Config, error) {
	if !gjson.ValidBytes(data) {
		return Config{}, fmt.Errorf("config: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	cfg := defaultConfig()

	cfg.Keybinds.FocusManagement = stringMap(root.Get("keybinds.focusManagement"), cfg.Keybinds.FocusManagement)
	cfg.Keybinds.WindowManagement = stringMap(root.Get("keybinds.windowManagement"), cfg.Keybinds.WindowManagement)
	cfg.Keybinds.CustomBinds = stringMap(root.Get("keybinds.customBinds"), cfg.Keybinds.CustomBinds)

	if v := root.Get("display.autoDistributeWindows"); v.Exists() {
		cfg.Display.AutoDistributeWindows = v.Bool()
	}
	if v := root.Get("display.displayAssignmentStrategy"); v.Exists() {
		cfg.Display.DisplayAssignmentStrategy = DisplayStrategy(v.String())
	}
	if v := root.Get("display.primaryDisplayId"); v.Exists() {
		cfg.Display.PrimaryDisplayID = uint32(v.Uint())
	}
	if v := root.Get("display.backgroundColor"); v.Exists() {
		cfg.Display.BackgroundColor = v.String()
	}
	if v := root.Get("display.wallpaperPath"); v.Exists() {
		cfg.Display.WallpaperPath = v.String()
	}

	if v := root.Get("input.enableGlobalKeybinds"); v.Exists() {
		cfg.Input.EnableGlobalKeybinds = v.Bool()
	}
	if v := root.Get("input.passUnhandledInput"); v.Exists() {
		cfg.Input.PassUnhandledInput = v.Bool()
	}
	if v := root.Get("input.inputPollRate"); v.Exists() {
		cfg.Input.InputPollRate = int(v.Int())
	}

	return cfg, nil
}

func stringMap(v gjson.Result, fallback map[string]string) map[string]string {
	if !v.Exists() || !v.IsObject() {
		return fallback
	}
	out := make(map[string]string)
	v.ForEach(func(key, val gjson.Result) bool {
		out[key.String()] = val.String()
		return true
	})
	return out
}

// defaultConfig matches spec.md §6's documented defaults where stated and
// otherwise the conservative choice (no global keybinds override without
// an explicit config, global keybinds enabled, unhandled input passed
// through to the focused session).
func defaultConfig() Config {
	return Config{
		Keybinds: Keybinds{
			FocusManagement: map[string]string{
				"alt+tab":        string(ActionFocusNext),
				"alt+shift+tab":  string(ActionFocusPrevious),
			},
			WindowManagement: map[string]string{
				"super+f":     string(ActionMoveFullscreen),
				"super+left":  string(ActionMoveLeft),
				"super+right": string(ActionMoveRight),
				"super+up":    string(ActionMoveTop),
				"super+down":  string(ActionMoveBottom),
				"super+w":     string(ActionCloseFocused),
				"super+z":     string(ActionToggleZoom),
				"super+plus":  string(ActionIncreaseZoom),
				"super+minus": string(ActionDecreaseZoom),
			},
			CustomBinds: map[string]string{},
		},
		Display: Display{
			AutoDistributeWindows:     false,
			DisplayAssignmentStrategy: StrategyPrimaryOnly,
			BackgroundColor:           "#000000",
		},
		Input: Input{
			EnableGlobalKeybinds: true,
			PassUnhandledInput:   true,
			InputPollRate:        10,
		},
	}
}
