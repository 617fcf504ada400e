// Package input's Pipeline ties device discovery, per-device-type
// handlers, and keybind dispatch together into the single polling thread
// spec.md §4.8 describes: "A dedicated thread loops every 10ms ... reads
// one kernel input event ... dispatch to the per-device-type handler."
package input

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ggdirect/compositor/pkg/config"
	"github.com/ggdirect/compositor/pkg/protocol"
	"github.com/ggdirect/compositor/pkg/session"
)

// DefaultDeviceDir is the kernel input directory (spec.md §6 "Environment").
const DefaultDeviceDir = "/dev/input"

// pollInterval is the polling thread's period (spec.md §4.8 "every 10ms").
const pollInterval = 10 * time.Millisecond

// Pipeline is the input pipeline of spec.md §4.8: device discovery,
// per-type handlers, and keybind interception, dispatching the remaining
// stream to the focused session.
type Pipeline struct {
	logger   *slog.Logger
	registry *config.Registry
	manager  *session.Manager

	deviceDir   string
	displaySize func() (width, height int)

	keyboard *KeyboardHandler
	mouse    *MouseHandler
	touchpad *TouchpadHandler

	devices []*Device

	customActions map[string]func()
	shutdown      atomic.Bool
}

// New builds a pipeline bound to registry (the global keybind table) and
// manager (the session list), polling deviceDir for event nodes.
// displaySize supplies the primary display's resolution for clamping
// mouse position (spec.md §4.8's mouse handler).
func New(logger *slog.Logger, registry *config.Registry, manager *session.Manager, deviceDir string, displaySize func() (int, int)) *Pipeline {
	return &Pipeline{
		logger:        logger,
		registry:      registry,
		manager:       manager,
		deviceDir:     deviceDir,
		displaySize:   displaySize,
		keyboard:      NewKeyboardHandler(registry),
		mouse:         NewMouseHandler(),
		touchpad:      NewTouchpadHandler(),
		customActions: make(map[string]func()),
	}
}

// RegisterCustomAction binds a name (as it appears in config.json's
// customBinds action strings) to a callback, per spec.md §4.8's
// "custom(callback)" action kind.
func (p *Pipeline) RegisterCustomAction(name string, fn func()) {
	p.customActions[name] = fn
}

// Shutdown sets the cooperative shutdown flag (spec.md §5).
func (p *Pipeline) Shutdown() { p.shutdown.Store(true) }

// Run scans devices once, then polls them every 10ms until Shutdown is
// called. Intended to run on its own goroutine (spec.md §5 "Input thread").
func (p *Pipeline) Run() {
	p.devices = DiscoverDevices(p.logger, p.deviceDir)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for !p.shutdown.Load() {
		<-ticker.C
		p.pollOnce()
	}

	for _, d := range p.devices {
		_ = d.Close()
	}
}

// pollOnce reads at most one event from each active device and dispatches
// it, deactivating any device whose read fails for a reason other than
// "nothing ready yet" (spec.md §7 "device read error -> deactivate that
// device; continue polling others").
func (p *Pipeline) pollOnce() {
	live := p.devices[:0]
	for _, d := range p.devices {
		ev, err := d.ReadEvent()
		switch {
		case err == nil:
			p.dispatch(d, ev)
			live = append(live, d)
		case isNoDataYet(err):
			live = append(live, d)
		default:
			p.logger.Warn("input: deactivating device after read error", "path", d.Path, "err", err)
			_ = d.Close()
		}
	}
	p.devices = live
}

func (p *Pipeline) dispatch(d *Device, ev RawEvent) {
	if ev.Type == evSyn {
		return
	}
	switch d.Kind {
	case DeviceKeyboard:
		if ev.Type != evKey {
			return
		}
		result := p.keyboard.Handle(ev)
		if result.Intercepted {
			p.executeAction(result.Action)
			return
		}
		if result.Emit {
			p.sendToFocused(result.Input)
		}
	case DeviceMouse:
		w, h := p.displaySize()
		in, ok := p.mouse.Handle(ev, int16(w), int16(h))
		if ok {
			p.sendToFocused(in)
		}
	case DeviceTouchpad:
		in, ok := p.touchpad.Handle(ev)
		if ok {
			p.sendToFocused(in)
		}
	}
}

func (p *Pipeline) sendToFocused(in protocol.Input) {
	p.manager.WithFocused(func(s *session.Session) {
		if err := s.Send(protocol.EncodeInput(in)); err != nil {
			p.logger.Warn("input: send to focused session failed", "session", s.ID, "err", err)
		}
	})
}

// executeAction runs one keybind action synchronously from the input
// thread (spec.md §4.8 "Keybinding actions"), invoked directly — never
// queued — per spec.md §3's "invoked synchronously from the input
// pipeline".
func (p *Pipeline) executeAction(action config.Action) {
	switch action {
	case config.ActionFocusNext:
		p.manager.FocusNext()
	case config.ActionFocusPrevious:
		p.manager.FocusPrevious()
	case config.ActionMoveFullscreen:
		p.setPreset(session.Fullscreen)
	case config.ActionMoveLeft:
		p.setPreset(session.Left)
	case config.ActionMoveRight:
		p.setPreset(session.Right)
	case config.ActionMoveTop:
		p.setPreset(session.Top)
	case config.ActionMoveBottom:
		p.setPreset(session.Bottom)
	case config.ActionCloseFocused:
		p.manager.WithFocused(func(s *session.Session) { s.Close() })
	case config.ActionToggleZoom:
		// Alternates 1.0 <-> 1.5 regardless of the current value, per
		// spec.md §8's boundary behaviour — not a toggle around whatever
		// zoom happens to be set.
		p.manager.WithFocused(func(s *session.Session) {
			if s.Zoom == 1.0 {
				s.SetZoom(1.5)
			} else {
				s.SetZoom(1.0)
			}
		})
	case config.ActionIncreaseZoom:
		p.manager.WithFocused(func(s *session.Session) { s.SetZoom(s.Zoom + 0.1) })
	case config.ActionDecreaseZoom:
		p.manager.WithFocused(func(s *session.Session) { s.SetZoom(s.Zoom - 0.1) })
	default:
		if fn, ok := p.customActions[string(action)]; ok {
			fn()
		} else {
			p.logger.Warn("input: unbound custom action", "action", action)
		}
	}
}

func (p *Pipeline) setPreset(preset session.Preset) {
	p.manager.WithFocused(func(s *session.Session) {
		if s.Preset == preset {
			return
		}
		s.PreviousPreset = s.Preset
		s.Preset = preset
	})
}
