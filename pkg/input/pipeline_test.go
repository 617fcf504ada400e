package input

import (
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/ggdirect/compositor/pkg/config"
	"github.com/ggdirect/compositor/pkg/session"
)

func newTestPipeline(t *testing.T) (*Pipeline, *session.Manager, *session.Session) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := session.NewManager()
	registry := config.NewRegistry()

	_, server := net.Pipe()
	s := manager.Add(func(id uint64) *session.Session {
		return session.New(id, server, 1, session.Fullscreen, 1920, 1080)
	})

	p := New(logger, registry, manager, DefaultDeviceDir, func() (int, int) { return 1920, 1080 })
	return p, manager, s
}

func TestExecuteActionTogglesZoomRegardlessOfCurrent(t *testing.T) {
	p, _, s := newTestPipeline(t)
	s.SetZoom(2.3)
	p.executeAction(config.ActionToggleZoom)
	if s.Zoom != 1.0 {
		t.Fatalf("expected toggle from non-1.0 zoom to land on 1.0, got %v", s.Zoom)
	}
	p.executeAction(config.ActionToggleZoom)
	if s.Zoom != 1.5 {
		t.Fatalf("expected toggle from 1.0 to land on 1.5, got %v", s.Zoom)
	}
}

func TestExecuteActionZoomClamps(t *testing.T) {
	p, _, s := newTestPipeline(t)
	s.SetZoom(2.95)
	p.executeAction(config.ActionIncreaseZoom)
	p.executeAction(config.ActionIncreaseZoom)
	if s.Zoom != session.MaxZoom {
		t.Fatalf("expected zoom clamped to %v, got %v", session.MaxZoom, s.Zoom)
	}

	s.SetZoom(0.55)
	p.executeAction(config.ActionDecreaseZoom)
	p.executeAction(config.ActionDecreaseZoom)
	if s.Zoom != session.MinZoom {
		t.Fatalf("expected zoom clamped to %v, got %v", session.MinZoom, s.Zoom)
	}
}

func TestExecuteActionMovePreset(t *testing.T) {
	p, _, s := newTestPipeline(t)
	p.executeAction(config.ActionMoveLeft)
	if s.Preset != session.Left || s.PreviousPreset != session.Fullscreen {
		t.Fatalf("expected preset Left with previous Fullscreen, got %+v", s)
	}
}

func TestExecuteActionCloseFocused(t *testing.T) {
	p, _, s := newTestPipeline(t)
	p.executeAction(config.ActionCloseFocused)
	if !s.Retired() {
		t.Fatalf("expected session to be retired after close-focused")
	}
}

func TestExecuteActionFocusCycle(t *testing.T) {
	p, manager, a := newTestPipeline(t)
	_, server2 := net.Pipe()
	b := manager.Add(func(id uint64) *session.Session {
		return session.New(id, server2, 1, session.Fullscreen, 1920, 1080)
	})
	manager.SetFocus(a.ID)
	p.executeAction(config.ActionFocusNext)
	if manager.FocusedID() != b.ID {
		t.Fatalf("expected focus-next to move to b")
	}
}

func TestExecuteActionCustom(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	called := false
	p.RegisterCustomAction("launch-terminal", func() { called = true })
	p.executeAction(config.Action("launch-terminal"))
	if !called {
		t.Fatalf("expected custom action callback to run")
	}
}
