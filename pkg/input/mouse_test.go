package input

import "testing"

func TestMouseHandlerTracksPositionAndClamps(t *testing.T) {
	m := NewMouseHandler()
	in, ok := m.Handle(RawEvent{Type: evRel, Code: relX, Value: 5000}, 1920, 1080)
	if !ok || in.MouseX != 1920 {
		t.Fatalf("expected MouseX clamped to 1920, got %+v", in)
	}
}

func TestMouseHandlerButtonPressAndRelease(t *testing.T) {
	m := NewMouseHandler()
	press, ok := m.Handle(RawEvent{Type: evKey, Code: btnLeft, Value: keyValuePress}, 1920, 1080)
	if !ok || press.AdditionalKey.String() != "LEFT_CLICK" || press.Modifiers == 0 {
		t.Fatalf("expected pressed left click, got %+v", press)
	}
	release, ok := m.Handle(RawEvent{Type: evKey, Code: btnLeft, Value: keyValueRelease}, 1920, 1080)
	if !ok || release.Modifiers != 0 {
		t.Fatalf("expected released left click with no PRESSED_DOWN bit, got %+v", release)
	}
}

func TestMouseHandlerScrollDirection(t *testing.T) {
	m := NewMouseHandler()
	up, ok := m.Handle(RawEvent{Type: evRel, Code: relWheel, Value: 1}, 1920, 1080)
	if !ok || up.ScrollDelta <= 0 {
		t.Fatalf("expected positive scroll delta, got %+v", up)
	}
	down, ok := m.Handle(RawEvent{Type: evRel, Code: relWheel, Value: -1}, 1920, 1080)
	if !ok || down.ScrollDelta >= 0 {
		t.Fatalf("expected negative scroll delta, got %+v", down)
	}
}

func TestTouchpadHandlerEmitsLeftClickOnTouch(t *testing.T) {
	tp := NewTouchpadHandler()
	tp.Handle(RawEvent{Type: evAbs, Code: absX, Value: 100})
	tp.Handle(RawEvent{Type: evAbs, Code: absY, Value: 200})
	in, ok := tp.Handle(RawEvent{Type: evKey, Code: btnTouch, Value: keyValuePress})
	if !ok || in.AdditionalKey.String() != "LEFT_CLICK" || in.MouseX != 100 || in.MouseY != 200 {
		t.Fatalf("expected left click at (100,200), got %+v", in)
	}
}
