package input

import (
	"testing"

	"github.com/ggdirect/compositor/pkg/config"
)

func TestKeyboardHandlerInterceptsKeybind(t *testing.T) {
	reg := config.NewRegistry()
	combo, ok := config.ParseCombo("alt+tab")
	if !ok {
		t.Fatalf("expected alt+tab to parse")
	}
	reg.Bind(config.SectionFocusManagement, combo, config.ActionFocusNext)

	h := NewKeyboardHandler(reg)
	// Press and hold Alt (code 56), then Tab (code 15).
	h.Handle(RawEvent{Type: evKey, Code: keyLeftAlt, Value: keyValuePress})
	result := h.Handle(RawEvent{Type: evKey, Code: 15, Value: keyValuePress})

	if !result.Intercepted || result.Action != config.ActionFocusNext {
		t.Fatalf("expected alt+tab to intercept as focus-next, got %+v", result)
	}
}

func TestKeyboardHandlerReleaseSuppressesOutput(t *testing.T) {
	h := NewKeyboardHandler(config.NewRegistry())
	result := h.Handle(RawEvent{Type: evKey, Code: 30, Value: keyValueRelease})
	if result.Emit || result.Intercepted {
		t.Fatalf("expected a release event to produce no output, got %+v", result)
	}
}

func TestKeyboardHandlerShiftAppliesToLetters(t *testing.T) {
	h := NewKeyboardHandler(config.NewRegistry())
	h.Handle(RawEvent{Type: evKey, Code: keyLeftShift, Value: keyValuePress})
	result := h.Handle(RawEvent{Type: evKey, Code: 30, Value: keyValuePress}) // KEY_A
	if !result.Emit || result.Input.ASCIIKey != 'A' {
		t.Fatalf("expected shifted 'A', got %+v", result)
	}
}

func TestKeyboardHandlerUnshiftedLetterIsLowercase(t *testing.T) {
	h := NewKeyboardHandler(config.NewRegistry())
	result := h.Handle(RawEvent{Type: evKey, Code: 30, Value: keyValuePress})
	if !result.Emit || result.Input.ASCIIKey != 'a' {
		t.Fatalf("expected lowercase 'a', got %+v", result)
	}
}

func TestKeyboardHandlerSpecialKeyMapsToAdditionalKey(t *testing.T) {
	h := NewKeyboardHandler(config.NewRegistry())
	result := h.Handle(RawEvent{Type: evKey, Code: 103, Value: keyValuePress}) // KEY_UP
	if !result.Emit || result.Input.AdditionalKey.String() != "ARROW_UP" {
		t.Fatalf("expected ARROW_UP, got %+v", result.Input.AdditionalKey)
	}
}

func TestKeyboardHandlerAutoRepeatDoesNotRetriggerAfterCombo(t *testing.T) {
	reg := config.NewRegistry()
	combo, _ := config.ParseCombo("alt+tab")
	reg.Bind(config.SectionFocusManagement, combo, config.ActionFocusNext)
	h := NewKeyboardHandler(reg)

	h.Handle(RawEvent{Type: evKey, Code: keyLeftAlt, Value: keyValuePress})
	first := h.Handle(RawEvent{Type: evKey, Code: 15, Value: keyValuePress})
	if !first.Intercepted {
		t.Fatalf("expected first alt+tab to intercept")
	}
	// Auto-repeat of Tab alone (Alt's state was cleared by clearCombo).
	second := h.Handle(RawEvent{Type: evKey, Code: 15, Value: keyValueRepeat})
	if second.Intercepted {
		t.Fatalf("expected auto-repeat not to re-trigger the keybind")
	}
}
