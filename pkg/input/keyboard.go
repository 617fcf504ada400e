package input

import (
	"github.com/ggdirect/compositor/pkg/config"
	"github.com/ggdirect/compositor/pkg/protocol"
)

// KeyValue is the kernel's EV_KEY value field: 0 release, 1 press, 2 auto-repeat.
const (
	keyValueRelease = 0
	keyValuePress   = 1
	keyValueRepeat  = 2
)

// KeyboardHandler implements spec.md §4.8's keyboard handler: per-code
// press/release state, modifier computation, keybind interception, and
// normalized-event construction for everything a keybind doesn't consume.
type KeyboardHandler struct {
	registry *config.Registry
	down     map[uint16]bool
}

// NewKeyboardHandler wraps registry, the process-wide keybind table
// (spec.md §3).
func NewKeyboardHandler(registry *config.Registry) *KeyboardHandler {
	return &KeyboardHandler{registry: registry, down: make(map[uint16]bool)}
}

// Dispatch result: either a keybind action was intercepted, or a
// normalized Input packet should be routed to the focused session.
type KeyResult struct {
	Intercepted bool
	Action      config.Action
	Section     config.Section
	Input       protocol.Input
	Emit        bool // whether Input should actually be sent (step 2 "on release, suppress output")
}

// Handle implements spec.md §4.8 steps 1-6 for one keyboard EV_KEY event.
func (h *KeyboardHandler) Handle(ev RawEvent) KeyResult {
	h.down[ev.Code] = ev.Value != keyValueRelease

	if ev.Value == keyValueRelease {
		return KeyResult{} // step 2: releases never produce output
	}

	mods := modifierMask(func(c uint16) bool { return h.down[c] })
	combo := config.Combo{Key: comboKeyName(ev.Code), Modifiers: mods & comboModifierMask}

	if action, section, ok := h.registry.Lookup(combo); ok {
		h.clearCombo(ev.Code)
		return KeyResult{Intercepted: true, Action: action, Section: section}
	}

	in := protocol.Input{
		Type:          protocol.PacketInput,
		Modifiers:     mods | protocol.ModPressedDown,
		AdditionalKey: protocol.KeyNone,
	}
	if special, ok := specialKeys[ev.Code]; ok {
		in.AdditionalKey = special
	} else if b, ok := keyLetterByte(ev.Code, mods&protocol.ModShift != 0); ok {
		in.ASCIIKey = b
	} else if pair, ok := asciiTable[ev.Code]; ok {
		if mods&protocol.ModShift != 0 {
			in.ASCIIKey = pair[1]
		} else {
			in.ASCIIKey = pair[0]
		}
	}
	return KeyResult{Input: in, Emit: true}
}

// comboModifierMask restricts modifier bits to the four the combo grammar
// recognizes (spec.md §6); AltGr/Fn never participate in a keybind combo.
const comboModifierMask = protocol.ModShift | protocol.ModCtrl | protocol.ModAlt | protocol.ModSuper

// clearCombo zeroes the state of the modifier keys currently held plus
// the triggering key, per spec.md §4.8 step 5 ("clear the states of the
// keys that participated so auto-repeat doesn't re-trigger").
func (h *KeyboardHandler) clearCombo(triggerCode uint16) {
	for _, code := range []uint16{
		keyLeftShift, keyRightShift, keyLeftCtrl, keyRightCtrl,
		keyLeftAlt, keyRightAlt, keyLeftMeta, keyRightMeta,
	} {
		delete(h.down, code)
	}
	delete(h.down, triggerCode)
}
