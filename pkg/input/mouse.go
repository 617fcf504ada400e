package input

import "github.com/ggdirect/compositor/pkg/protocol"

// MouseHandler implements spec.md §4.8's mouse handler: accumulated
// position and button state, translated into normalized Input packets for
// movement, button press/release, and wheel scroll.
type MouseHandler struct {
	x, y    int16
	buttons map[uint16]bool
}

// NewMouseHandler creates a handler at position (0, 0) with no buttons
// held. The position is clamped per event, to the bounds passed to Handle.
func NewMouseHandler() *MouseHandler {
	return &MouseHandler{buttons: make(map[uint16]bool)}
}

// Handle translates one raw mouse event (EV_REL or EV_KEY for a button)
// into zero or one normalized Input packets. ok is false for an event this
// handler doesn't produce output for (e.g. EV_SYN).
func (m *MouseHandler) Handle(ev RawEvent, maxX, maxY int16) (protocol.Input, bool) {
	switch ev.Type {
	case evRel:
		switch ev.Code {
		case relX:
			m.x = clamp16(m.x+int16(ev.Value), 0, maxX)
		case relY:
			m.y = clamp16(m.y+int16(ev.Value), 0, maxY)
		case relWheel:
			delta := int8(1)
			if ev.Value < 0 {
				delta = -1
			}
			return protocol.Input{
				Type: protocol.PacketInput, MouseX: m.x, MouseY: m.y,
				Modifiers: protocol.ModPressedDown, ScrollDelta: delta,
			}, true
		default:
			return protocol.Input{}, false
		}
		return protocol.Input{Type: protocol.PacketInput, MouseX: m.x, MouseY: m.y}, true

	case evKey:
		key, ok := mouseButtonKeys[ev.Code]
		if !ok {
			return protocol.Input{}, false
		}
		m.buttons[ev.Code] = ev.Value != keyValueRelease
		mods := uint32(0)
		if ev.Value != keyValueRelease {
			mods = protocol.ModPressedDown
		}
		return protocol.Input{
			Type: protocol.PacketInput, MouseX: m.x, MouseY: m.y,
			Modifiers: mods, AdditionalKey: key,
		}, true

	default:
		return protocol.Input{}, false
	}
}

var mouseButtonKeys = map[uint16]protocol.AdditionalKey{
	btnLeft:   protocol.KeyLeftClick,
	btnMiddle: protocol.KeyMiddleClick,
	btnRight:  protocol.KeyRightClick,
}

func clamp16(v, lo, hi int16) int16 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
