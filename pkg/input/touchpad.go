package input

import "github.com/ggdirect/compositor/pkg/protocol"

// TouchpadHandler implements spec.md §4.8's touchpad handler: absolute
// position tracking from ABS_X/ABS_Y, and a left-click event on touch
// start/end (BTN_TOUCH).
type TouchpadHandler struct {
	x, y    int16
	touched bool
}

// NewTouchpadHandler creates an empty touchpad handler.
func NewTouchpadHandler() *TouchpadHandler {
	return &TouchpadHandler{}
}

// Handle translates one raw touchpad event into zero or one Input packets.
func (t *TouchpadHandler) Handle(ev RawEvent) (protocol.Input, bool) {
	switch ev.Type {
	case evAbs:
		switch ev.Code {
		case absX:
			t.x = int16(ev.Value)
		case absY:
			t.y = int16(ev.Value)
		default:
			return protocol.Input{}, false
		}
		return protocol.Input{}, false // position alone doesn't emit; a touch event carries it

	case evKey:
		if ev.Code != btnTouch {
			return protocol.Input{}, false
		}
		t.touched = ev.Value != keyValueRelease
		mods := uint32(0)
		if t.touched {
			mods = protocol.ModPressedDown
		}
		return protocol.Input{
			Type: protocol.PacketInput, MouseX: t.x, MouseY: t.y,
			Modifiers: mods, AdditionalKey: protocol.KeyLeftClick,
		}, true

	default:
		return protocol.Input{}, false
	}
}
