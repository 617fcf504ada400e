package input

import "github.com/ggdirect/compositor/pkg/protocol"

// Linux input event types (linux/input-event-codes.h).
const (
	evSyn uint16 = 0x00
	evKey uint16 = 0x01
	evRel uint16 = 0x02
	evAbs uint16 = 0x03
)

// Relative and absolute axis codes this pipeline cares about.
const (
	relX     uint16 = 0x00
	relY     uint16 = 0x01
	relWheel uint16 = 0x08
	absX     uint16 = 0x00
	absY     uint16 = 0x01
)

// Mouse/touch button codes.
const (
	btnLeft   uint16 = 0x110
	btnRight  uint16 = 0x111
	btnMiddle uint16 = 0x112
	btnTouch  uint16 = 0x14a
)

// Modifier key codes, per spec.md §4.8 "the four modifier-key pairs (both
// sides OR'd)".
const (
	keyLeftShift  uint16 = 42
	keyRightShift uint16 = 54
	keyLeftCtrl   uint16 = 29
	keyRightCtrl  uint16 = 97
	keyLeftAlt    uint16 = 56
	keyRightAlt   uint16 = 100 // conventionally AltGr
	keyLeftMeta   uint16 = 125
	keyRightMeta  uint16 = 126
)

// modifierMask computes the current ctrl/alt/shift/super/altgr bitmask
// from a key-state table, OR'ing each modifier's left and right codes
// (spec.md §4.8 step 3).
func modifierMask(down func(code uint16) bool) uint32 {
	var m uint32
	if down(keyLeftShift) || down(keyRightShift) {
		m |= protocol.ModShift
	}
	if down(keyLeftCtrl) || down(keyRightCtrl) {
		m |= protocol.ModCtrl
	}
	if down(keyLeftAlt) || down(keyRightAlt) {
		m |= protocol.ModAlt
	}
	if down(keyRightAlt) {
		m |= protocol.ModAltGr
	}
	if down(keyLeftMeta) || down(keyRightMeta) {
		m |= protocol.ModSuper
	}
	return m
}

// comboKeyNames maps an evdev keycode to the symbolic name used by the
// combo-string grammar (spec.md §6, pkg/config.ParseCombo), for every key
// likely to appear in a keybind that isn't itself a modifier.
var comboKeyNames = map[uint16]string{
	15: "tab", 28: "enter", 1: "esc", 57: "space", 14: "backspace",
	103: "up", 108: "down", 105: "left", 106: "right",
	102: "home", 107: "end", 104: "pageup", 109: "pagedown",
	110: "insert", 111: "delete",
	59: "f1", 60: "f2", 61: "f3", 62: "f4", 63: "f5", 64: "f6",
	65: "f7", 66: "f8", 67: "f9", 68: "f10", 87: "f11", 88: "f12",
	78: "plus", 74: "minus",
	30: "a", 48: "b", 46: "c", 32: "d", 18: "e", 33: "f", 34: "g",
	35: "h", 23: "i", 36: "j", 37: "k", 38: "l", 50: "m", 49: "n",
	24: "o", 25: "p", 16: "q", 19: "r", 31: "s", 20: "t", 22: "u",
	47: "v", 17: "w", 45: "x", 21: "y", 44: "z",
	2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7", 9: "8", 10: "9", 11: "0",
}

// comboKeyName returns the combo-grammar name for code, or "keyN" for an
// unmapped code, per the grammar's "key<decimal>" escape hatch (spec.md §6).
func comboKeyName(code uint16) string {
	if name, ok := comboKeyNames[code]; ok {
		return name
	}
	return "key" + itoa(int(code))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// specialKeys maps an evdev keycode to its symbolic AdditionalKey, per
// spec.md §4.8 step 5 ("map special keys to a symbolic enumeration").
var specialKeys = map[uint16]protocol.AdditionalKey{
	59: protocol.KeyF1, 60: protocol.KeyF2, 61: protocol.KeyF3, 62: protocol.KeyF4,
	63: protocol.KeyF5, 64: protocol.KeyF6, 65: protocol.KeyF7, 66: protocol.KeyF8,
	67: protocol.KeyF9, 68: protocol.KeyF10, 87: protocol.KeyF11, 88: protocol.KeyF12,
	103: protocol.KeyArrowUp, 108: protocol.KeyArrowDown,
	105: protocol.KeyArrowLeft, 106: protocol.KeyArrowRight,
	102: protocol.KeyHome, 107: protocol.KeyEnd,
	104: protocol.KeyPageUp, 109: protocol.KeyPageDown,
	110: protocol.KeyInsert, 111: protocol.KeyDelete,
}

// asciiTable maps an evdev keycode to its unshifted/shifted printable
// byte. Letters are handled separately (keyLetterByte) since they only
// need a case flip; this table covers digits and standard punctuation
// (spec.md §4.8 step 5 "applying shift ... to the standard punctuation
// table").
var asciiTable = map[uint16][2]byte{
	2: {'1', '!'}, 3: {'2', '@'}, 4: {'3', '#'}, 5: {'4', '$'}, 6: {'5', '%'},
	7: {'6', '^'}, 8: {'7', '&'}, 9: {'8', '*'}, 10: {'9', '('}, 11: {'0', ')'},
	57: {' ', ' '},
	12: {'-', '_'}, 13: {'=', '+'},
	26: {'[', '{'}, 27: {']', '}'},
	39: {';', ':'}, 40: {'\'', '"'}, 41: {'`', '~'},
	43: {'\\', '|'}, 51: {',', '<'}, 52: {'.', '>'}, 53: {'/', '?'},
}

// letterCodes maps an evdev keycode to its lowercase letter.
var letterCodes = map[uint16]byte{
	30: 'a', 48: 'b', 46: 'c', 32: 'd', 18: 'e', 33: 'f', 34: 'g',
	35: 'h', 23: 'i', 36: 'j', 37: 'k', 38: 'l', 50: 'm', 49: 'n',
	24: 'o', 25: 'p', 16: 'q', 19: 'r', 31: 's', 20: 't', 22: 'u',
	47: 'v', 17: 'w', 45: 'x', 21: 'y', 44: 'z',
}

// keyLetterByte returns the ASCII byte for a letter keycode, applying
// shift per spec.md §4.8 step 5 ("A vs a"). ok is false for a non-letter
// code.
func keyLetterByte(code uint16, shift bool) (b byte, ok bool) {
	c, ok := letterCodes[code]
	if !ok {
		return 0, false
	}
	if shift {
		return c - 'a' + 'A', true
	}
	return c, true
}
