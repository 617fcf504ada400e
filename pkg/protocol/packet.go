// Package protocol implements the GGDirect client wire protocol: a framed,
// fixed-maximum-size packet stream over a loopback TCP connection (see
// spec.md §4.3 and §6). All integers are host-endian, matching the
// teacher's own wire structs in pkg/drm/protocol.go.
package protocol

import "encoding/binary"

// byteOrder is host-endian on every platform GGDirect targets (x86_64,
// arm64) — both are little-endian, so this is a fixed choice rather than
// a runtime-detected one, same as helix's drm protocol package.
var byteOrder = binary.LittleEndian

// PacketType tags the first field of every packet.
type PacketType uint32

const (
	PacketNotify     PacketType = 1
	PacketDrawBuffer PacketType = 2
	PacketInput      PacketType = 3
	PacketResize     PacketType = 4
)

// NotifyType is the sub-kind of a NOTIFY packet.
type NotifyType uint32

const (
	NotifyEmptyBuffer NotifyType = 1
	NotifyClosed      NotifyType = 2
)

// AdditionalKey enumerates the special (non-printable) keys and mouse
// buttons carried in an INPUT packet's additionalKey field.
type AdditionalKey uint32

const (
	KeyNone AdditionalKey = iota
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyLeftClick
	KeyMiddleClick
	KeyRightClick
	// KeyScrollUp and KeyScrollDown are retained for wire compatibility
	// (spec.md §9 open question #2) but this implementation never emits
	// them — scroll direction travels in Input.ScrollDelta instead.
	KeyScrollUp
	KeyScrollDown
)

var additionalKeyNames = map[AdditionalKey]string{
	KeyNone: "NONE",
	KeyF1: "F1", KeyF2: "F2", KeyF3: "F3", KeyF4: "F4",
	KeyF5: "F5", KeyF6: "F6", KeyF7: "F7", KeyF8: "F8",
	KeyF9: "F9", KeyF10: "F10", KeyF11: "F11", KeyF12: "F12",
	KeyArrowUp: "ARROW_UP", KeyArrowDown: "ARROW_DOWN",
	KeyArrowLeft: "ARROW_LEFT", KeyArrowRight: "ARROW_RIGHT",
	KeyHome: "HOME", KeyEnd: "END",
	KeyPageUp: "PAGE_UP", KeyPageDown: "PAGE_DOWN",
	KeyInsert: "INSERT", KeyDelete: "DELETE",
	KeyLeftClick: "LEFT_CLICK", KeyMiddleClick: "MIDDLE_CLICK", KeyRightClick: "RIGHT_CLICK",
	KeyScrollUp: "SCROLL_UP", KeyScrollDown: "SCROLL_DOWN",
}

// String names an AdditionalKey per spec.md §6's enumeration, for logging
// and tests.
func (k AdditionalKey) String() string {
	if s, ok := additionalKeyNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// Modifier bits, matching spec.md §6 exactly.
const (
	ModShift      uint32 = 1 << 0
	ModCtrl       uint32 = 1 << 1
	ModSuper      uint32 = 1 << 2
	ModAlt        uint32 = 1 << 3
	ModAltGr      uint32 = 1 << 4
	ModFn         uint32 = 1 << 5
	ModPressedDown uint32 = 1 << 6
)

// MaxPacketSize is the on-wire size of the largest fixed packet variant
// (Input, at 4+2+2+4+4+1+1 = 18 bytes, padded to a round number). Every
// framed packet read is exactly this many bytes; DRAW_BUFFER's cell blob
// is a second, separately framed read of variable length (§4.3).
const MaxPacketSize = 24

// Notify is the NOTIFY packet body.
type Notify struct {
	Type PacketType
	Kind NotifyType
}

// Resize is the RESIZE packet body (compositor→client only).
type Resize struct {
	Type   PacketType
	Width  int16
	Height int16
}

// Input is the INPUT packet body (compositor→client only: the input
// pipeline sends it to the focused session, and an INPUT arriving from a
// client is ignored by Session.Poll).
type Input struct {
	Type          PacketType
	MouseX        int16
	MouseY        int16
	Modifiers     uint32
	AdditionalKey AdditionalKey
	ASCIIKey      uint8
	// ScrollDelta carries wheel motion (positive = up, negative = down),
	// separated from AdditionalKey per SPEC_FULL.md decision E.2.
	ScrollDelta int8
}

// EncodeResize serializes a Resize into a MaxPacketSize-byte frame.
func EncodeResize(r Resize) []byte {
	buf := make([]byte, MaxPacketSize)
	byteOrder.PutUint32(buf[0:4], uint32(PacketResize))
	byteOrder.PutUint16(buf[4:6], uint16(r.Width))
	byteOrder.PutUint16(buf[6:8], uint16(r.Height))
	return buf
}

// EncodeNotify serializes a Notify into a MaxPacketSize-byte frame.
func EncodeNotify(kind NotifyType) []byte {
	buf := make([]byte, MaxPacketSize)
	byteOrder.PutUint32(buf[0:4], uint32(PacketNotify))
	byteOrder.PutUint32(buf[4:8], uint32(kind))
	return buf
}

// DecodeInput parses a full MaxPacketSize-byte frame as an Input packet.
// Callers must have already checked PacketTypeOf(buf) == PacketInput.
func DecodeInput(buf []byte) Input {
	return Input{
		Type:          PacketInput,
		MouseX:        int16(byteOrder.Uint16(buf[4:6])),
		MouseY:        int16(byteOrder.Uint16(buf[6:8])),
		Modifiers:     byteOrder.Uint32(buf[8:12]),
		AdditionalKey: AdditionalKey(byteOrder.Uint32(buf[12:16])),
		ASCIIKey:      buf[16],
		ScrollDelta:   int8(buf[17]),
	}
}

// EncodeInput serializes an Input packet, used by the input pipeline to
// frame events before handing them to a session connection.
func EncodeInput(in Input) []byte {
	buf := make([]byte, MaxPacketSize)
	byteOrder.PutUint32(buf[0:4], uint32(PacketInput))
	byteOrder.PutUint16(buf[4:6], uint16(in.MouseX))
	byteOrder.PutUint16(buf[6:8], uint16(in.MouseY))
	byteOrder.PutUint32(buf[8:12], in.Modifiers)
	byteOrder.PutUint32(buf[12:16], uint32(in.AdditionalKey))
	buf[16] = in.ASCIIKey
	buf[17] = byte(in.ScrollDelta)
	return buf
}

// PacketTypeOf reads the leading tag shared by every packet variant.
func PacketTypeOf(buf []byte) PacketType {
	if len(buf) < 4 {
		return 0
	}
	return PacketType(byteOrder.Uint32(buf[0:4]))
}

// NotifyKindOf reads a NOTIFY packet's sub-kind. Caller must have already
// checked PacketTypeOf(buf) == PacketNotify.
func NotifyKindOf(buf []byte) NotifyType {
	return NotifyType(byteOrder.Uint32(buf[4:8]))
}

// EncodePort frames the 16-bit port exchanged during the handshake (§4.4).
func EncodePort(port uint16) []byte {
	buf := make([]byte, 2)
	byteOrder.PutUint16(buf, port)
	return buf
}

// DecodePort parses the 16-bit port sent by a connecting client.
func DecodePort(buf []byte) uint16 {
	return byteOrder.Uint16(buf)
}
