// Package input implements the input pipeline of spec.md §4.8: device
// discovery and classification over the kernel input directory, a 10ms
// polling thread that normalizes raw evdev events, keyboard/mouse/
// touchpad handlers, global keybind interception, and dispatch of the
// remaining stream to the focused client session.
//
// The evdev ioctl surface (keycodes.go, device_linux.go) follows the same
// manually-computed-ioctl-number style as pkg/kms/ioctl_linux.go, adapted
// from the DRM 'd' type to evdev's 'E' type — golang.org/x/sys/unix is the
// same dependency the teacher uses for this exact purpose.
package input

// DeviceType classifies an input device node per spec.md §4.8 "Device
// discovery".
type DeviceType int

const (
	DeviceUnknown DeviceType = iota
	DeviceKeyboard
	DeviceMouse
	DeviceTouchpad
)

func (d DeviceType) String() string {
	switch d {
	case DeviceKeyboard:
		return "keyboard"
	case DeviceMouse:
		return "mouse"
	case DeviceTouchpad:
		return "touchpad"
	default:
		return "unknown"
	}
}

// RawEvent is one decoded Linux input_event, before normalization.
type RawEvent struct {
	Type        uint16
	Code        uint16
	Value       int32
	TimestampMs int64
}
