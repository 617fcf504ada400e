//go:build linux

package input

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// evdev ioctl numbers, computed the same way pkg/kms/ioctl_linux.go
// computes DRM's — the kernel's generic _IOC macro with evdev's 'E' type
// instead of DRM's 'd' — rather than hand-expanded hex.
const (
	iocRead  = 0x80000000
	evdevType = 'E'
)

func iocEv(nr uint32, size uintptr) uint32 {
	return iocRead | uint32(size&0x1fff)<<16 | evdevType<<8 | nr
}

// bitsLen is large enough to hold EVIOCGBIT's reply for KEY_MAX (0x2ff).
const bitsLen = 96

func ioctlGBit(fd int, ev uint16, buf []byte) error {
	req := iocEv(0x20+uint32(ev), uintptr(len(buf)))
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return errno
	}
	return nil
}

func testBit(bits []byte, n uint16) bool {
	i := n / 8
	if int(i) >= len(bits) {
		return false
	}
	return bits[i]&(1<<(n%8)) != 0
}

// Device is one opened /dev/input/eventN node.
type Device struct {
	Path string
	Kind DeviceType
	fd   int
}

// DiscoverDevices scans the kernel input directory for event nodes,
// opening each read-only non-blocking and classifying it (spec.md §4.8
// "Device discovery"). Nodes that fail to open are logged and skipped;
// discovery itself never fails outright.
func DiscoverDevices(logger *slog.Logger, dir string) []*Device {
	paths, _ := filepath.Glob(filepath.Join(dir, "event*"))
	sort.Strings(paths)

	var devices []*Device
	for _, p := range paths {
		d, err := openDevice(p)
		if err != nil {
			logger.Warn("input: skipping device", "path", p, "err", err)
			continue
		}
		logger.Info("input: device discovered", "path", p, "kind", d.Kind)
		devices = append(devices, d)
	}
	return devices
}

func openDevice(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	d := &Device{Path: path, fd: fd}
	d.Kind = classify(fd)
	return d, nil
}

// classify implements spec.md §4.8's classification rule: KEYBOARD has
// letter keys, MOUSE has left+right buttons or relative X/Y, TOUCHPAD has
// a touch button and absolute axes, else UNKNOWN.
func classify(fd int) DeviceType {
	var keyBits, relBits, absBits [bitsLen]byte
	_ = ioctlGBit(fd, evKey, keyBits[:])
	_ = ioctlGBit(fd, evRel, relBits[:])
	_ = ioctlGBit(fd, evAbs, absBits[:])

	hasLetters := testBit(keyBits[:], 30) && testBit(keyBits[:], 44) // KEY_A, KEY_Z
	hasTouch := testBit(keyBits[:], btnTouch)
	hasAbsXY := testBit(absBits[:], absX) && testBit(absBits[:], absY)
	hasButtons := testBit(keyBits[:], btnLeft) && testBit(keyBits[:], btnRight)
	hasRelXY := testBit(relBits[:], relX) && testBit(relBits[:], relY)

	switch {
	case hasLetters:
		return DeviceKeyboard
	case hasTouch && hasAbsXY:
		return DeviceTouchpad
	case hasButtons || hasRelXY:
		return DeviceMouse
	default:
		return DeviceUnknown
	}
}

// rawEventSize is sizeof(struct input_event) on a 64-bit Linux target:
// two 8-byte timeval fields plus u16 type, u16 code, s32 value.
const rawEventSize = 24

// ReadEvent performs one non-blocking read of a single kernel input event
// (spec.md §4.8 "on readiness, read one kernel input event"). unix.EAGAIN
// means nothing is ready yet, not an error the caller should act on beyond
// retrying next tick.
func (d *Device) ReadEvent() (RawEvent, error) {
	var buf [rawEventSize]byte
	n, err := unix.Read(d.fd, buf[:])
	if err != nil {
		return RawEvent{}, err
	}
	if n < rawEventSize {
		return RawEvent{}, unix.EAGAIN
	}
	return RawEvent{
		Type:        binary.LittleEndian.Uint16(buf[16:18]),
		Code:        binary.LittleEndian.Uint16(buf[18:20]),
		Value:       int32(binary.LittleEndian.Uint32(buf[20:24])),
		TimestampMs: time.Now().UnixMilli(),
	}, nil
}

// Close releases the device's file descriptor.
func (d *Device) Close() error {
	return unix.Close(d.fd)
}
