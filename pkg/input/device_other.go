//go:build !linux

package input

import (
	"errors"
	"log/slog"
)

// ErrUnsupportedPlatform is returned by every Device entry point outside
// Linux, mirroring pkg/kms/ioctl_other.go's platform fallback pattern.
var ErrUnsupportedPlatform = errors.New("input: evdev is only supported on linux")

// Device is the non-Linux stand-in; no devices are ever discovered, so
// the input pipeline simply runs with an empty device list.
type Device struct {
	Path string
	Kind DeviceType
}

// DiscoverDevices always returns an empty list outside Linux.
func DiscoverDevices(logger *slog.Logger, dir string) []*Device {
	logger.Warn("input: evdev device discovery unsupported on this platform")
	return nil
}

func (d *Device) ReadEvent() (RawEvent, error) { return RawEvent{}, ErrUnsupportedPlatform }
func (d *Device) Close() error                 { return nil }
