//go:build !linux

package kms

import (
	"errors"
	"os"
)

// ErrUnsupportedPlatform is returned by every ioctl entry point outside
// Linux. Callers should fall back to NewHeadlessAdapter instead of
// treating this as fatal, mirroring the teacher's pkg/drm/ioctl_other.go.
var ErrUnsupportedPlatform = errors.New("kms: DRM is only supported on linux")

func openDRMDevice(string) (*os.File, error) {
	return nil, ErrUnsupportedPlatform
}

func dropMasterDevice(*os.File) error {
	return ErrUnsupportedPlatform
}

func setClientCap(*os.File, uint64, uint64) error {
	return ErrUnsupportedPlatform
}

func supportsAtomic(*os.File) bool {
	return false
}

func ioctl(fd uintptr, req uint32, arg uintptr) error {
	return ErrUnsupportedPlatform
}
