package input

import (
	"errors"
	"syscall"
)

// isNoDataYet reports whether err from Device.ReadEvent means "nothing
// ready this tick" rather than a genuine device failure, mirroring
// pkg/protocol's isWouldBlock.
func isNoDataYet(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}
