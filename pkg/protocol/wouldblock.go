package protocol

import (
	"errors"
	"net"
	"syscall"
)

// isWouldBlock reports whether err represents "no data ready yet" rather
// than a genuine failure: either a net.Error produced by a zero-duration
// read deadline (the mechanism Session.Poll uses to make a net.Conn read
// effectively non-blocking, see pkg/session), or a raw EAGAIN/EWOULDBLOCK
// from a non-blocking file descriptor.
func isWouldBlock(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}
