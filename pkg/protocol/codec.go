package protocol

import (
	"errors"
	"io"
)

// ErrConnClosed signals that the underlying connection produced a
// zero-length read or a genuine I/O error, as opposed to merely having no
// bytes ready yet. Per spec.md §4.3, this retires the session immediately.
var ErrConnClosed = errors.New("protocol: connection closed")

// Receiver is a small state machine that accumulates exactly `expected`
// bytes across any number of non-blocking reads, per the design note in
// spec.md §9 ("Partial I/O"). It never discards bytes already read: a
// partial receive resumes from the same offset on the next call, closing
// the class of bugs where a caller re-issues from zero.
type Receiver struct {
	expected int
	buf      []byte
	filled   int
}

// NewReceiver creates a Receiver that will accumulate exactly n bytes.
func NewReceiver(n int) *Receiver {
	return &Receiver{expected: n, buf: make([]byte, n)}
}

// Reset reinitializes the receiver to expect n bytes, discarding any
// partially-accumulated data. Used when a session's next expected packet
// size changes (e.g. the header vs. the DRAW_BUFFER cell blob).
func (r *Receiver) Reset(n int) {
	r.expected = n
	if cap(r.buf) < n {
		r.buf = make([]byte, n)
	} else {
		r.buf = r.buf[:n]
	}
	r.filled = 0
}

// Expected returns how many bytes this receiver is waiting for in total.
func (r *Receiver) Expected() int { return r.expected }

// Filled returns how many bytes have been accumulated so far.
func (r *Receiver) Filled() int { return r.filled }

// Step performs one non-blocking read attempt from src. It returns:
//   - (data, true, nil) once `expected` bytes have been accumulated; data
//     is the complete frame and the receiver resets for reuse at the same
//     expected size.
//   - (nil, false, nil) if src currently has no bytes ready (a
//     non-blocking read would return EAGAIN) — the caller should retry on
//     the next poll.
//   - (nil, false, err) on a genuine I/O error or EOF — the session should
//     be retired (I6, per spec.md §4.3/§4.5).
//
// src.Read is expected to be non-blocking (the caller dialed/accepted with
// a non-blocking socket); Step never blocks itself.
func (r *Receiver) Step(src io.Reader) ([]byte, bool, error) {
	if r.filled >= r.expected {
		r.filled = 0
	}
	n, err := src.Read(r.buf[r.filled:r.expected])
	if n > 0 {
		r.filled += n
	}
	if err != nil {
		if isWouldBlock(err) {
			return nil, false, nil
		}
		return nil, false, ErrConnClosed
	}
	if n == 0 {
		// A zero-length read with no error on a stream socket means the
		// peer performed an orderly shutdown.
		return nil, false, ErrConnClosed
	}
	if r.filled < r.expected {
		return nil, false, nil
	}
	out := make([]byte, r.expected)
	copy(out, r.buf[:r.expected])
	r.filled = 0
	return out, true, nil
}
