package session

import (
	"net"
	"time"

	"github.com/ggdirect/compositor/pkg/cellgrid"
	"github.com/ggdirect/compositor/pkg/glyph"
	"github.com/ggdirect/compositor/pkg/protocol"
)

// BaseCellWidth and BaseCellHeight are the un-zoomed pixel dimensions of a
// single cell, matching glyph.DefaultSource's 7x13 bitmap font padded to a
// round cell box (spec.md §3 "zoom ... multiplies cell pixel dimensions").
const (
	BaseCellWidth  = 8
	BaseCellHeight = 16
)

// CellPixelSize returns the zoom-scaled pixel size of one cell.
func CellPixelSize(zoom float64) (w, h int) {
	w = int(float64(BaseCellWidth) * zoom)
	h = int(float64(BaseCellHeight) * zoom)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// CellsForPreset computes a session's expected grid size, per invariant I3:
// cellsPerPreset(preset, display) x zoomAdjustedCellCount.
func CellsForPreset(preset Preset, displayW, displayH int, zoom float64) (cols, rows int) {
	_, _, w, h := preset.Rect(displayW, displayH)
	cw, ch := CellPixelSize(zoom)
	return w / cw, h / ch
}

// Dirty bits, per spec.md §3 "dirty: bitmask {clear, resize, closed}".
const (
	DirtyClear uint8 = 1 << iota
	DirtyResize
	DirtyClosed
)

const (
	// MinZoom and MaxZoom bound Session.Zoom (spec.md §3, §4.8).
	MinZoom = 0.5
	MaxZoom = 3.0
	// maxErrorCount is the consecutive-failure cap beyond which a session
	// is retired (spec.md §4.5).
	maxErrorCount = 100
)

// Session is the compositor's per-client state (spec.md §3 "Window
// session"). Not safe for concurrent use by itself — Manager (manager.go)
// is the guarded entry point every other subsystem goes through.
type Session struct {
	ID   uint64
	conn net.Conn

	Grid           *cellgrid.Grid
	Preset         Preset
	PreviousPreset Preset
	DisplayID      uint32
	Zoom           float64
	ErrorCount     int
	Dirty          uint8
	CustomFont     *glyph.Cache // nil means use the compositor's default font

	header       *protocol.Receiver
	blob         *protocol.Receiver
	awaitingBlob bool
	closed       bool
}

// New wraps conn as a session bound to displayID, sized for preset against
// a displayW x displayH display at zoom 1.0 (spec.md §3 defaults).
func New(id uint64, conn net.Conn, displayID uint32, preset Preset, displayW, displayH int) *Session {
	cols, rows := CellsForPreset(preset, displayW, displayH, 1.0)
	return &Session{
		ID:        id,
		conn:      conn,
		Grid:      cellgrid.NewGrid(cols, rows),
		Preset:    preset,
		DisplayID: displayID,
		Zoom:      1.0,
		header:    protocol.NewReceiver(protocol.MaxPacketSize),
	}
}

// Retired reports whether this session should be removed from the
// manager: peer-closed, too many consecutive protocol errors, or an
// explicit CLOSED notify (spec.md §4.5).
func (s *Session) Retired() bool {
	return s.closed || s.ErrorCount > maxErrorCount
}

// Close releases the connection. Idempotent.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.Dirty |= DirtyClosed
	_ = s.conn.Close()
}

// SetZoom clamps to [MinZoom, MaxZoom], per spec.md §3/§8.
func (s *Session) SetZoom(z float64) {
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	s.Zoom = z
}

// Send writes a pre-framed packet to the client, used by the input
// pipeline (INPUT).
func (s *Session) Send(frame []byte) error {
	_, err := s.conn.Write(frame)
	return err
}

// Poll is the per-frame, non-blocking step described by spec.md §4.5.
func (s *Session) Poll(displayW, displayH int) error {
	if s.closed {
		return nil
	}

	cols, rows := CellsForPreset(s.Preset, displayW, displayH, s.Zoom)
	if cols != s.Grid.Width() || rows != s.Grid.Height() {
		s.Grid.Resize(cols, rows)
		s.PreviousPreset = s.Preset
		s.Dirty |= DirtyResize | DirtyClear
	}

	if s.awaitingBlob {
		return s.continueBlob()
	}
	return s.readHeader()
}

func (s *Session) readHeader() error {
	buf, complete, err := s.header.Step(nonBlocking{s.conn})
	if err != nil {
		s.Close()
		return err
	}
	if !complete {
		return nil
	}

	switch protocol.PacketTypeOf(buf) {
	case protocol.PacketNotify:
		switch protocol.NotifyKindOf(buf) {
		case protocol.NotifyEmptyBuffer:
			s.ErrorCount = 0
		case protocol.NotifyClosed:
			s.Close()
		default:
			s.ErrorCount++
		}
	case protocol.PacketDrawBuffer:
		expected := s.Grid.Len() * cellgrid.CellWireSize
		s.blob = protocol.NewReceiver(expected)
		s.awaitingBlob = true
		return s.continueBlob()
	case protocol.PacketInput, protocol.PacketResize:
		s.ErrorCount = 0
	default:
		s.ErrorCount++
	}
	return nil
}

func (s *Session) continueBlob() error {
	blob, complete, err := s.blob.Step(nonBlocking{s.conn})
	if err != nil {
		s.Close()
		return err
	}
	if !complete {
		return nil
	}
	s.awaitingBlob = false
	if !s.Grid.LoadBytes(blob) {
		// The grid was resized between the header and the blob arriving
		// (spec.md §8 scenario 4): drop this stale draw rather than
		// corrupting the grid, and wait for the client's next DRAW_BUFFER
		// at the new size.
		return nil
	}
	s.ErrorCount = 0
	return nil
}

// nonBlocking adapts a net.Conn into the non-blocking io.Reader
// protocol.Receiver.Step expects, by arming an already-elapsed read
// deadline before every read: data already buffered by the kernel is
// still returned immediately, but an empty socket yields a timeout error
// instead of blocking (matching isWouldBlock's net.Error.Timeout() check
// in pkg/protocol).
type nonBlocking struct{ net.Conn }

func (n nonBlocking) Read(p []byte) (int, error) {
	_ = n.Conn.SetReadDeadline(time.Now())
	return n.Conn.Read(p)
}
