// Package listener implements the client listener and handshake of
// spec.md §4.4: accept a connection, exchange the client's reverse port,
// confirm it, send the initial RESIZE, and hand the new connection off to
// the session manager.
package listener

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/ggdirect/compositor/pkg/protocol"
	"github.com/ggdirect/compositor/pkg/session"
)

// RendezvousPath is the well-known file clients read to locate the
// compositor's loopback port (spec.md §6).
const RendezvousPath = "/tmp/GGDirect.gateway"

// acceptPollInterval is the accept deadline: each Accept call waits at most
// this long for a connection before Run re-checks the shutdown flag
// (spec.md §5 "the listener thread suspends in a non-blocking accept plus
// 1s sleep").
const acceptPollInterval = time.Second

// PrimaryDisplay supplies the listener with the information needed to
// size a new session's initial RESIZE packet, without listener importing
// pkg/kms directly — only the display's ID and the width and height that
// spec.md §4.4 step 5 needs.
type PrimaryDisplay struct {
	ID            uint32
	Width, Height int
}

// Listener accepts incoming client connections and performs the handshake
// sequentially per connection (spec.md §4.4).
type Listener struct {
	logger         *slog.Logger
	ln             *net.TCPListener
	manager        *session.Manager
	display        func() PrimaryDisplay
	rendezvousPath string
	shutdown       atomic.Bool
}

// New binds a loopback listener on an OS-assigned port and writes it to
// rendezvousPath (defaulting to RendezvousPath if empty), per spec.md
// §4.4 and §6. The GGDIRECT_RENDEZVOUS_PATH environment override
// (pkg/config's Env) flows into rendezvousPath from cmd/ggdirectd.
func New(logger *slog.Logger, manager *session.Manager, rendezvousPath string, display func() PrimaryDisplay) (*Listener, error) {
	if rendezvousPath == "" {
		rendezvousPath = RendezvousPath
	}
	ln, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		return nil, fmt.Errorf("listener: bind loopback port: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	if err := os.WriteFile(rendezvousPath, []byte(fmt.Sprintf("%d", port)), 0o644); err != nil {
		ln.Close()
		return nil, fmt.Errorf("listener: write rendezvous file %s: %w", rendezvousPath, err)
	}
	logger.Info("listener bound", "port", port, "rendezvous", rendezvousPath)
	return &Listener{logger: logger, ln: ln, manager: manager, display: display, rendezvousPath: rendezvousPath}, nil
}

// Shutdown sets the cooperative shutdown flag spec.md §5 describes; the
// accept loop observes it at its next suspension point.
func (l *Listener) Shutdown() { l.shutdown.Store(true) }

// Close releases the listening socket.
func (l *Listener) Close() error { return l.ln.Close() }

// Run accepts connections until Shutdown is called. Intended to run on its
// own goroutine (spec.md §5 "Listener thread").
func (l *Listener) Run() {
	for !l.shutdown.Load() {
		_ = l.ln.SetDeadline(time.Now().Add(acceptPollInterval))
		c1, err := l.ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if l.shutdown.Load() {
				return
			}
			l.logger.Warn("listener: accept failed", "err", err)
			continue
		}
		if err := l.handshake(c1); err != nil {
			l.logger.Warn("listener: handshake failed", "err", err)
		}
	}
}

// handshake implements steps 2-7 of spec.md §4.4 (step 1, the accept,
// happens in Run).
func (l *Listener) handshake(c1 net.Conn) error {
	defer c1.Close() // step 7: close C1 regardless of outcome

	_ = c1.SetReadDeadline(time.Now().Add(5 * time.Second))
	var portBuf [2]byte
	if _, err := readFull(c1, portBuf[:]); err != nil {
		return fmt.Errorf("read client port: %w", err)
	}
	port := binary.LittleEndian.Uint16(portBuf[:])

	c2, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("dial reverse channel 127.0.0.1:%d: %w", port, err)
	}
	if tc, ok := c2.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}

	if _, err := c2.Write(protocol.EncodePort(port)); err != nil {
		c2.Close()
		return fmt.Errorf("echo port: %w", err)
	}

	display := l.display()
	preset := session.Fullscreen
	cols, rows := session.CellsForPreset(preset, display.Width, display.Height, 1.0)
	if _, err := c2.Write(protocol.EncodeResize(protocol.Resize{Width: int16(cols), Height: int16(rows)})); err != nil {
		c2.Close()
		return fmt.Errorf("send initial resize: %w", err)
	}

	l.manager.Add(func(id uint64) *session.Session {
		return session.New(id, c2, display.ID, preset, display.Width, display.Height)
	})
	l.logger.Info("session connected", "port", port, "display", display.ID)
	return nil
}

func readFull(c net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := c.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
