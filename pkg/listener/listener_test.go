package listener

import (
	"encoding/binary"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ggdirect/compositor/pkg/protocol"
	"github.com/ggdirect/compositor/pkg/session"
)

func newTestListener(t *testing.T) (*Listener, *session.Manager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := session.NewManager()
	rendezvous := filepath.Join(t.TempDir(), "gateway")

	lst, err := New(logger, manager, rendezvous, func() PrimaryDisplay {
		return PrimaryDisplay{ID: 1, Width: 1920, Height: 1080}
	})
	if err != nil {
		t.Fatalf("listener.New: %v", err)
	}
	t.Cleanup(func() { lst.Close() })

	if _, err := os.Stat(rendezvous); err != nil {
		t.Fatalf("expected rendezvous file to exist: %v", err)
	}
	return lst, manager
}

func TestHandshakeAddsSession(t *testing.T) {
	lst, manager := newTestListener(t)
	go lst.Run()
	defer lst.Shutdown()

	reverseLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen reverse channel: %v", err)
	}
	defer reverseLn.Close()
	reversePort := reverseLn.Addr().(*net.TCPAddr).Port

	c1, err := net.Dial("tcp", lst.ln.Addr().String())
	if err != nil {
		t.Fatalf("dial listener: %v", err)
	}
	defer c1.Close()

	var portBuf [2]byte
	binary.LittleEndian.PutUint16(portBuf[:], uint16(reversePort))
	if _, err := c1.Write(portBuf[:]); err != nil {
		t.Fatalf("write reverse port: %v", err)
	}

	c2, err := reverseLn.Accept()
	if err != nil {
		t.Fatalf("accept reverse channel: %v", err)
	}
	defer c2.Close()

	var echoed [2]byte
	if _, err := io.ReadFull(c2, echoed[:]); err != nil {
		t.Fatalf("read echoed port: %v", err)
	}
	if protocol.DecodePort(echoed[:]) != uint16(reversePort) {
		t.Fatalf("expected echoed port %d, got %d", reversePort, protocol.DecodePort(echoed[:]))
	}

	resizeBuf := make([]byte, protocol.MaxPacketSize)
	if _, err := io.ReadFull(c2, resizeBuf); err != nil {
		t.Fatalf("read initial resize: %v", err)
	}
	if protocol.PacketTypeOf(resizeBuf) != protocol.PacketResize {
		t.Fatalf("expected RESIZE packet, got type %d", protocol.PacketTypeOf(resizeBuf))
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if manager.FocusedID() != 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if manager.FocusedID() == 0 {
		t.Fatalf("expected a session to be added and focused after handshake")
	}
}
