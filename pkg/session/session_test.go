package session

import (
	"net"
	"testing"
	"time"
)

func pipePair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	return client, server
}

func TestCellsForPresetMatchesRect(t *testing.T) {
	cols, rows := CellsForPreset(Left, 1920, 1080, 1.0)
	cw, ch := CellPixelSize(1.0)
	if cols != 960/cw || rows != 1080/ch {
		t.Fatalf("got %dx%d cells", cols, rows)
	}
}

func TestSetZoomClamps(t *testing.T) {
	s := &Session{}
	s.SetZoom(10)
	if s.Zoom != MaxZoom {
		t.Fatalf("expected zoom clamped to %v, got %v", MaxZoom, s.Zoom)
	}
	s.SetZoom(-5)
	if s.Zoom != MinZoom {
		t.Fatalf("expected zoom clamped to %v, got %v", MinZoom, s.Zoom)
	}
}

func TestPollRetiresOnPeerClose(t *testing.T) {
	client, server := pipePair(t)
	defer client.Close()

	s := New(1, server, 1, Fullscreen, 1920, 1080)
	client.Close() // peer half-close

	done := make(chan error, 1)
	go func() { done <- s.Poll(1920, 1080) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected an error retiring the session on peer close")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Poll did not return after peer close")
	}
	if !s.Retired() {
		t.Fatalf("expected session retired after peer close")
	}
}

func TestPollNoDataReturnsNilWithoutBlocking(t *testing.T) {
	client, server := pipePair(t)
	defer client.Close()
	defer server.Close()

	s := New(1, server, 1, Fullscreen, 1920, 1080)
	done := make(chan error, 1)
	go func() { done <- s.Poll(1920, 1080) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error with no data ready, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Poll blocked despite no data being available")
	}
	if s.Retired() {
		t.Fatalf("session must not be retired just because no data arrived yet")
	}
}
