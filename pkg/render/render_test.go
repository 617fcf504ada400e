package render

import (
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/ggdirect/compositor/pkg/cellgrid"
	"github.com/ggdirect/compositor/pkg/config"
	"github.com/ggdirect/compositor/pkg/glyph"
	"github.com/ggdirect/compositor/pkg/gpucontext"
	"github.com/ggdirect/compositor/pkg/kms"
	"github.com/ggdirect/compositor/pkg/session"
)

func newTestLoop(t *testing.T) (*Loop, *session.Manager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	adapter := kms.NewHeadlessAdapter(logger, 320, 240)
	controller := adapter.Controllers()[0]

	gctx, err := gpucontext.Initialize(logger, adapter, controller.CurrentMode)
	if err != nil {
		t.Fatalf("initialize gpu context: %v", err)
	}

	manager := session.NewManager()
	display := &config.Display{BackgroundColor: "#101010"}
	fonts := glyph.NewCache(glyph.NewDefaultSource())

	loop := New(logger, adapter, controller, gctx, manager, display, fonts)
	return loop, manager
}

func TestIterateDrawsSessionAndSwaps(t *testing.T) {
	loop, manager := newTestLoop(t)
	_, server := net.Pipe()
	s := manager.Add(func(id uint64) *session.Session {
		return session.New(id, server, 1, session.Fullscreen, 320, 240)
	})
	s.Grid.Set(0, 0, cellgrid.Cell{Fg: cellgrid.RGB{R: 255, G: 255, B: 255}, Bg: 0x000000FF})

	loop.iterate()

	if loop.gctx.PendingCount() != 1 {
		t.Fatalf("expected one pending frame after a drawing iteration, got %d", loop.gctx.PendingCount())
	}
	if _, ok := loop.textures.bySession[s.ID]; !ok {
		t.Fatalf("expected a texture to be tracked for session %d", s.ID)
	}
}

func TestIterateReapsRetiredSessionTexture(t *testing.T) {
	loop, manager := newTestLoop(t)
	_, server := net.Pipe()
	s := manager.Add(func(id uint64) *session.Session {
		return session.New(id, server, 1, session.Fullscreen, 320, 240)
	})
	loop.iterate()
	if _, ok := loop.textures.bySession[s.ID]; !ok {
		t.Fatalf("expected texture tracked before retirement")
	}

	s.Close()
	loop.iterate()

	if _, ok := loop.textures.bySession[s.ID]; ok {
		t.Fatalf("expected texture dropped after session retirement")
	}
}

func TestIterateIdlesWhenNoSessions(t *testing.T) {
	loop, _ := newTestLoop(t)
	loop.iterate()
	if loop.gctx.PendingCount() != 0 {
		t.Fatalf("expected no pending frame with nothing to draw, got %d", loop.gctx.PendingCount())
	}
}

func TestWallpaperCacheSkipsReloadOnUnchangedPath(t *testing.T) {
	w := &wallpaperCache{}
	_, err := w.texture("")
	if err != nil {
		t.Fatalf("expected empty path to be a no-op, got %v", err)
	}
	if w.buf != nil {
		t.Fatalf("expected nil buffer for empty wallpaper path")
	}
}
