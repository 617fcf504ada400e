package glyph

import (
	"testing"

	"github.com/ggdirect/compositor/pkg/cellgrid"
)

func TestRenderCellBackgroundOnlyForSpace(t *testing.T) {
	cache := NewCache(NewDefaultSource())
	cell := cellgrid.Cell{Fg: cellgrid.RGB{R: 255, G: 255, B: 255}, Bg: 0x000000FF}
	cell.SetRune(' ')

	pix := make([]byte, 8*16*4)
	target := Target{Pix: pix, Stride: 8 * 4, Width: 8, Height: 16}
	RenderCell(cache, cell, target, 1.0)

	for i := 0; i < len(pix); i += 4 {
		if pix[i] != 0 || pix[i+1] != 0 || pix[i+2] != 0 || pix[i+3] != 255 {
			t.Fatalf("expected every pixel to be opaque black background, got %v at %d", pix[i:i+4], i)
		}
	}
}

func TestRenderCellPaintsForegroundPixels(t *testing.T) {
	cache := NewCache(NewDefaultSource())
	cell := cellgrid.Cell{Fg: cellgrid.RGB{R: 255, G: 255, B: 255}, Bg: 0x000000FF}
	cell.SetRune('A')

	pix := make([]byte, 8*16*4)
	target := Target{Pix: pix, Stride: 8 * 4, Width: 8, Height: 16}
	RenderCell(cache, cell, target, 1.0)

	sawForeground := false
	for i := 0; i < len(pix); i += 4 {
		if pix[i] > 0 {
			sawForeground = true
			break
		}
	}
	if !sawForeground {
		t.Fatalf("expected at least one foreground pixel for 'A'")
	}
}

func TestCacheIsDeterministic(t *testing.T) {
	cache := NewCache(NewDefaultSource())
	a1, ok1 := cache.Get('A')
	a2, ok2 := cache.Get('A')
	if ok1 != ok2 || a1.Width != a2.Width || a1.Height != a2.Height {
		t.Fatalf("expected repeated Get('A') to be deterministic")
	}
	for i := range a1.Coverage {
		if a1.Coverage[i] != a2.Coverage[i] {
			t.Fatalf("coverage mismatch at %d: %d != %d", i, a1.Coverage[i], a2.Coverage[i])
		}
	}
}

func TestFrameCacheReusesIdenticalCells(t *testing.T) {
	cache := NewCache(NewDefaultSource())
	fc := NewFrameCache(8, 16)
	cell := cellgrid.Cell{Fg: cellgrid.RGB{R: 1, G: 2, B: 3}, Bg: 0x010203FF}
	cell.SetRune('Z')

	p1 := fc.Render(cache, cell, 1.0)
	p2 := fc.Render(cache, cell, 1.0)
	if &p1[0] != &p2[0] {
		t.Fatalf("expected FrameCache to return the same backing slice for an identical cell")
	}

	fc.Reset(8, 16) // same size: cache must survive
	p3 := fc.Render(cache, cell, 1.0)
	if &p1[0] != &p3[0] {
		t.Fatalf("expected Reset with unchanged size to preserve cache entries")
	}

	fc.Reset(16, 32) // size change: cache must invalidate
	p4 := fc.Render(cache, cell, 1.0)
	if len(p4) != 16*32*4 {
		t.Fatalf("expected cache to re-render at new size, got %d bytes", len(p4))
	}
}
