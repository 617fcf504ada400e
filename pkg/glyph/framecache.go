package glyph

import "github.com/ggdirect/compositor/pkg/cellgrid"

// FrameCache avoids re-rasterizing identical cells within the same frame
// (spec.md §4.6 "A per-frame cell-pixel cache keyed by Cell value"). It is
// keyed by (Cell, zoom) since a zoom change invalidates every previously
// rasterized pixel rectangle.
type FrameCache struct {
	entries map[frameKey][]byte
	w, h    int // pixel dimensions every entry is rasterized at
}

type frameKey struct {
	cell cellgrid.Cell
	zoom float64
}

// NewFrameCache creates a cache for cells rendered at w x h pixels.
func NewFrameCache(w, h int) *FrameCache {
	return &FrameCache{entries: make(map[frameKey][]byte), w: w, h: h}
}

// Reset updates the expected cell pixel size, called once per frame before
// any Render calls. It clears the cache only when w or h differs from the
// current size; with an unchanged size every entry is kept.
func (f *FrameCache) Reset(w, h int) {
	if w != f.w || h != f.h {
		f.entries = make(map[frameKey][]byte)
		f.w, f.h = w, h
	}
}

// Render returns the RGBA pixels (row-major, 4 bytes/pixel, stride == w*4)
// for cell at the given zoom, rasterizing via cache on a miss.
func (f *FrameCache) Render(cache *Cache, cell cellgrid.Cell, zoom float64) []byte {
	key := frameKey{cell: cell, zoom: zoom}
	if pix, ok := f.entries[key]; ok {
		return pix
	}
	pix := make([]byte, f.w*f.h*4)
	RenderCell(cache, cell, Target{Pix: pix, Stride: f.w * 4, Width: f.w, Height: f.h}, zoom)
	f.entries[key] = pix
	return pix
}
