package glyph

import (
	"github.com/ggdirect/compositor/pkg/cellgrid"
)

// Cache memoizes Source.Glyph by codepoint indefinitely, per spec.md §4.6
// ("The rasterizer caches these by codepoint indefinitely per session
// font") and invariant I5 (deterministic re-invocation). One Cache exists
// per distinct font instance — the global default font, or a session's
// CustomFont override.
type Cache struct {
	source Source
	glyphs map[rune]cachedGlyph
}

type cachedGlyph struct {
	bm Bitmap
	ok bool
}

// NewCache wraps source with an unbounded per-codepoint cache.
func NewCache(source Source) *Cache {
	return &Cache{source: source, glyphs: make(map[rune]cachedGlyph)}
}

// Get returns the glyph for r, rasterizing and caching it on first use.
func (c *Cache) Get(r rune) (Bitmap, bool) {
	if g, ok := c.glyphs[r]; ok {
		return g.bm, g.ok
	}
	bm, ok := c.source.Glyph(r)
	c.glyphs[r] = cachedGlyph{bm: bm, ok: ok}
	return bm, ok
}

// Target is the pixel area a single cell renders into: a zoom-scaled
// rectangle of a destination RGBA buffer, addressed row-major with Stride
// bytes per row (4 bytes per pixel, matching image.RGBA's Pix layout so
// callers can hand this a sub-slice of a gg.Pixmap-backed buffer).
type Target struct {
	Pix           []byte
	Stride        int
	Width, Height int // in pixels, the scaled cell's on-screen size
}

func (t Target) at(x, y int) int { return y*t.Stride + x*4 }

func (t Target) setPixel(x, y int, r, g, b, a uint8) {
	if x < 0 || y < 0 || x >= t.Width || y >= t.Height {
		return
	}
	i := t.at(x, y)
	t.Pix[i+0] = r
	t.Pix[i+1] = g
	t.Pix[i+2] = b
	t.Pix[i+3] = a
}

// RenderCell implements the per-cell rasterization algorithm of spec.md
// §4.6 step 1-5: fill background, decode the codepoint, fetch/scale the
// glyph, center it, and alpha-blend foreground over background.
func RenderCell(cache *Cache, cell cellgrid.Cell, target Target, zoom float64) {
	bgR, bgG, bgB, bgA := cell.BgRGBA()
	for y := 0; y < target.Height; y++ {
		for x := 0; x < target.Width; x++ {
			target.setPixel(x, y, bgR, bgG, bgB, bgA)
		}
	}

	r := cell.Rune()
	if r == 0 || r == ' ' {
		return
	}
	if cache == nil {
		return
	}
	g, ok := cache.Get(r)
	if !ok || g.Width == 0 || g.Height == 0 {
		return
	}

	scaledW := int(float64(g.Width) * zoom)
	scaledH := int(float64(g.Height) * zoom)
	if scaledW <= 0 || scaledH <= 0 {
		return
	}

	// Horizontally centered in the cell; the glyph's top row sits at
	// cellHeight*0.8 - bearingY*zoom, which puts its baseline at
	// cellHeight*0.8 (spec.md §4.6 step 4).
	originX := (target.Width - scaledW) / 2
	originY := int(float64(target.Height)*0.8 - float64(g.BearingY)*zoom)

	for dy := 0; dy < scaledH; dy++ {
		dstY := originY + dy
		if dstY < 0 || dstY >= target.Height {
			continue
		}
		srcY := int(float64(dy) / zoom)
		if srcY >= g.Height {
			srcY = g.Height - 1
		}
		for dx := 0; dx < scaledW; dx++ {
			dstX := originX + dx
			if dstX < 0 || dstX >= target.Width {
				continue
			}
			srcX := int(float64(dx) / zoom)
			if srcX >= g.Width {
				srcX = g.Width - 1
			}
			alpha := g.Coverage[srcY*g.Width+srcX]
			if alpha == 0 {
				continue
			}
			blendPixel(target, dstX, dstY, cell.Fg, alpha)
		}
	}
}

// blendPixel composites fg over whatever is already at (x,y) with coverage
// alpha/255, per spec.md §4.6 step 5.
func blendPixel(target Target, x, y int, fg cellgrid.RGB, alpha uint8) {
	i := target.at(x, y)
	a := float64(alpha) / 255
	target.Pix[i+0] = blendChan(target.Pix[i+0], fg.R, a)
	target.Pix[i+1] = blendChan(target.Pix[i+1], fg.G, a)
	target.Pix[i+2] = blendChan(target.Pix[i+2], fg.B, a)
	target.Pix[i+3] = 255
}

func blendChan(dst, fg uint8, a float64) uint8 {
	return uint8(float64(fg)*a + float64(dst)*(1-a))
}
