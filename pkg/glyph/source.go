// Package glyph implements the glyph/cell rasterizer of spec.md §4.6: an
// on-demand glyph cache keyed by codepoint, and per-cell compositing of
// foreground over background with alpha coverage. The real font engine is
// an opaque external collaborator per spec.md §1; Source is the boundary
// this package depends on, and DefaultSource is the minimal in-repo stand-in
// described in SPEC_FULL.md §B, built on golang.org/x/image/font/basicfont
// so the rasterizer is exercised end to end without a real font file.
package glyph

// Bitmap is an 8-bit coverage bitmap for one glyph, plus the metrics the
// rasterizer needs to place it inside a cell (spec.md §4.6 step 3-4).
type Bitmap struct {
	Width, Height      int
	Coverage           []uint8 // row-major, len == Width*Height, one byte per pixel
	BearingX, BearingY int     // horizontal/vertical bearing in pixels
	Advance            int     // pixel advance, unused by the fixed-cell rasterizer but part of the contract
}

// Source is the external glyph engine's contract: render a codepoint to an
// 8-bit coverage bitmap with metrics, substituting internally for glyphs it
// doesn't have (spec.md §4.6 "the glyph source ... is responsible for
// substitution").
type Source interface {
	Glyph(r rune) (Bitmap, bool)
}
