package glyph

import (
	"image"
	"image/color"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultSource is the built-in fallback glyph engine: a fixed 7x13 bitmap
// font baked into the binary via golang.org/x/image/font/basicfont. Per the
// headless font fallback chain documented in SPEC_FULL.md §C (preferred
// font -> first monospace -> first available -> soft failure), this is the
// last rung: it always has an answer (falling back to the space glyph when
// the face has no glyph for a rune), so the rasterizer never fails soft in practice unless a
// session explicitly supplies a broken CustomFont.
type DefaultSource struct {
	face *basicfont.Face
}

// NewDefaultSource builds the built-in glyph source.
func NewDefaultSource() *DefaultSource {
	return &DefaultSource{face: basicfont.Face7x13}
}

// Glyph implements Source. Unmapped runes fall back to space, matching the
// "space fallback" substitution spec.md §4.6 names explicitly.
func (s *DefaultSource) Glyph(r rune) (Bitmap, bool) {
	dr, mask, maskp, advance, ok := s.face.Glyph(fixed.Point26_6{}, r)
	if !ok {
		dr, mask, maskp, advance, ok = s.face.Glyph(fixed.Point26_6{}, ' ')
		if !ok {
			return Bitmap{}, false
		}
	}

	w := dr.Dx()
	h := dr.Dy()
	bm := Bitmap{
		Width:    w,
		Height:   h,
		Coverage: make([]uint8, w*h),
		BearingX: -dr.Min.X,
		BearingY: -dr.Min.Y,
		Advance:  int(advance) >> 6,
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			bm.Coverage[y*w+x] = sampleAlpha(mask, maskp.X+x, maskp.Y+y)
		}
	}
	return bm, true
}

func sampleAlpha(mask image.Image, x, y int) uint8 {
	if mask == nil {
		return 0
	}
	switch m := mask.(type) {
	case *image.Alpha:
		return m.AlphaAt(x, y).A
	case *image.Uniform:
		_, _, _, a := m.At(x, y).RGBA()
		return uint8(a >> 8)
	default:
		r, g, b, a := mask.At(x, y).RGBA()
		if a == 0 {
			return 0
		}
		// Non-alpha masks (rare for a bitmap font) are treated as luma.
		gray := color.GrayModel.Convert(color.RGBA64{uint16(r), uint16(g), uint16(b), uint16(a)}).(color.Gray)
		return gray.Y
	}
}
