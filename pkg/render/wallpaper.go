package render

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/gogpu/gg"
)

// wallpaperCache re-uploads the configured wallpaper image only when its
// path changes (spec.md §4.7 step 1, "If the wallpaper path configured has
// changed since last upload, re-upload the wallpaper texture"). Decoding a
// file on disk into pixels is the kind of opaque, external collaborator
// spec.md §1 carves out of scope, so this leans on the standard image
// package's registered decoders rather than a pack library — there is no
// image-codec dependency anywhere in the corpus to ground an alternative
// on (DESIGN.md).
type wallpaperCache struct {
	path string
	buf  *gg.ImageBuf
}

// texture returns the current wallpaper buffer, decoding path if it
// differs from the last call. A decode failure logs nothing itself (the
// caller logs) and leaves the previous buffer, if any, in place.
func (w *wallpaperCache) texture(path string) (*gg.ImageBuf, error) {
	if path == w.path && (w.buf != nil || path == "") {
		return w.buf, nil
	}
	w.path = path
	if path == "" {
		w.buf = nil
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("render: open wallpaper %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("render: decode wallpaper %s: %w", path, err)
	}

	bounds := img.Bounds()
	buf, err := gg.NewImageBuf(bounds.Dx(), bounds.Dy(), gg.FormatRGBA8)
	if err != nil {
		return nil, fmt.Errorf("render: allocate wallpaper buffer: %w", err)
	}
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			_ = buf.SetRGBA(x, y, uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8))
		}
	}
	w.buf = buf
	return w.buf, nil
}
