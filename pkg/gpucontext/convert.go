package gpucontext

import "image"

// copyRGBAToXRGB copies src (an RGBA image, 4 bytes/pixel, alpha-ignored)
// into dst, a CPU-mapped dumb buffer laid out as little-endian XRGB8888
// (spec.md §4.1 step 5: "pixel format XRGB8888, 32 bpp"), honouring dst's
// pitch when it differs from a tightly-packed row (the DRM ioctl layer may
// return a pitch padded for hardware alignment).
func copyRGBAToXRGB(dst []byte, pitch int, src image.Image) {
	rgba, ok := src.(*image.RGBA)
	if !ok {
		b := src.Bounds()
		rgba = image.NewRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				rgba.Set(x, y, src.At(x, y))
			}
		}
	}
	bounds := rgba.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	for y := 0; y < h; y++ {
		srcRow := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		dstOff := y * pitch
		if dstOff+w*4 > len(dst) {
			break
		}
		for x := 0; x < w; x++ {
			r := srcRow[x*4+0]
			g := srcRow[x*4+1]
			b := srcRow[x*4+2]
			// Little-endian XRGB8888: byte order in memory is B, G, R, X.
			di := dstOff + x*4
			dst[di+0] = b
			dst[di+1] = g
			dst[di+2] = r
			dst[di+3] = 0xFF
		}
	}
}
