package render

import (
	"github.com/gogpu/gg"

	"github.com/ggdirect/compositor/pkg/glyph"
)

// sessionTexture holds the per-session RGBA buffer the render loop
// rasterizes a session's cell grid into (spec.md §4.7 step 3,
// "rasterize its cell grid into its texture (creating/resizing the
// texture if the window's pixel size changed)"), plus the per-frame cell
// cache (spec.md §4.6) sized to this session's own cell pixel dimensions.
type sessionTexture struct {
	buf        *gg.ImageBuf
	pixels     []byte // backing store copied into buf.Data() each frame
	w, h       int
	frameCache *glyph.FrameCache
}

// textures tracks one sessionTexture per live session ID, dropping entries
// for sessions the manager no longer reports (spec.md §4.7 step 4, "Drop
// GPU resources for sessions that no longer exist").
type textures struct {
	bySession map[uint64]*sessionTexture
}

func newTextures() *textures {
	return &textures{bySession: make(map[uint64]*sessionTexture)}
}

// resize fetches (allocating or reallocating as needed) the texture for
// sessionID at w x h pixels.
func (t *textures) resize(sessionID uint64, w, h int) *sessionTexture {
	tx, ok := t.bySession[sessionID]
	if ok && tx.w == w && tx.h == h {
		return tx
	}
	pixels := make([]byte, w*h*4)
	buf, err := gg.NewImageBuf(w, h, gg.FormatRGBA8)
	if err != nil {
		// w/h are always > 0 by the caller's construction; this would
		// only trip on an invalid format, which is a programming error.
		buf = nil
	}
	tx = &sessionTexture{buf: buf, pixels: pixels, w: w, h: h, frameCache: glyph.NewFrameCache(0, 0)}
	t.bySession[sessionID] = tx
	return tx
}

// reap drops every tracked texture whose session ID is not in live.
func (t *textures) reap(live map[uint64]bool) {
	for id := range t.bySession {
		if !live[id] {
			delete(t.bySession, id)
		}
	}
}
