// Package render implements the render loop of spec.md §4.7: the single
// thread that owns every GPU and kernel mode-setting call, compositing
// the wallpaper and each session's cell grid into the scanout
// framebuffer and driving the page-flip/event-drain cycle.
package render

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gogpu/gg"

	"github.com/ggdirect/compositor/pkg/config"
	"github.com/ggdirect/compositor/pkg/glyph"
	"github.com/ggdirect/compositor/pkg/gpucontext"
	"github.com/ggdirect/compositor/pkg/kms"
	"github.com/ggdirect/compositor/pkg/session"
)

// idleSleep is the yield duration when nothing was drawn this iteration
// (spec.md §4.7 step 7).
const idleSleep = 16 * time.Millisecond

// statsInterval is how often throughput is logged (spec.md §4.7, "Log
// throughput every 5 seconds").
const statsInterval = 5 * time.Second

// Loop is the render subsystem of spec.md §4.7, bound to one GPU context,
// one display adapter/controller pair, and the shared session manager.
type Loop struct {
	logger     *slog.Logger
	adapter    kms.Adapter
	controller *kms.Controller
	gctx       *gpucontext.Context
	manager    *session.Manager
	display    *config.Display
	fonts      *glyph.Cache // the compositor's default font

	wallpaper *wallpaperCache
	textures  *textures

	shutdown atomic.Bool

	frames    uint64
	lastStats time.Time
}

// New builds a render loop over an already-initialized GPU context and a
// mode-set controller, compositing sessions tracked by manager per the
// live display config.
func New(logger *slog.Logger, adapter kms.Adapter, controller *kms.Controller, gctx *gpucontext.Context, manager *session.Manager, display *config.Display, fonts *glyph.Cache) *Loop {
	return &Loop{
		logger:     logger,
		adapter:    adapter,
		controller: controller,
		gctx:       gctx,
		manager:    manager,
		display:    display,
		fonts:      fonts,
		wallpaper:  &wallpaperCache{},
		textures:   newTextures(),
	}
}

// Shutdown sets the cooperative shutdown flag (spec.md §5).
func (l *Loop) Shutdown() { l.shutdown.Store(true) }

// Run executes the render loop until Shutdown is called. Intended to run
// on its own goroutine (spec.md §5 "Render thread").
func (l *Loop) Run() {
	l.lastStats = time.Now()
	for !l.shutdown.Load() {
		l.iterate()
	}
	if err := l.gctx.Cleanup(); err != nil {
		l.logger.Warn("render: cleanup failed", "err", err)
	}
}

// iterate runs the seven numbered steps of spec.md §4.7.
func (l *Loop) iterate() {
	bgR, bgG, bgB, wallpaperChanged := l.refreshWallpaper()

	l.gctx.BeginFrame(gg.RGBA{R: float64(bgR) / 255, G: float64(bgG) / 255, B: float64(bgB) / 255, A: 1})

	drewAny := false
	if l.wallpaper.buf != nil {
		l.drawWallpaper()
		drewAny = true
	}
	if l.compositeSessions() {
		drewAny = true
	}

	_ = l.adapter.HandleEvents(func(controllerID uint32) {
		if l.controller != nil && controllerID == l.controller.ID {
			l.gctx.OnPageFlipComplete()
		}
	})

	if drewAny || wallpaperChanged {
		l.present()
	} else {
		time.Sleep(idleSleep)
	}

	l.frames++
	l.logStats()
}

// refreshWallpaper re-decodes the configured wallpaper image if its path
// changed since the last iteration (step 1), and returns the background
// colour to clear to (step 2).
func (l *Loop) refreshWallpaper() (r, g, b uint8, changed bool) {
	prevBuf := l.wallpaper.buf
	buf, err := l.wallpaper.texture(l.display.WallpaperPath)
	if err != nil {
		l.logger.Warn("render: wallpaper reload failed", "path", l.display.WallpaperPath, "err", err)
	}
	changed = buf != prevBuf

	r, g, b, parseErr := config.ParseHexColor(l.display.BackgroundColor)
	if parseErr != nil {
		r, g, b = 0, 0, 0
	}
	return r, g, b, changed
}

func (l *Loop) drawWallpaper() {
	canvas := l.gctx.Canvas()
	canvas.DrawImageEx(l.wallpaper.buf, gg.DrawImageOptions{
		DstWidth:      float64(l.gctx.Width()),
		DstHeight:     float64(l.gctx.Height()),
		Interpolation: gg.InterpNearest,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	})
}

// compositeSessions implements step 3: sort by z-order, poll, rasterize,
// and draw each live session's quad; and step 4, dropping textures for
// sessions the manager no longer reports.
func (l *Loop) compositeSessions() bool {
	drew := false
	live := make(map[uint64]bool)

	l.manager.With(func(sessions []*session.Session) {
		ordered := append([]*session.Session(nil), sessions...)
		sortByZ(ordered)

		displayW, displayH := l.gctx.Width(), l.gctx.Height()
		for _, s := range ordered {
			live[s.ID] = true
			if err := s.Poll(displayW, displayH); err != nil {
				l.logger.Debug("render: session poll failed", "session", s.ID, "err", err)
			}
			if l.drawSession(s, displayW, displayH) {
				drew = true
			}
		}
	})

	removed := l.manager.RemoveRetired()
	for _, s := range removed {
		delete(live, s.ID)
	}
	l.textures.reap(live)
	return drew
}

func (l *Loop) drawSession(s *session.Session, displayW, displayH int) bool {
	x, y, w, h := s.Preset.Rect(displayW, displayH)
	if w <= 0 || h <= 0 {
		return false
	}

	tx := l.textures.resize(s.ID, w, h)
	if tx.buf == nil {
		return false
	}

	fonts := l.fonts
	if s.CustomFont != nil {
		fonts = s.CustomFont
	}
	l.rasterizeGrid(s, fonts, tx)
	copy(tx.buf.Data(), tx.pixels)

	l.gctx.Canvas().DrawImageEx(tx.buf, gg.DrawImageOptions{
		X:             float64(x),
		Y:             float64(y),
		DstWidth:      float64(w),
		DstHeight:     float64(h),
		Interpolation: gg.InterpNearest,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	})
	return true
}

// rasterizeGrid fills tx.pixels with the session's current cell grid
// rendered cell-by-cell via the glyph rasterizer (spec.md §4.6), at the
// session's own cell pixel size.
func (l *Loop) rasterizeGrid(s *session.Session, fonts *glyph.Cache, tx *sessionTexture) {
	cols, rows := s.Grid.Width(), s.Grid.Height()
	if cols == 0 || rows == 0 {
		return
	}
	cw, ch := session.CellPixelSize(s.Zoom)
	tx.frameCache.Reset(cw, ch)

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cell := s.Grid.At(col, row)
			pix := tx.frameCache.Render(fonts, cell, s.Zoom)
			l.blitCell(tx, pix, col*cw, row*ch, cw, ch)
		}
	}
}

func (l *Loop) blitCell(tx *sessionTexture, src []byte, originX, originY, cw, ch int) {
	dstStride := tx.w * 4
	for y := 0; y < ch; y++ {
		dstY := originY + y
		if dstY < 0 || dstY >= tx.h {
			continue
		}
		srcOff := y * cw * 4
		dstOff := dstY*dstStride + originX*4
		width := cw * 4
		if originX < 0 || originX+cw > tx.w {
			// Clip a partial cell at the texture's right/bottom edge
			// rather than writing out of bounds.
			for x := 0; x < cw; x++ {
				dstX := originX + x
				if dstX < 0 || dstX >= tx.w {
					continue
				}
				copy(tx.pixels[dstY*dstStride+dstX*4:], src[y*cw*4+x*4:y*cw*4+x*4+4])
			}
			continue
		}
		copy(tx.pixels[dstOff:dstOff+width], src[srcOff:srcOff+width])
	}
}

// present implements steps 6-7's success path: swap and submit a flip,
// releasing the frame immediately if submission fails.
func (l *Loop) present() {
	if l.gctx.PendingCount() > 0 {
		return
	}
	frame, err := l.gctx.SwapBuffers()
	if err != nil {
		return
	}
	if l.controller == nil {
		l.gctx.ReleaseFrame(frame)
		return
	}
	if err := l.adapter.PageFlip(l.controller, frame.FB); err != nil {
		l.logger.Warn("render: page flip submission failed", "err", err)
		l.gctx.ReleaseFrame(frame)
	}
}

func (l *Loop) logStats() {
	now := time.Now()
	elapsed := now.Sub(l.lastStats)
	if elapsed < statsInterval {
		return
	}
	l.logger.Info("render: throughput", "frames", l.frames, "elapsed", elapsed)
	l.frames = 0
	l.lastStats = now
}

// sortByZ orders sessions by preset.Z() ascending (spec.md §4.7 step 3),
// stable so same-Z sessions keep their manager order.
func sortByZ(sessions []*session.Session) {
	for i := 1; i < len(sessions); i++ {
		for j := i; j > 0 && sessions[j].Preset.Z() < sessions[j-1].Preset.Z(); j-- {
			sessions[j], sessions[j-1] = sessions[j-1], sessions[j]
		}
	}
}
