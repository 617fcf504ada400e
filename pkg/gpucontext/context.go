// Package gpucontext implements the GPU context of spec.md §4.2: a
// rendering surface bound to the primary controller's mode, a begin/swap
// cycle, and a FIFO of frames awaiting page-flip completion (invariant I2 —
// the queue never exceeds one entry under the render loop's discipline).
//
// The rendering surface itself is a github.com/gogpu/gg Context: its
// Pixmap is the RGBA buffer the render loop composites wallpaper and
// session quads into, copied into a DRM dumb-buffer framebuffer on every
// SwapBuffers per SPEC_FULL.md §B.
package gpucontext

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gg"

	"github.com/ggdirect/compositor/pkg/kms"
)

// ErrFlipPending is returned by SwapBuffers when the pending-frame queue
// already holds a frame awaiting flip completion — per spec.md §4.2's
// invariant, the render loop must skip the swap rather than let the queue
// grow past one entry.
var ErrFlipPending = errors.New("gpucontext: a flip is already pending")

// numBuffers is the double-buffering depth: one framebuffer can be
// in-flight for scanout while the other is being drawn into.
const numBuffers = 2

// Frame is a swapped buffer queued for presentation, returned by
// SwapBuffers and consumed by the render loop's page-flip submission.
type Frame struct {
	FB     *kms.Framebuffer
	bufIdx int
}

// Context is the GPU context: a CPU/GPU-shared drawing surface plus the
// bookkeeping spec.md §4.2 describes for swap/flip pacing.
type Context struct {
	logger  *slog.Logger
	adapter kms.Adapter

	width, height int
	canvas        *gg.Context
	buffers       [numBuffers]*kms.Framebuffer
	nextBuf       int

	pending []Frame // FIFO; len must never exceed 1 (I2)
}

// Initialize obtains a scanout-ready surface sized to mode and a rendering
// context over it (spec.md §4.2 "initialize"). It takes no pixel-format
// argument: the software canvas is always RGBA and XRGB8888 is the only
// scanout format this module ever produces.
func Initialize(logger *slog.Logger, adapter kms.Adapter, mode kms.Mode) (*Context, error) {
	if mode.Width <= 0 || mode.Height <= 0 {
		return nil, fmt.Errorf("gpucontext: mode has empty resolution %dx%d", mode.Width, mode.Height)
	}
	c := &Context{
		logger:  logger,
		adapter: adapter,
		width:   mode.Width,
		height:  mode.Height,
		canvas:  gg.NewContext(mode.Width, mode.Height),
	}
	// Prefer a GPU-accelerated pipeline when gg's backend selection finds
	// one available, falling back to its software rasterizer automatically
	// (gg's own PipelineModeAuto contract, spec.md §4.2 "prefer the higher
	// ... fall back to the next").
	c.canvas.SetPipelineMode(gg.PipelineModeAuto)
	c.canvas.SetRGB(0, 0, 0)
	c.canvas.Clear()

	for i := range c.buffers {
		fb, err := adapter.CreateFramebuffer(mode.Width, mode.Height)
		if err != nil {
			c.destroyBuffers()
			return nil, fmt.Errorf("gpucontext: allocate scanout buffer %d: %w", i, err)
		}
		c.buffers[i] = fb
	}
	logger.Info("gpu context initialized", "width", mode.Width, "height", mode.Height)
	return c, nil
}

// Width and Height are the surface's pixel dimensions.
func (c *Context) Width() int  { return c.width }
func (c *Context) Height() int { return c.height }

// Canvas returns the drawing surface the render loop composites into.
func (c *Context) Canvas() *gg.Context { return c.canvas }

// BeginFrame clears the colour buffer, per spec.md §4.2.
func (c *Context) BeginFrame(bg gg.RGBA) {
	c.canvas.ClearWithColor(bg)
}

// PendingCount reports the FIFO depth, for the render loop to enforce I2
// before calling SwapBuffers again.
func (c *Context) PendingCount() int { return len(c.pending) }

// SwapBuffers finalizes the current canvas into the next scanout
// framebuffer and pushes it onto the pending-frame queue (spec.md §4.2
// "swapBuffers"). It refuses to swap while a flip is still pending, per I2
// — the caller (the render loop) must check PendingCount itself before
// calling, and should treat ErrFlipPending as "skip this frame", not as an
// error to propagate.
func (c *Context) SwapBuffers() (Frame, error) {
	if len(c.pending) > 0 {
		return Frame{}, ErrFlipPending
	}
	fb := c.buffers[c.nextBuf]
	copyRGBAToXRGB(fb.Pixels, fb.Pitch, c.canvas.Image())

	frame := Frame{FB: fb, bufIdx: c.nextBuf}
	c.pending = append(c.pending, frame)
	c.nextBuf = (c.nextBuf + 1) % numBuffers
	return frame, nil
}

// OnPageFlipComplete pops the oldest pending frame, per spec.md §4.2 — the
// buffer it names becomes available for reuse on a future SwapBuffers.
func (c *Context) OnPageFlipComplete() {
	if len(c.pending) == 0 {
		return
	}
	c.pending = c.pending[1:]
}

// ReleaseFrame explicitly drops a frame from the pending queue on
// presentation failure (spec.md §4.2 "releaseFrame"), without waiting for
// a flip-complete event that will never arrive.
func (c *Context) ReleaseFrame(f Frame) {
	for i, p := range c.pending {
		if p.bufIdx == f.bufIdx {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// Cleanup drains the pending queue and destroys the scanout buffers
// (spec.md §4.2 "cleanup").
func (c *Context) Cleanup() error {
	c.pending = nil
	return c.destroyBuffers()
}

func (c *Context) destroyBuffers() error {
	var firstErr error
	for i, fb := range c.buffers {
		if fb == nil {
			continue
		}
		if err := c.adapter.DestroyFramebuffer(fb); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("gpucontext: destroy buffer %d: %w", i, err)
		}
		c.buffers[i] = nil
	}
	return firstErr
}
