package gpucontext

import (
	"io"
	"log/slog"
	"testing"

	"github.com/gogpu/gg"

	"github.com/ggdirect/compositor/pkg/kms"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSwapBuffersRespectsPendingQueueBound(t *testing.T) {
	adapter := kms.NewHeadlessAdapter(discardLogger(), 64, 32)
	ctx, err := Initialize(discardLogger(), adapter, kms.Mode{Width: 64, Height: 32})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer ctx.Cleanup()

	ctx.BeginFrame(gg.RGBA{A: 1})
	if ctx.PendingCount() != 0 {
		t.Fatalf("expected empty pending queue before any swap")
	}

	if _, err := ctx.SwapBuffers(); err != nil {
		t.Fatalf("first SwapBuffers: %v", err)
	}
	if ctx.PendingCount() != 1 {
		t.Fatalf("expected pending queue of 1 after a swap, got %d", ctx.PendingCount())
	}

	if _, err := ctx.SwapBuffers(); err != ErrFlipPending {
		t.Fatalf("expected ErrFlipPending on a second swap while the first is outstanding, got %v", err)
	}

	ctx.OnPageFlipComplete()
	if ctx.PendingCount() != 0 {
		t.Fatalf("expected pending queue drained after OnPageFlipComplete")
	}

	if _, err := ctx.SwapBuffers(); err != nil {
		t.Fatalf("SwapBuffers after flip complete: %v", err)
	}
}

func TestReleaseFrameDropsPendingEntry(t *testing.T) {
	adapter := kms.NewHeadlessAdapter(discardLogger(), 32, 32)
	ctx, err := Initialize(discardLogger(), adapter, kms.Mode{Width: 32, Height: 32})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer ctx.Cleanup()

	frame, err := ctx.SwapBuffers()
	if err != nil {
		t.Fatalf("SwapBuffers: %v", err)
	}
	ctx.ReleaseFrame(frame)
	if ctx.PendingCount() != 0 {
		t.Fatalf("expected ReleaseFrame to drop the pending entry immediately")
	}
}
