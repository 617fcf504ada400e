// Package kms implements the kernel display adapter (spec.md §4.1): DRM
// resource discovery, mode-setting, page-flip submission and event
// dispatch, atomic commits, and the headless fallback. The ioctl layer is
// adapted from the teacher's pkg/drm (helixml-helix), generalized from a
// single-purpose VM scanout lease manager into a full connector/encoder/
// controller/plane resource model.
package kms

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoUsableConnector is returned by Open when resource discovery finds
// no connector satisfying Connector.Usable (spec.md §4.1 step 2).
var ErrNoUsableConnector = errors.New("kms: no usable connector found")

// Adapter is the kernel display adapter's public surface. Real hardware
// (Adapter returned by Open) and the headless fallback (NewHeadlessAdapter)
// implement the same interface so pkg/render never branches on which one
// it holds.
type Adapter interface {
	// Connectors returns the discovered output connectors.
	Connectors() []*Connector
	// Controllers returns the discovered display pipelines.
	Controllers() []*Controller
	// Encoders returns the discovered signal encoders.
	Encoders() []*Encoder

	// SetMode binds connector to controller at mode and records mode as
	// the controller's CurrentMode. The DRM implementation issues one
	// legacy SETCRTC with the controller's currently bound framebuffer;
	// the headless one only records the mode.
	SetMode(connector *Connector, controller *Controller, mode Mode) error

	// CreateFramebuffer allocates a CPU-mapped dumb buffer of the given
	// size and wraps it in a DRM framebuffer object (spec.md §3 "Dumb
	// Buffer").
	CreateFramebuffer(width, height int) (*Framebuffer, error)
	// DestroyFramebuffer releases a framebuffer created by
	// CreateFramebuffer, observing the create/destroy balance invariant
	// (I1 in spec.md §7).
	DestroyFramebuffer(fb *Framebuffer) error

	// PageFlip submits fb for scanout on controller's next vblank. It
	// returns immediately; completion is observed via HandleEvents.
	PageFlip(controller *Controller, fb *Framebuffer) error
	// HandleEvents drains pending page-flip completion events without
	// blocking, invoking onFlip for each controller whose flip completed.
	HandleEvents(onFlip func(controllerID uint32)) error

	// Begin starts an atomic commit, per spec.md §4.1's
	// begin/addProperty/commit(testOnly?) algorithm. Real hardware backs
	// it with the kernel's DRM_IOCTL_MODE_ATOMIC transaction when the
	// device advertises DRM_CLIENT_CAP_ATOMIC, falling back to
	// per-object DRM_IOCTL_MODE_OBJ_SETPROPERTY calls otherwise.
	Begin() AtomicRequest

	// Headless reports whether this adapter is the synthetic fallback.
	Headless() bool

	// Close releases the adapter's underlying resources.
	Close() error
}

// AtomicRequest accumulates property changes for a single commit
// (spec.md §4.1: "begin -> addProperty(objectId, propertyName, value) ->
// commit(testOnly?)"). objectID names any connector, controller, or
// plane; propertyName is looked up against that object's Properties
// table, so an unknown name is rejected at AddProperty time rather than
// surfacing only as an opaque ioctl failure at Commit time.
type AtomicRequest interface {
	// AddProperty stages objectID's propertyName to be set to value when
	// Commit runs. Returns an error if objectID is unknown or
	// propertyName does not name one of its properties.
	AddProperty(objectID uint32, propertyName string, value uint64) error
	// Commit applies every staged property write. testOnly validates the
	// request without applying it — DRM_MODE_ATOMIC_TEST_ONLY on real
	// hardware, a pure no-op (beyond AddProperty's own validation) on the
	// legacy and headless fallbacks, since neither backs a real
	// transaction to roll back.
	Commit(testOnly bool) error
}

// Framebuffer is a CPU-mapped dumb buffer bound to a DRM framebuffer
// object (spec.md §3). Pixels is valid between CreateFramebuffer and
// DestroyFramebuffer; its backing memory is whatever the platform mapped
// (real mmap on Linux, a plain slice under headless mode).
type Framebuffer struct {
	ID     uint32
	Handle uint32
	Width  int
	Height int
	Pitch  int
	Pixels []byte
}

// Open discovers a DRM device at path and builds its connector/encoder/
// controller/plane resource graph. On any platform or device error the
// caller should fall back to NewHeadlessAdapter, per spec.md §4.1's
// "Device discovery failure" edge case.
func Open(logger *slog.Logger, path string) (Adapter, error) {
	a, err := openLinuxAdapter(logger, path)
	if err != nil {
		return nil, fmt.Errorf("kms: open %s: %w", path, err)
	}
	for _, c := range a.Connectors() {
		if c.Usable() {
			return a, nil
		}
	}
	_ = a.Close()
	return nil, fmt.Errorf("kms: open %s: %w", path, ErrNoUsableConnector)
}
