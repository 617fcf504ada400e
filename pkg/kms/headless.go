package kms

import (
	"fmt"
	"log/slog"
	"sync"
)

// headlessAdapter is the synthetic fallback used when no real DRM device
// is available (spec.md §4.1 "Device discovery failure", §8 "headless
// mode"). It fabricates a single virtual connector/encoder/controller/
// plane chain that always reports success, so pkg/render and pkg/session
// never need to know whether they're driving real hardware.
type headlessAdapter struct {
	logger *slog.Logger

	connector  *Connector
	encoder    *Encoder
	controller *Controller

	mu      sync.Mutex
	nextFB  uint32
	fbs     map[uint32]*Framebuffer
}

// standardModeLadder is the descending fallback resolution list spec.md
// §4.1 requires the headless adapter to synthesize alongside the
// caller-requested (or default) preferred mode.
var standardModeLadder = []Mode{
	{Width: 1920, Height: 1080, Refresh: 60, Name: "1920x1080"},
	{Width: 1600, Height: 900, Refresh: 60, Name: "1600x900"},
	{Width: 1280, Height: 720, Refresh: 60, Name: "1280x720"},
	{Width: 1024, Height: 768, Refresh: 60, Name: "1024x768"},
	{Width: 800, Height: 600, Refresh: 60, Name: "800x600"},
	{Width: 640, Height: 480, Refresh: 60, Name: "640x480"},
}

// modeLadder returns standardModeLadder minus any entry matching
// (preferredW, preferredH), which already occupies index 0 as the
// connector's preferred mode.
func modeLadder(preferredW, preferredH int) []Mode {
	var out []Mode
	for _, m := range standardModeLadder {
		if m.Width == preferredW && m.Height == preferredH {
			continue
		}
		out = append(out, m)
	}
	return out
}

// NewHeadlessAdapter builds a virtual display of the given resolution.
// A width <= 0 defaults to 1920 and a height <= 0 defaults to 1080, each
// independently of the other.
func NewHeadlessAdapter(logger *slog.Logger, width, height int) Adapter {
	if width <= 0 {
		width = 1920
	}
	if height <= 0 {
		height = 1080
	}
	mode := Mode{Width: width, Height: height, Refresh: 60, Name: "virtual", Preferred: true}

	conn := &Connector{
		ID:            1,
		Type:          ConnectorVirtual,
		Status:        StatusConnected,
		Modes:         append([]Mode{mode}, modeLadder(width, height)...),
		PreferredMode: 0,
		EncoderID:     1,
		Properties: map[string]Property{
			"CRTC_ID": {ID: 104, Name: "CRTC_ID", Kind: PropObject},
		},
	}
	enc := &Encoder{ID: 1, Kind: EncoderVirtual, CompatibleCtrlMask: 1, CurrentControllerID: 1}
	plane := &Plane{
		ID: 1, Kind: PlanePrimary, Width: width, Height: height, Formats: []uint32{0},
		Properties: map[string]Property{
			"FB_ID":   {ID: 101, Name: "FB_ID", Kind: PropObject},
			"CRTC_ID": {ID: 102, Name: "CRTC_ID", Kind: PropObject},
		},
	}
	ctrl := &Controller{
		ID: 1, CurrentMode: mode, Planes: []*Plane{plane},
		Properties: map[string]Property{
			"ACTIVE": {ID: 103, Name: "ACTIVE", Kind: PropRange},
		},
	}

	return &headlessAdapter{
		logger:     logger,
		connector:  conn,
		encoder:    enc,
		controller: ctrl,
		fbs:        make(map[uint32]*Framebuffer),
	}
}

func (h *headlessAdapter) Connectors() []*Connector   { return []*Connector{h.connector} }
func (h *headlessAdapter) Controllers() []*Controller { return []*Controller{h.controller} }
func (h *headlessAdapter) Encoders() []*Encoder       { return []*Encoder{h.encoder} }
func (h *headlessAdapter) Headless() bool             { return true }

func (h *headlessAdapter) SetMode(connector *Connector, controller *Controller, mode Mode) error {
	controller.CurrentMode = mode
	return nil
}

func (h *headlessAdapter) CreateFramebuffer(width, height int) (*Framebuffer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextFB++
	fb := &Framebuffer{
		ID:     h.nextFB,
		Handle: h.nextFB,
		Width:  width,
		Height: height,
		Pitch:  width * 4,
		Pixels: make([]byte, width*height*4),
	}
	h.fbs[fb.ID] = fb
	return fb, nil
}

func (h *headlessAdapter) DestroyFramebuffer(fb *Framebuffer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.fbs[fb.ID]; !ok {
		return fmt.Errorf("kms: destroy unknown framebuffer %d", fb.ID)
	}
	delete(h.fbs, fb.ID)
	return nil
}

func (h *headlessAdapter) PageFlip(controller *Controller, fb *Framebuffer) error {
	controller.CurrentFB = fb.ID
	return nil
}

func (h *headlessAdapter) HandleEvents(onFlip func(controllerID uint32)) error {
	onFlip(h.controller.ID)
	return nil
}

func (h *headlessAdapter) Close() error { return nil }

// Begin starts an atomic-style commit against the synthetic resource
// graph (spec.md §4.1's begin/addProperty/commit algorithm). There is no
// real kernel transaction behind it — every staged property write is
// just applied to the in-memory Property map on Commit — but the same
// grammar callers use against real hardware works unchanged here.
func (h *headlessAdapter) Begin() AtomicRequest {
	return &headlessAtomicRequest{adapter: h}
}

func (h *headlessAdapter) propertiesOf(objectID uint32) (map[string]Property, bool) {
	if h.connector.ID == objectID {
		return h.connector.Properties, true
	}
	if h.controller.ID == objectID {
		return h.controller.Properties, true
	}
	for _, p := range h.controller.Planes {
		if p.ID == objectID {
			return p.Properties, true
		}
	}
	return nil, false
}

type headlessAtomicRequest struct {
	adapter *headlessAdapter
	pending []headlessPropWrite
}

type headlessPropWrite struct {
	props map[string]Property
	name  string
	value uint64
}

func (r *headlessAtomicRequest) AddProperty(objectID uint32, propertyName string, value uint64) error {
	props, ok := r.adapter.propertiesOf(objectID)
	if !ok {
		return fmt.Errorf("kms: unknown object %d", objectID)
	}
	if _, ok := props[propertyName]; !ok {
		return fmt.Errorf("kms: unknown property %q on object %d", propertyName, objectID)
	}
	r.pending = append(r.pending, headlessPropWrite{props: props, name: propertyName, value: value})
	return nil
}

func (r *headlessAtomicRequest) Commit(testOnly bool) error {
	if testOnly {
		return nil
	}
	for _, w := range r.pending {
		prop := w.props[w.name]
		prop.Value = w.value
		w.props[w.name] = prop
	}
	return nil
}
