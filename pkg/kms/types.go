// Package kms implements the kernel display adapter (spec.md §4.1): DRM
// resource discovery, mode-setting, page-flip submission and event
// dispatch, atomic commits, and the headless fallback. The ioctl layer is
// adapted from the teacher's pkg/drm (helixml-helix), generalized from a
// single-purpose VM scanout lease manager into a full connector/encoder/
// controller/plane resource model.
package kms

// ConnectorType mirrors the physical output kinds spec.md §3 names.
type ConnectorType int

const (
	ConnectorUnknown ConnectorType = iota
	ConnectorHDMI
	ConnectorDP
	ConnectorEDP
	ConnectorVGA
	ConnectorDSI
	ConnectorVirtual
)

// ConnectionStatus is whether a connector currently has a display attached.
type ConnectionStatus int

const (
	StatusUnknown ConnectionStatus = iota
	StatusConnected
	StatusDisconnected
)

// Mode is a display timing, comparable by (Width, Height, Refresh) per
// spec.md §3.
type Mode struct {
	Width, Height int
	Refresh       int // Hz
	Flags         uint32
	Name          string
	Preferred     bool
}

// Equal compares modes by (width, height, refresh) as spec.md §3 requires.
func (m Mode) Equal(o Mode) bool {
	return m.Width == o.Width && m.Height == o.Height && m.Refresh == o.Refresh
}

// PropertyKind enumerates the kinds a Property's value can take.
type PropertyKind int

const (
	PropRange PropertyKind = iota
	PropEnum
	PropBitmask
	PropBlob
	PropObject
)

// Property is a named, typed attribute attached polymorphically to
// connectors, controllers, and planes (spec.md §3, §9 "Polymorphic DRM
// objects with properties").
type Property struct {
	ID    uint32
	Name  string
	Kind  PropertyKind
	Value uint64
}

// Connector is a physical display output (spec.md §3).
type Connector struct {
	ID            uint32
	Type          ConnectorType
	Status        ConnectionStatus
	Modes         []Mode
	PreferredMode int // index into Modes, -1 if none
	EncoderID     uint32
	Properties    map[string]Property
}

// Usable reports whether this connector can be mode-set: it must be
// connected and its preferred mode must resolve to a non-empty resolution
// (spec.md §3 invariant).
func (c *Connector) Usable() bool {
	if c.Status != StatusConnected {
		return false
	}
	if c.PreferredMode < 0 || c.PreferredMode >= len(c.Modes) {
		return false
	}
	m := c.Modes[c.PreferredMode]
	return m.Width > 0 && m.Height > 0
}

// PreferredModeOrFirst returns the connector's preferred mode, falling
// back to the first mode if none is marked preferred, per spec.md §8
// "Mode selection with no preferred mode".
func (c *Connector) PreferredModeOrFirst() (Mode, bool) {
	if len(c.Modes) == 0 {
		return Mode{}, false
	}
	if c.PreferredMode >= 0 && c.PreferredMode < len(c.Modes) {
		return c.Modes[c.PreferredMode], true
	}
	return c.Modes[0], true
}

// EncoderKind is the signal-conversion kind an Encoder performs.
type EncoderKind int

const (
	EncoderNone EncoderKind = iota
	EncoderTMDS
	EncoderDisplayPort
	EncoderDSI
	EncoderVirtual
)

// Encoder converts pixel data from a Controller into a signal a Connector
// can carry (spec.md §3, GLOSSARY).
type Encoder struct {
	ID                   uint32
	Kind                 EncoderKind
	CompatibleCtrlMask   uint32 // bitmask of controller indices this encoder can drive
	CurrentControllerID  uint32
}

// PlaneKind is a hardware layer's role in scanout.
type PlaneKind int

const (
	PlanePrimary PlaneKind = iota
	PlaneCursor
	PlaneOverlay
)

// Plane is a hardware compositing layer (spec.md §3, GLOSSARY).
type Plane struct {
	ID              uint32
	Kind            PlaneKind
	X, Y            int
	Width, Height   int
	Formats         []uint32
	CurrentFB       uint32
	Properties      map[string]Property
}

// Controller is a display pipeline head (spec.md §3, GLOSSARY).
type Controller struct {
	ID          uint32
	CurrentMode Mode
	CurrentFB   uint32
	Planes      []*Plane // one primary, zero/one cursor, zero-or-more overlay
	Properties  map[string]Property
	pendingFlip bool // exactly one flip in flight per controller (§4.1)
	flipByDFU   bool // §7: page-flip submission failed once, fall back to direct FB update
}

// Primary returns the controller's primary plane, or nil if somehow absent.
func (c *Controller) Primary() *Plane {
	for _, p := range c.Planes {
		if p.Kind == PlanePrimary {
			return p
		}
	}
	return nil
}
