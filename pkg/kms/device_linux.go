//go:build linux

package kms

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DRM_MODE_OBJECT_* values, used by OBJ_GETPROPERTIES to say which kind of
// object a given ID names. These are fixed ABI constants from the kernel's
// <drm/drm_mode.h>, not something this adapter gets to choose.
const (
	objTypeCRTC      = 0xcccccccc
	objTypeConnector = 0xc0c0c0c0
	objTypeEncoder   = 0xe0e0e0e0
	objTypePlane     = 0xeeeeeeee
)

type linuxAdapter struct {
	logger *slog.Logger
	file   *os.File
	atomic bool

	connectors  []*Connector
	encoders    []*Encoder
	controllers []*Controller

	mu  sync.Mutex
	fbs map[uint32][]byte // framebuffer id -> mmap'd pixel buffer
}

func openLinuxAdapter(logger *slog.Logger, path string) (*linuxAdapter, error) {
	f, err := openDRMDevice(path)
	if err != nil {
		return nil, err
	}
	a := &linuxAdapter{logger: logger, file: f, fbs: make(map[uint32][]byte)}
	_ = setClientCap(f, drmClientCapUniversalPlanes, 1)
	a.atomic = supportsAtomic(f)

	if err := a.discover(); err != nil {
		f.Close()
		return nil, err
	}
	return a, nil
}

func (a *linuxAdapter) discover() error {
	var res drmModeCardRes
	if err := ioctl(a.file.Fd(), ioctlModeGetResources, uintptr(unsafe.Pointer(&res))); err != nil {
		return fmt.Errorf("GETRESOURCES (counts): %w", err)
	}

	connIDs := make([]uint32, res.CountConnectors)
	encIDs := make([]uint32, res.CountEncoders)
	crtcIDs := make([]uint32, res.CountCrtcs)
	if len(connIDs) > 0 {
		res.ConnectorIDPtr = uint64(uintptr(unsafe.Pointer(&connIDs[0])))
	}
	if len(encIDs) > 0 {
		res.EncoderIDPtr = uint64(uintptr(unsafe.Pointer(&encIDs[0])))
	}
	if len(crtcIDs) > 0 {
		res.CrtcIDPtr = uint64(uintptr(unsafe.Pointer(&crtcIDs[0])))
	}
	if err := ioctl(a.file.Fd(), ioctlModeGetResources, uintptr(unsafe.Pointer(&res))); err != nil {
		return fmt.Errorf("GETRESOURCES (ids): %w", err)
	}

	for _, id := range encIDs {
		enc, err := a.loadEncoder(id)
		if err != nil {
			a.logger.Warn("kms: skipping encoder", "id", id, "err", err)
			continue
		}
		a.encoders = append(a.encoders, enc)
	}
	for _, id := range crtcIDs {
		ctrl, err := a.loadController(id)
		if err != nil {
			a.logger.Warn("kms: skipping controller", "id", id, "err", err)
			continue
		}
		a.controllers = append(a.controllers, ctrl)
	}
	for _, id := range connIDs {
		conn, err := a.loadConnector(id)
		if err != nil {
			a.logger.Warn("kms: skipping connector", "id", id, "err", err)
			continue
		}
		a.connectors = append(a.connectors, conn)
	}
	return nil
}

func (a *linuxAdapter) loadConnector(id uint32) (*Connector, error) {
	var gc drmModeGetConnector
	gc.ConnectorID = id
	if err := ioctl(a.file.Fd(), ioctlModeGetConnector, uintptr(unsafe.Pointer(&gc))); err != nil {
		return nil, fmt.Errorf("GETCONNECTOR (counts): %w", err)
	}

	modes := make([]drmModeModeInfo, gc.CountModes)
	encIDs := make([]uint32, gc.CountEncoders)
	if len(modes) > 0 {
		gc.ModesPtr = uint64(uintptr(unsafe.Pointer(&modes[0])))
	}
	if len(encIDs) > 0 {
		gc.EncodersPtr = uint64(uintptr(unsafe.Pointer(&encIDs[0])))
	}
	gc.CountProps = 0
	if err := ioctl(a.file.Fd(), ioctlModeGetConnector, uintptr(unsafe.Pointer(&gc))); err != nil {
		return nil, fmt.Errorf("GETCONNECTOR (modes): %w", err)
	}

	conn := &Connector{
		ID:            id,
		Type:          connectorTypeOf(gc.ConnectorType),
		Status:        connectionStatusOf(gc.Connection),
		PreferredMode: -1,
		EncoderID:     gc.EncoderID,
	}
	for i, m := range modes {
		mode := Mode{
			Width:     int(m.Hdisplay),
			Height:    int(m.Vdisplay),
			Refresh:   int(m.Vrefresh),
			Flags:     m.Flags,
			Name:      cString(m.Name[:]),
			Preferred: m.Type&(1<<3) != 0, // DRM_MODE_TYPE_PREFERRED
		}
		if mode.Preferred && conn.PreferredMode < 0 {
			conn.PreferredMode = i
		}
		conn.Modes = append(conn.Modes, mode)
	}

	props, err := a.loadProperties(id, objTypeConnector)
	if err != nil {
		a.logger.Warn("kms: connector properties unavailable", "id", id, "err", err)
	}
	conn.Properties = props
	return conn, nil
}

func (a *linuxAdapter) loadEncoder(id uint32) (*Encoder, error) {
	var ge drmModeGetEncoder
	ge.EncoderID = id
	if err := ioctl(a.file.Fd(), ioctlModeGetEncoder, uintptr(unsafe.Pointer(&ge))); err != nil {
		return nil, fmt.Errorf("GETENCODER: %w", err)
	}
	return &Encoder{
		ID:                  id,
		Kind:                encoderKindOf(ge.EncoderType),
		CompatibleCtrlMask:  ge.PossibleCrtcs,
		CurrentControllerID: ge.CrtcID,
	}, nil
}

func (a *linuxAdapter) loadController(id uint32) (*Controller, error) {
	var gc drmModeCrtc
	gc.CrtcID = id
	if err := ioctl(a.file.Fd(), ioctlModeGetCrtc, uintptr(unsafe.Pointer(&gc))); err != nil {
		return nil, fmt.Errorf("GETCRTC: %w", err)
	}
	ctrl := &Controller{ID: id, CurrentFB: gc.FbID}
	if gc.ModeValid != 0 {
		ctrl.CurrentMode = Mode{
			Width:   int(gc.Mode.Hdisplay),
			Height:  int(gc.Mode.Vdisplay),
			Refresh: int(gc.Mode.Vrefresh),
			Flags:   gc.Mode.Flags,
			Name:    cString(gc.Mode.Name[:]),
		}
	}
	props, err := a.loadProperties(id, objTypeCRTC)
	if err != nil {
		a.logger.Warn("kms: controller properties unavailable", "id", id, "err", err)
	}
	ctrl.Properties = props

	planes, err := a.loadPlanesFor(id)
	if err != nil {
		a.logger.Warn("kms: plane enumeration failed", "crtc", id, "err", err)
	}
	ctrl.Planes = planes
	return ctrl, nil
}

// loadPlanesFor enumerates every plane the device reports and returns all
// of them; PossibleCrtcs (a bitmask over CRTC index, not ID, mirroring the
// kernel's own convention) is recorded on each plane but not consulted
// here, so every controller's Planes list holds every plane.
func (a *linuxAdapter) loadPlanesFor(crtcID uint32) ([]*Plane, error) {
	var res drmModeGetPlaneRes
	if err := ioctl(a.file.Fd(), ioctlModeGetPlaneRes, uintptr(unsafe.Pointer(&res))); err != nil {
		return nil, fmt.Errorf("GETPLANERESOURCES (count): %w", err)
	}
	ids := make([]uint32, res.CountPlanes)
	if len(ids) > 0 {
		res.PlaneIDPtr = uint64(uintptr(unsafe.Pointer(&ids[0])))
	}
	if err := ioctl(a.file.Fd(), ioctlModeGetPlaneRes, uintptr(unsafe.Pointer(&res))); err != nil {
		return nil, fmt.Errorf("GETPLANERESOURCES (ids): %w", err)
	}

	var out []*Plane
	for _, id := range ids {
		var gp drmModeGetPlane
		gp.PlaneID = id
		if err := ioctl(a.file.Fd(), ioctlModeGetPlane, uintptr(unsafe.Pointer(&gp))); err != nil {
			continue
		}
		props, _ := a.loadProperties(id, objTypePlane)
		kind := PlaneOverlay
		if pt, ok := props["type"]; ok {
			switch pt.Value {
			case 0:
				kind = PlaneOverlay
			case 1:
				kind = PlanePrimary
			case 2:
				kind = PlaneCursor
			}
		} else if gp.CrtcID == crtcID {
			kind = PlanePrimary
		}
		out = append(out, &Plane{
			ID:         id,
			Kind:       kind,
			CurrentFB:  gp.FbID,
			Properties: props,
		})
	}
	return out, nil
}

func (a *linuxAdapter) loadProperties(objID uint32, objType uint32) (map[string]Property, error) {
	var gp drmModeObjGetProperties
	gp.ObjID = objID
	gp.ObjType = objType
	if err := ioctl(a.file.Fd(), ioctlModeObjGetProps, uintptr(unsafe.Pointer(&gp))); err != nil {
		return nil, fmt.Errorf("OBJ_GETPROPERTIES (count): %w", err)
	}
	propIDs := make([]uint32, gp.CountProps)
	values := make([]uint64, gp.CountProps)
	if len(propIDs) > 0 {
		gp.PropsPtr = uint64(uintptr(unsafe.Pointer(&propIDs[0])))
		gp.PropValuesPtr = uint64(uintptr(unsafe.Pointer(&values[0])))
	}
	if err := ioctl(a.file.Fd(), ioctlModeObjGetProps, uintptr(unsafe.Pointer(&gp))); err != nil {
		return nil, fmt.Errorf("OBJ_GETPROPERTIES (values): %w", err)
	}

	out := make(map[string]Property, len(propIDs))
	for i, id := range propIDs {
		var prop drmModeGetProperty
		prop.PropID = id
		if err := ioctl(a.file.Fd(), ioctlModeGetProperty, uintptr(unsafe.Pointer(&prop))); err != nil {
			continue
		}
		name := cString(prop.Name[:])
		out[name] = Property{
			ID:    id,
			Name:  name,
			Kind:  propertyKindOf(prop.Flags),
			Value: values[i],
		}
	}
	return out, nil
}

func (a *linuxAdapter) Connectors() []*Connector   { return a.connectors }
func (a *linuxAdapter) Controllers() []*Controller { return a.controllers }
func (a *linuxAdapter) Encoders() []*Encoder        { return a.encoders }
func (a *linuxAdapter) Headless() bool              { return false }

// SetMode issues one legacy SETCRTC binding connector to controller at
// mode, reusing the controller's currently bound framebuffer (CurrentFB),
// and records mode as CurrentMode on success. It does not check the
// connector's connection status, look mode up in the connector's mode
// list, resolve an encoder, allocate a framebuffer of its own, or read the
// controller back afterwards.
func (a *linuxAdapter) SetMode(connector *Connector, controller *Controller, mode Mode) error {
	if connector == nil || controller == nil {
		return fmt.Errorf("kms: SetMode requires a connector and controller")
	}
	mi := toModeInfo(mode)
	var crtc drmModeCrtc
	crtc.CrtcID = controller.ID
	crtc.FbID = controller.CurrentFB
	crtc.CountConnectors = 1
	connID := connector.ID
	crtc.SetConnectorsPtr = uint64(uintptr(unsafe.Pointer(&connID)))
	crtc.Mode = mi
	crtc.ModeValid = 1

	if err := ioctl(a.file.Fd(), ioctlModeSetCrtc, uintptr(unsafe.Pointer(&crtc))); err != nil {
		return fmt.Errorf("SETCRTC: %w", err)
	}
	controller.CurrentMode = mode
	return nil
}

func (a *linuxAdapter) CreateFramebuffer(width, height int) (*Framebuffer, error) {
	create := drmModeCreateDumb{Width: uint32(width), Height: uint32(height), Bpp: 32}
	if err := ioctl(a.file.Fd(), ioctlModeCreateDumb, uintptr(unsafe.Pointer(&create))); err != nil {
		return nil, fmt.Errorf("CREATE_DUMB: %w", err)
	}

	addFB := drmModeFbCmd{
		Width:  create.Width,
		Height: create.Height,
		Pitch:  create.Pitch,
		Bpp:    32,
		Depth:  24,
		Handle: create.Handle,
	}
	if err := ioctl(a.file.Fd(), ioctlModeAddFb, uintptr(unsafe.Pointer(&addFB))); err != nil {
		a.destroyDumb(create.Handle)
		return nil, fmt.Errorf("ADDFB: %w", err)
	}

	mapReq := drmModeMapDumb{Handle: create.Handle}
	if err := ioctl(a.file.Fd(), ioctlModeMapDumb, uintptr(unsafe.Pointer(&mapReq))); err != nil {
		a.removeFB(addFB.FbID)
		a.destroyDumb(create.Handle)
		return nil, fmt.Errorf("MAP_DUMB: %w", err)
	}
	mem, err := unix.Mmap(int(a.file.Fd()), int64(mapReq.Offset), int(create.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		a.removeFB(addFB.FbID)
		a.destroyDumb(create.Handle)
		return nil, fmt.Errorf("mmap dumb buffer: %w", err)
	}

	a.mu.Lock()
	a.fbs[addFB.FbID] = mem
	a.mu.Unlock()

	return &Framebuffer{
		ID:     addFB.FbID,
		Handle: create.Handle,
		Width:  width,
		Height: height,
		Pitch:  int(create.Pitch),
		Pixels: mem,
	}, nil
}

func (a *linuxAdapter) DestroyFramebuffer(fb *Framebuffer) error {
	a.mu.Lock()
	mem, ok := a.fbs[fb.ID]
	delete(a.fbs, fb.ID)
	a.mu.Unlock()
	if ok {
		_ = unix.Munmap(mem)
	}
	if err := a.removeFB(fb.ID); err != nil {
		return err
	}
	return a.destroyDumb(fb.Handle)
}

func (a *linuxAdapter) removeFB(id uint32) error {
	return ioctl(a.file.Fd(), ioctlModeRmFb, uintptr(unsafe.Pointer(&id)))
}

func (a *linuxAdapter) destroyDumb(handle uint32) error {
	d := drmModeDestroyDumb{Handle: handle}
	return ioctl(a.file.Fd(), ioctlModeDestroyDumb, uintptr(unsafe.Pointer(&d)))
}

// PageFlip submits fb for scanout at the next vblank. When the device
// supports atomic commits it submits an atomic FB_ID/CRTC_ID property
// change on the controller's primary plane (spec.md §4.1's atomic-commit
// algorithm); otherwise, or if the atomic commit itself fails, it falls
// back to the legacy page-flip ioctl, and if the controller has already
// fallen back further (flipByDFU, spec.md §7) a synchronous SETCRTC
// update — the same "simpler than flip events" strategy the teacher's
// drm-flipper uses when event delivery is unreliable.
func (a *linuxAdapter) PageFlip(controller *Controller, fb *Framebuffer) error {
	if controller.flipByDFU {
		controller.CurrentFB = fb.ID
		crtc := drmModeCrtc{CrtcID: controller.ID, FbID: fb.ID}
		return ioctl(a.file.Fd(), ioctlModeSetCrtc, uintptr(unsafe.Pointer(&crtc)))
	}
	if controller.pendingFlip {
		return fmt.Errorf("kms: controller %d already has a page flip in flight", controller.ID)
	}

	if a.atomic {
		if err := a.atomicPageFlip(controller, fb); err != nil {
			a.logger.Warn("kms: atomic page flip failed, falling back to legacy ioctl", "controller", controller.ID, "err", err)
		} else {
			controller.pendingFlip = true
			return nil
		}
	}

	flip := drmModePageFlip{CrtcID: controller.ID, FbID: fb.ID, Flags: drmModePageFlipEvent}
	if err := ioctl(a.file.Fd(), ioctlModePageFlip, uintptr(unsafe.Pointer(&flip))); err != nil {
		a.logger.Warn("kms: page flip failed, falling back to direct FB update", "controller", controller.ID, "err", err)
		controller.flipByDFU = true
		controller.CurrentFB = fb.ID
		crtc := drmModeCrtc{CrtcID: controller.ID, FbID: fb.ID}
		return ioctl(a.file.Fd(), ioctlModeSetCrtc, uintptr(unsafe.Pointer(&crtc)))
	}
	controller.pendingFlip = true
	return nil
}

// atomicPageFlip stages the primary plane's FB_ID/CRTC_ID properties and
// commits them in one DRM_IOCTL_MODE_ATOMIC transaction, non-blocking
// with DRM_MODE_PAGE_FLIP_EVENT set so completion still arrives through
// HandleEvents exactly like the legacy page-flip ioctl's event.
func (a *linuxAdapter) atomicPageFlip(controller *Controller, fb *Framebuffer) error {
	plane := controller.Primary()
	if plane == nil {
		return fmt.Errorf("kms: controller %d has no primary plane for atomic commit", controller.ID)
	}
	req := a.Begin()
	if err := req.AddProperty(plane.ID, "FB_ID", uint64(fb.ID)); err != nil {
		return err
	}
	if err := req.AddProperty(plane.ID, "CRTC_ID", uint64(controller.ID)); err != nil {
		return err
	}
	return req.Commit(false)
}

// Begin implements spec.md §4.1's atomic-commit entry point: a real
// DRM_IOCTL_MODE_ATOMIC transaction when the device advertised
// DRM_CLIENT_CAP_ATOMIC support at open time, otherwise the legacy
// per-object DRM_IOCTL_MODE_OBJ_SETPROPERTY fallback the spec calls for.
func (a *linuxAdapter) Begin() AtomicRequest {
	if a.atomic {
		return &atomicCommit{adapter: a, byObj: make(map[uint32]*atomicObjProps)}
	}
	return &legacyCommit{adapter: a}
}

// propertiesAndTypeOf finds objectID among this adapter's connectors,
// controllers, and planes, returning its Properties table and the
// DRM_MODE_OBJECT_* type OBJ_SETPROPERTY needs to address it.
func (a *linuxAdapter) propertiesAndTypeOf(objectID uint32) (map[string]Property, uint32, bool) {
	for _, c := range a.connectors {
		if c.ID == objectID {
			return c.Properties, objTypeConnector, true
		}
	}
	for _, c := range a.controllers {
		if c.ID == objectID {
			return c.Properties, objTypeCRTC, true
		}
		for _, p := range c.Planes {
			if p.ID == objectID {
				return p.Properties, objTypePlane, true
			}
		}
	}
	return nil, 0, false
}

// atomicObjProps accumulates one object's staged property IDs/values, in
// AddProperty call order, ahead of being flattened into the atomic
// ioctl's per-object-grouped arrays at Commit time.
type atomicObjProps struct {
	propIDs []uint32
	values  []uint64
}

// atomicCommit is the real DRM_IOCTL_MODE_ATOMIC-backed AtomicRequest.
type atomicCommit struct {
	adapter *linuxAdapter
	order   []uint32 // object IDs in first-seen order
	byObj   map[uint32]*atomicObjProps
}

func (r *atomicCommit) AddProperty(objectID uint32, propertyName string, value uint64) error {
	props, _, ok := r.adapter.propertiesAndTypeOf(objectID)
	if !ok {
		return fmt.Errorf("kms: unknown object %d", objectID)
	}
	prop, ok := props[propertyName]
	if !ok {
		return fmt.Errorf("kms: unknown property %q on object %d", propertyName, objectID)
	}
	entry, exists := r.byObj[objectID]
	if !exists {
		entry = &atomicObjProps{}
		r.byObj[objectID] = entry
		r.order = append(r.order, objectID)
	}
	entry.propIDs = append(entry.propIDs, prop.ID)
	entry.values = append(entry.values, value)
	return nil
}

// Commit flattens the staged per-object property lists into the
// DRM_IOCTL_MODE_ATOMIC ABI's grouped arrays (objs_ptr, one entry per
// object; count_props_ptr, how many of props_ptr/prop_values_ptr belong
// to each) and issues the transaction in one ioctl.
func (r *atomicCommit) Commit(testOnly bool) error {
	if len(r.order) == 0 {
		return nil
	}
	counts := make([]uint32, len(r.order))
	var propIDs []uint32
	var values []uint64
	for i, objID := range r.order {
		e := r.byObj[objID]
		counts[i] = uint32(len(e.propIDs))
		propIDs = append(propIDs, e.propIDs...)
		values = append(values, e.values...)
	}

	flags := drmModeAtomicNonblock | drmModePageFlipEvent
	if testOnly {
		flags = drmModeAtomicTestOnly
	}
	atomic := drmModeAtomic{
		Flags:         uint32(flags),
		CountObjs:     uint32(len(r.order)),
		ObjsPtr:       uint64(uintptr(unsafe.Pointer(&r.order[0]))),
		CountPropsPtr: uint64(uintptr(unsafe.Pointer(&counts[0]))),
		PropsPtr:      uint64(uintptr(unsafe.Pointer(&propIDs[0]))),
		PropValuesPtr: uint64(uintptr(unsafe.Pointer(&values[0]))),
	}
	if err := ioctl(r.adapter.file.Fd(), ioctlModeAtomic, uintptr(unsafe.Pointer(&atomic))); err != nil {
		return fmt.Errorf("MODE_ATOMIC: %w", err)
	}
	return nil
}

// legacyCommit is the AtomicRequest fallback for devices without
// DRM_CLIENT_CAP_ATOMIC: AddProperty validates the same way, but Commit
// applies each staged write with its own DRM_IOCTL_MODE_OBJ_SETPROPERTY
// call instead of one transaction.
type legacyCommit struct {
	adapter *linuxAdapter
	pending []legacyPropWrite
}

type legacyPropWrite struct {
	objID, objType, propID uint32
	value                  uint64
}

func (r *legacyCommit) AddProperty(objectID uint32, propertyName string, value uint64) error {
	props, objType, ok := r.adapter.propertiesAndTypeOf(objectID)
	if !ok {
		return fmt.Errorf("kms: unknown object %d", objectID)
	}
	prop, ok := props[propertyName]
	if !ok {
		return fmt.Errorf("kms: unknown property %q on object %d", propertyName, objectID)
	}
	r.pending = append(r.pending, legacyPropWrite{objID: objectID, objType: objType, propID: prop.ID, value: value})
	return nil
}

// Commit applies each staged write individually. There is no kernel
// dry-run for the legacy per-object ioctl, so testOnly is a no-op beyond
// the validation AddProperty already performed.
func (r *legacyCommit) Commit(testOnly bool) error {
	if testOnly {
		return nil
	}
	for _, p := range r.pending {
		set := drmModeObjSetProperty{Value: p.value, PropID: p.propID, ObjID: p.objID, ObjType: p.objType}
		if err := ioctl(r.adapter.file.Fd(), ioctlModeObjSetProp, uintptr(unsafe.Pointer(&set))); err != nil {
			return fmt.Errorf("OBJ_SETPROPERTY (obj %d prop %d): %w", p.objID, p.propID, err)
		}
	}
	return nil
}

// HandleEvents drains the DRM character device's event queue. The fd is
// polled with a zero timeout first and nothing is read when no event is
// queued, so this never stalls the render loop.
func (a *linuxAdapter) HandleEvents(onFlip func(controllerID uint32)) error {
	fd := int(a.file.Fd())
	pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	if ready, err := unix.Poll(pfd, 0); err != nil || ready == 0 {
		if err != nil && err != unix.EINTR {
			return fmt.Errorf("kms: poll DRM events: %w", err)
		}
		return nil
	}
	buf := make([]byte, 1024)
	n, err := unix.Read(fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil
		}
		return fmt.Errorf("kms: read DRM events: %w", err)
	}
	for off := 0; off+8 <= n; {
		eventType := binary.NativeEndian.Uint32(buf[off : off+4])
		length := binary.NativeEndian.Uint32(buf[off+4 : off+8])
		if length < 8 || off+int(length) > n {
			break
		}
		if eventType == drmEventFlipComplete && length >= 32 {
			crtcID := binary.NativeEndian.Uint32(buf[off+28 : off+32])
			for _, c := range a.controllers {
				if c.ID == crtcID {
					c.pendingFlip = false
				}
			}
			onFlip(crtcID)
		}
		off += int(length)
	}
	return nil
}

func (a *linuxAdapter) Close() error {
	a.mu.Lock()
	for id, mem := range a.fbs {
		_ = unix.Munmap(mem)
		delete(a.fbs, id)
	}
	a.mu.Unlock()
	_ = dropMasterDevice(a.file)
	return a.file.Close()
}

const drmEventFlipComplete = 0x02

func connectorTypeOf(t uint32) ConnectorType {
	switch t {
	case 11: // DRM_MODE_CONNECTOR_HDMIA
		return ConnectorHDMI
	case 10: // DRM_MODE_CONNECTOR_DisplayPort
		return ConnectorDP
	case 14: // DRM_MODE_CONNECTOR_eDP
		return ConnectorEDP
	case 1: // DRM_MODE_CONNECTOR_VGA
		return ConnectorVGA
	case 16: // DRM_MODE_CONNECTOR_DSI
		return ConnectorDSI
	case 15: // DRM_MODE_CONNECTOR_VIRTUAL
		return ConnectorVirtual
	default:
		return ConnectorUnknown
	}
}

func connectionStatusOf(v uint32) ConnectionStatus {
	switch v {
	case drmModeConnected:
		return StatusConnected
	case drmModeDisconnected:
		return StatusDisconnected
	default:
		return StatusUnknown
	}
}

func encoderKindOf(t uint32) EncoderKind {
	switch t {
	case 2: // DRM_MODE_ENCODER_TMDS
		return EncoderTMDS
	case 7: // DRM_MODE_ENCODER_DPMST / DP
		return EncoderDisplayPort
	case 6: // DRM_MODE_ENCODER_DSI
		return EncoderDSI
	case 5: // DRM_MODE_ENCODER_VIRTUAL
		return EncoderVirtual
	default:
		return EncoderNone
	}
}

func propertyKindOf(flags uint32) PropertyKind {
	switch {
	case flags&(1<<3) != 0: // DRM_MODE_PROP_ENUM
		return PropEnum
	case flags&(1<<4) != 0: // DRM_MODE_PROP_BLOB
		return PropBlob
	case flags&(1<<5) != 0: // DRM_MODE_PROP_BITMASK
		return PropBitmask
	case flags&(1<<6) != 0: // DRM_MODE_PROP_OBJECT
		return PropObject
	default:
		return PropRange
	}
}

func toModeInfo(m Mode) drmModeModeInfo {
	var mi drmModeModeInfo
	mi.Hdisplay = uint16(m.Width)
	mi.Vdisplay = uint16(m.Height)
	mi.Vrefresh = uint32(m.Refresh)
	mi.Flags = m.Flags
	copy(mi.Name[:], m.Name)
	return mi
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
