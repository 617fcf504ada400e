//go:build linux

package kms

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DRM ioctl numbers, computed the same way the kernel's <drm/drm.h> macros
// do (_IO/_IOW/_IOR/_IOWR), rather than hand-expanded hex literals — this
// generalizes the teacher's pkg/drm/ioctl_linux.go (which hardcoded a
// handful of these for one VM lease manager) into the fuller resource and
// mode-setting surface this adapter needs.
const (
	iocWrite = 0x40000000
	iocRead  = 0x80000000
	drmType  = 'd'
)

func ioc(dir uint32, nr uint32, size uintptr) uint32 {
	return dir | uint32(size&0x1fff)<<16 | drmType<<8 | nr
}

var (
	ioctlSetMaster        = ioc(0, 0x1e, 0)
	ioctlDropMaster       = ioc(0, 0x1f, 0)
	ioctlSetClientCap     = ioc(iocWrite, 0x0d, unsafe.Sizeof(drmSetClientCap{}))
	ioctlModeGetResources = ioc(iocRead|iocWrite, 0xa0, unsafe.Sizeof(drmModeCardRes{}))
	ioctlModeGetCrtc      = ioc(iocRead|iocWrite, 0xa1, unsafe.Sizeof(drmModeCrtc{}))
	ioctlModeSetCrtc      = ioc(iocRead|iocWrite, 0xa2, unsafe.Sizeof(drmModeCrtc{}))
	ioctlModeGetEncoder   = ioc(iocRead|iocWrite, 0xa6, unsafe.Sizeof(drmModeGetEncoder{}))
	ioctlModeGetConnector = ioc(iocRead|iocWrite, 0xa7, unsafe.Sizeof(drmModeGetConnector{}))
	ioctlModeGetProperty  = ioc(iocRead|iocWrite, 0xaa, unsafe.Sizeof(drmModeGetProperty{}))
	ioctlModeAddFb        = ioc(iocRead|iocWrite, 0xae, unsafe.Sizeof(drmModeFbCmd{}))
	ioctlModeRmFb         = ioc(iocRead|iocWrite, 0xaf, 4)
	ioctlModePageFlip     = ioc(iocRead|iocWrite, 0xb0, unsafe.Sizeof(drmModePageFlip{}))
	ioctlModeCreateDumb   = ioc(iocRead|iocWrite, 0xb2, unsafe.Sizeof(drmModeCreateDumb{}))
	ioctlModeMapDumb      = ioc(iocRead|iocWrite, 0xb3, unsafe.Sizeof(drmModeMapDumb{}))
	ioctlModeDestroyDumb  = ioc(iocRead|iocWrite, 0xb4, unsafe.Sizeof(drmModeDestroyDumb{}))
	ioctlModeGetPlaneRes  = ioc(iocRead|iocWrite, 0xb5, unsafe.Sizeof(drmModeGetPlaneRes{}))
	ioctlModeGetPlane     = ioc(iocRead|iocWrite, 0xb6, unsafe.Sizeof(drmModeGetPlane{}))
	ioctlModeObjGetProps  = ioc(iocRead|iocWrite, 0xb9, unsafe.Sizeof(drmModeObjGetProperties{}))
	ioctlModeObjSetProp   = ioc(iocRead|iocWrite, 0xba, unsafe.Sizeof(drmModeObjSetProperty{}))
	ioctlModeAtomic       = ioc(iocRead|iocWrite, 0xbc, unsafe.Sizeof(drmModeAtomic{}))
)

const (
	drmModeConnected    = 1
	drmModeDisconnected = 2
	drmClientCapUniversalPlanes = 2
	drmClientCapAtomic          = 3
	drmModePageFlipEvent        = 0x01
	drmModeAtomicTestOnly       = 0x0100
	drmModeAtomicNonblock       = 0x0200
)

type drmSetClientCap struct {
	Capability uint64
	Value      uint64
}

type drmModeCardRes struct {
	FbIDPtr         uint64
	CrtcIDPtr       uint64
	ConnectorIDPtr  uint64
	EncoderIDPtr    uint64
	CountFbs        uint32
	CountCrtcs      uint32
	CountConnectors uint32
	CountEncoders   uint32
	MinWidth        uint32
	MaxWidth        uint32
	MinHeight       uint32
	MaxHeight       uint32
}

type drmModeModeInfo struct {
	Clock      uint32
	Hdisplay   uint16
	HsyncStart uint16
	HsyncEnd   uint16
	Htotal     uint16
	Hskew      uint16
	Vdisplay   uint16
	VsyncStart uint16
	VsyncEnd   uint16
	Vtotal     uint16
	Vscan      uint16
	Vrefresh   uint32
	Flags      uint32
	Type       uint32
	Name       [32]byte
}

type drmModeGetConnector struct {
	EncodersPtr     uint64
	ModesPtr        uint64
	PropsPtr        uint64
	PropValuesPtr   uint64
	CountModes      uint32
	CountProps      uint32
	CountEncoders   uint32
	EncoderID       uint32
	ConnectorID     uint32
	ConnectorType   uint32
	ConnectorTypeID uint32
	Connection      uint32
	MmWidth         uint32
	MmHeight        uint32
	Subpixel        uint32
	Pad            uint32
}

type drmModeGetEncoder struct {
	EncoderID      uint32
	EncoderType    uint32
	CrtcID         uint32
	PossibleCrtcs  uint32
	PossibleClones uint32
}

type drmModeCrtc struct {
	SetConnectorsPtr uint64
	CountConnectors  uint32
	CrtcID           uint32
	FbID             uint32
	X                uint32
	Y                uint32
	GammaSize        uint32
	ModeValid        uint32
	Mode             drmModeModeInfo
}

type drmModeGetPlaneRes struct {
	PlaneIDPtr  uint64
	CountPlanes uint32
	_           uint32
}

type drmModeGetPlane struct {
	PlaneID          uint32
	CrtcID           uint32
	FbID             uint32
	PossibleCrtcs    uint32
	GammaSize        uint32
	CountFormatTypes uint32
	FormatTypePtr    uint64
}

type drmModeGetProperty struct {
	ValuesPtr   uint64
	EnumBlobPtr uint64
	PropID      uint32
	Flags       uint32
	Name        [32]byte
	CountValues uint32
	CountEnum   uint32
}

type drmModeObjGetProperties struct {
	PropsPtr      uint64
	PropValuesPtr uint64
	CountProps    uint32
	ObjID         uint32
	ObjType       uint32
	_             uint32
}

type drmModeObjSetProperty struct {
	Value   uint64
	PropID  uint32
	ObjID   uint32
	ObjType uint32
}

type drmModeAtomic struct {
	Flags          uint32
	CountObjs      uint32
	ObjsPtr        uint64
	CountPropsPtr  uint64
	PropsPtr       uint64
	PropValuesPtr  uint64
	Reserved       uint64
	UserData       uint64
}

type drmModeCreateDumb struct {
	Height uint32
	Width  uint32
	Bpp    uint32
	Flags  uint32
	Handle uint32
	Pitch  uint32
	Size   uint64
}

type drmModeMapDumb struct {
	Handle uint32
	Pad    uint32
	Offset uint64
}

type drmModeDestroyDumb struct {
	Handle uint32
}

type drmModeFbCmd struct {
	FbID   uint32
	Width  uint32
	Height uint32
	Pitch  uint32
	Bpp    uint32
	Depth  uint32
	Handle uint32
}

type drmModePageFlip struct {
	CrtcID   uint32
	FbID     uint32
	Flags    uint32
	Reserved uint32
	UserData uint64
}

func ioctl(fd uintptr, req uint32, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), arg)
	if errno != 0 {
		return errno
	}
	return nil
}

func openDRMDevice(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := ioctl(f.Fd(), ioctlSetMaster, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("DRM_IOCTL_SET_MASTER: %w", err)
	}
	return f, nil
}

func dropMasterDevice(f *os.File) error {
	return ioctl(f.Fd(), ioctlDropMaster, 0)
}

func setClientCap(f *os.File, capability, value uint64) error {
	cap := drmSetClientCap{Capability: capability, Value: value}
	return ioctl(f.Fd(), ioctlSetClientCap, uintptr(unsafe.Pointer(&cap)))
}

func supportsAtomic(f *os.File) bool {
	return setClientCap(f, drmClientCapAtomic, 1) == nil
}
