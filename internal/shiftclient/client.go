// Package shiftclient binds the Shift nested-session client library
// (tab_client_*), a C-ABI the Tab backend treats as an external
// collaborator. The real implementation (client_linux.go) requires cgo and
// libtab_client; client_stub.go stands in on other platforms or cgo-less
// builds so the rest of the module still compiles.
package shiftclient

import (
	"errors"
	"os"
)

// SessionTokenEnv is the environment variable consulted once at connect
// time. Its absence is acceptable; the library falls back to its own
// default session discovery.
const SessionTokenEnv = "SHIFT_SESSION_TOKEN"

// EventKind enumerates the session event types the dispatcher understands.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventBufferReleased
	EventFrameDone
	EventMonitorAdded
	EventMonitorRemoved
	EventInput
)

// InputKind enumerates the input sub-events carried by EventInput.
type InputKind int

const (
	InputUnknown InputKind = iota
	InputKey
	InputPointerMotion
	InputPointerAbsolute
	InputPointerButton
	InputPointerAxis
	InputTouchDown
	InputTouchMotion
	InputTouchUp
	InputTouchCancel
	InputTabletAxis
	InputTabletTip
	InputTabletButton
	InputTabletProximity
	InputSwitchToggle
)

// AxisOrientation and AxisSource mirror the wire values tab_client_* reports
// for pointer axis events.
type AxisOrientation int

const (
	AxisVertical AxisOrientation = iota
	AxisHorizontal
)

type AxisSource int

const (
	AxisSourceWheel AxisSource = iota
	AxisSourceFinger
	AxisSourceContinuous
	AxisSourceWheelTilt
)

// SwitchKind mirrors the lid/tablet-mode switch kinds the session reports.
type SwitchKind int

const (
	SwitchLid SwitchKind = iota
	SwitchTabletMode
)

// MonitorInfo is the immutable description of a virtual monitor the session
// announces at startup or via a MONITOR_ADDED event.
type MonitorInfo struct {
	ID         string
	Name       string
	Width      int32
	Height     int32
	RefreshHz  int32
}

// FrameTarget is the single-plane DMA-BUF handle returned by AcquireFrame.
type FrameTarget struct {
	FD        int
	Stride    uint32
	Offset    uint32
	Fourcc    uint32
	Width     int32
	Height    int32
	SlotIndex uint32
}

// AcquireResult enumerates AcquireFrame's outcomes.
type AcquireResult int

const (
	AcquireOK AcquireResult = iota
	AcquireNotConnected
	AcquireRefused
	AcquireError
)

// InputEvent is the normalized payload of an EventInput event.
type InputEvent struct {
	Kind       InputKind
	TimeUsec   uint64
	Code       uint32
	Pressed    bool
	DX, DY     float64
	X, Y       float64
	TouchID    int32
	Orientation AxisOrientation
	Source     AxisSource
	ToolSerial uint64
	Pressure   float64
	TiltX, TiltY float64
	SwitchKind SwitchKind
}

// Event is one item drained from the session's event queue.
type Event struct {
	Kind        EventKind
	MonitorID   string // empty means "not present" for events where it's optional
	BufferIndex uint32
	MonitorInfo MonitorInfo
	Input       InputEvent
}

// Errors returned by this package. Callers branch on these with errors.Is.
var (
	ErrUnsupported  = errors.New("shiftclient: built without cgo/libtab_client support")
	ErrConnect      = errors.New("shiftclient: connect failed")
	ErrNotConnected = errors.New("shiftclient: not connected")
)

// EnvToken reads SHIFT_SESSION_TOKEN, returning "" (and no error) when unset.
// An unset token is a valid configuration: the library falls back to its
// own default session discovery.
func EnvToken() string {
	return os.Getenv(SessionTokenEnv)
}

// Client is the subset of *Handle the backend depends on. Defining it as an
// interface lets tests substitute a fake session without linking cgo.
type Client interface {
	Disconnect()
	SocketFD() int
	DRMFD() int
	PollEvents()
	NextEvent() (Event, bool)
	MonitorCount() int
	MonitorIDAt(i int) string
	MonitorInfo(id string) (MonitorInfo, bool)
	AcquireFrame(monitorID string) (FrameTarget, AcquireResult)
	RequestBuffer(monitorID string, acquireFenceFD int) bool
	SwapBuffers(monitorID string)
}

var _ Client = (*Handle)(nil)
