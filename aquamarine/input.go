package aquamarine

// Device is the common surface every virtual input device exposes to the
// host: a stable name and the backend that created it.
type Device interface {
	Name() string
	Backend() BackendImplementation
}

// AxisSource enumerates where a scroll event originated, mirroring libinput.
type AxisSource int

const (
	AxisSourceWheel AxisSource = iota
	AxisSourceFinger
	AxisSourceContinuous
	AxisSourceWheelTilt
)

// AxisOrientation distinguishes vertical (column) scroll from horizontal.
type AxisOrientation int

const (
	AxisVertical AxisOrientation = iota
	AxisHorizontal
)

// KeyboardEvents are the signals a Keyboard's Notify* methods emit. The
// host attaches listeners here the same way it does on OutputEvents;
// Notify* is the backend pushing a session event in, these callbacks are
// the host finding out about it.
type KeyboardEvents struct {
	Key func(timeMs uint32, key uint32, pressed bool)
}

// Keyboard receives normalized key events from the nested session.
type Keyboard interface {
	Device
	Events() *KeyboardEvents
	NotifyKey(timeMs uint32, key uint32, pressed bool)
}

// PointerEvents are the signals a Pointer's Notify* methods emit.
type PointerEvents struct {
	Motion         func(timeMs uint32, dx, dy float64)
	MotionAbsolute func(timeMs uint32, x, y float64)
	Button         func(timeMs uint32, button uint32, pressed bool)
	Axis           func(timeMs uint32, orientation AxisOrientation, delta float64, source AxisSource)
	Frame          func()
}

// Pointer receives normalized relative/absolute motion, button and axis
// events.
type Pointer interface {
	Device
	Events() *PointerEvents
	NotifyMotion(timeMs uint32, dx, dy float64)
	NotifyMotionAbsolute(timeMs uint32, x, y float64)
	NotifyButton(timeMs uint32, button uint32, pressed bool)
	NotifyAxis(timeMs uint32, orientation AxisOrientation, delta float64, source AxisSource)
	NotifyFrame()
}

// TouchEvents are the signals a Touch's Notify* methods emit.
type TouchEvents struct {
	Down   func(timeMs uint32, id int32, x, y float64)
	Motion func(timeMs uint32, id int32, x, y float64)
	Up     func(timeMs uint32, id int32)
	Cancel func(timeMs uint32)
	Frame  func()
}

// Touch receives multi-touch contact events. A cancel voids every
// outstanding contact; NotifyCancel and the Cancel event carry no contact
// id, so no -1 id reaches the host.
type Touch interface {
	Device
	Events() *TouchEvents
	NotifyDown(timeMs uint32, id int32, x, y float64)
	NotifyMotion(timeMs uint32, id int32, x, y float64)
	NotifyUp(timeMs uint32, id int32)
	NotifyCancel(timeMs uint32)
	NotifyFrame()
}

// TabletTool is a stateless handle to a pen/eraser/brush tip, identified by
// its session-provided serial. Whether it is shared across events with the
// same serial is decided by the dispatcher, not the tool object itself.
type TabletTool interface {
	Serial() uint64
}

// TabletEvents are the signals a Tablet's Notify* methods emit.
type TabletEvents struct {
	Proximity func(timeMs uint32, tool TabletTool, x, y float64, in bool)
	Axis      func(timeMs uint32, tool TabletTool, x, y, pressure, tiltX, tiltY float64)
	Tip       func(timeMs uint32, tool TabletTool, down bool)
	Button    func(timeMs uint32, tool TabletTool, button uint32, pressed bool)
}

// Tablet receives proximity, axis and tip/button events for a tool.
type Tablet interface {
	Device
	Events() *TabletEvents
	NotifyProximity(timeMs uint32, tool TabletTool, x, y float64, in bool)
	NotifyAxis(timeMs uint32, tool TabletTool, x, y, pressure, tiltX, tiltY float64)
	NotifyTip(timeMs uint32, tool TabletTool, down bool)
	NotifyButton(timeMs uint32, tool TabletTool, button uint32, pressed bool)
}

// TabletPadEvents are the signals a TabletPad's Notify* methods emit.
type TabletPadEvents struct {
	Button func(timeMs uint32, button uint32, pressed bool)
	Ring   func(timeMs uint32, ring uint32, position float64)
	Strip  func(timeMs uint32, strip uint32, position float64)
}

// TabletPad receives ring/strip/button events from a tablet's pad surface.
type TabletPad interface {
	Device
	Events() *TabletPadEvents
	NotifyButton(timeMs uint32, button uint32, pressed bool)
	NotifyRing(timeMs uint32, ring uint32, position float64)
	NotifyStrip(timeMs uint32, strip uint32, position float64)
}

// SwitchKind enumerates the lid and tablet-mode switches the session can
// report; any other kind is dropped by the dispatcher.
type SwitchKind int

const (
	SwitchLid SwitchKind = iota
	SwitchTabletMode
)

// SwitchEvents are the signals a Switch's Notify* methods emit.
type SwitchEvents struct {
	Toggle func(timeMs uint32, kind SwitchKind, enabled bool)
}

// Switch receives lid/tablet-mode toggle events.
type Switch interface {
	Device
	Events() *SwitchEvents
	NotifyToggle(timeMs uint32, kind SwitchKind, enabled bool)
}
