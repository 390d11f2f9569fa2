package backend

import "github.com/ardos-os/aquamarine-shift/aquamarine"

// devices groups the lazily-created virtual input devices a Backend
// exposes. The session protocol carries no "device added" handshake of its
// own for most kinds (unlike monitors); input events name the device kind
// only implicitly, so the first event of a given kind creates its device
// on demand (§4.5 lazy creation) and fires the matching host New* event.
type devices struct {
	keyboard  *virtualKeyboard
	pointer   *virtualPointer
	touch     *virtualTouch
	tablet    *virtualTablet
	tabletPad *virtualTabletPad
	sw        *virtualSwitch
}

func (b *Backend) keyboardDevice() *virtualKeyboard {
	if b.devices.keyboard == nil {
		b.devices.keyboard = &virtualKeyboard{backend: b}
		if ev := b.host.Events().NewKeyboard; ev != nil {
			ev(b.devices.keyboard)
		}
	}
	return b.devices.keyboard
}

func (b *Backend) pointerDevice() *virtualPointer {
	if b.devices.pointer == nil {
		b.devices.pointer = &virtualPointer{backend: b}
		if ev := b.host.Events().NewPointer; ev != nil {
			ev(b.devices.pointer)
		}
	}
	return b.devices.pointer
}

func (b *Backend) touchDevice() *virtualTouch {
	if b.devices.touch == nil {
		b.devices.touch = &virtualTouch{backend: b}
		if ev := b.host.Events().NewTouch; ev != nil {
			ev(b.devices.touch)
		}
	}
	return b.devices.touch
}

func (b *Backend) tabletDevice() *virtualTablet {
	if b.devices.tablet == nil {
		b.devices.tablet = newVirtualTablet(b)
		if ev := b.host.Events().NewTablet; ev != nil {
			ev(b.devices.tablet)
		}
	}
	return b.devices.tablet
}

func (b *Backend) tabletPadDevice() *virtualTabletPad {
	if b.devices.tabletPad == nil {
		b.devices.tabletPad = &virtualTabletPad{backend: b}
		if ev := b.host.Events().NewTabletPad; ev != nil {
			ev(b.devices.tabletPad)
		}
	}
	return b.devices.tabletPad
}

func (b *Backend) switchDevice() *virtualSwitch {
	if b.devices.sw == nil {
		b.devices.sw = &virtualSwitch{backend: b}
		if ev := b.host.Events().NewSwitch; ev != nil {
			ev(b.devices.sw)
		}
	}
	return b.devices.sw
}

type virtualKeyboard struct {
	backend *Backend
	events  aquamarine.KeyboardEvents
}

var _ aquamarine.Keyboard = (*virtualKeyboard)(nil)

func (k *virtualKeyboard) Name() string                             { return "tab-virtual-keyboard" }
func (k *virtualKeyboard) Backend() aquamarine.BackendImplementation { return k.backend }
func (k *virtualKeyboard) Events() *aquamarine.KeyboardEvents        { return &k.events }

func (k *virtualKeyboard) NotifyKey(timeMs uint32, key uint32, pressed bool) {
	if k.events.Key != nil {
		k.events.Key(timeMs, key, pressed)
	}
}

type virtualPointer struct {
	backend *Backend
	events  aquamarine.PointerEvents
}

var _ aquamarine.Pointer = (*virtualPointer)(nil)

func (p *virtualPointer) Name() string                             { return "tab-virtual-pointer" }
func (p *virtualPointer) Backend() aquamarine.BackendImplementation { return p.backend }
func (p *virtualPointer) Events() *aquamarine.PointerEvents         { return &p.events }

func (p *virtualPointer) NotifyMotion(timeMs uint32, dx, dy float64) {
	if p.events.Motion != nil {
		p.events.Motion(timeMs, dx, dy)
	}
}

func (p *virtualPointer) NotifyMotionAbsolute(timeMs uint32, x, y float64) {
	if p.events.MotionAbsolute != nil {
		p.events.MotionAbsolute(timeMs, x, y)
	}
}

func (p *virtualPointer) NotifyButton(timeMs uint32, button uint32, pressed bool) {
	if p.events.Button != nil {
		p.events.Button(timeMs, button, pressed)
	}
}

func (p *virtualPointer) NotifyAxis(timeMs uint32, orientation aquamarine.AxisOrientation, delta float64, source aquamarine.AxisSource) {
	if p.events.Axis != nil {
		p.events.Axis(timeMs, orientation, delta, source)
	}
}

func (p *virtualPointer) NotifyFrame() {
	if p.events.Frame != nil {
		p.events.Frame()
	}
}

type virtualTouch struct {
	backend *Backend
	events  aquamarine.TouchEvents
}

var _ aquamarine.Touch = (*virtualTouch)(nil)

func (t *virtualTouch) Name() string                             { return "tab-virtual-touch" }
func (t *virtualTouch) Backend() aquamarine.BackendImplementation { return t.backend }
func (t *virtualTouch) Events() *aquamarine.TouchEvents           { return &t.events }

func (t *virtualTouch) NotifyDown(timeMs uint32, id int32, x, y float64) {
	if t.events.Down != nil {
		t.events.Down(timeMs, id, x, y)
	}
}

func (t *virtualTouch) NotifyMotion(timeMs uint32, id int32, x, y float64) {
	if t.events.Motion != nil {
		t.events.Motion(timeMs, id, x, y)
	}
}

func (t *virtualTouch) NotifyUp(timeMs uint32, id int32) {
	if t.events.Up != nil {
		t.events.Up(timeMs, id)
	}
}

// NotifyCancel voids every outstanding contact at once. It takes no contact
// id; the session's -1 wire id for a cancel is not forwarded.
func (t *virtualTouch) NotifyCancel(timeMs uint32) {
	if t.events.Cancel != nil {
		t.events.Cancel(timeMs)
	}
}

func (t *virtualTouch) NotifyFrame() {
	if t.events.Frame != nil {
		t.events.Frame()
	}
}

// sessionTabletTool is the dispatcher's TabletTool handle. Serials are
// cached for the backend's lifetime rather than re-minted per event: a
// tablet's physical tool population is small and bounded, so caching is
// cheaper than churn across a proximity/axis/tip sequence (open question
// in DESIGN.md: ephemeral vs cached tool identity, decided in favor of
// caching).
type sessionTabletTool struct {
	serial uint64
}

func (t *sessionTabletTool) Serial() uint64 { return t.serial }

type virtualTablet struct {
	backend *Backend
	events  aquamarine.TabletEvents
	tools   map[uint64]*sessionTabletTool
}

var _ aquamarine.Tablet = (*virtualTablet)(nil)

func newVirtualTablet(b *Backend) *virtualTablet {
	return &virtualTablet{backend: b, tools: map[uint64]*sessionTabletTool{}}
}

func (t *virtualTablet) Name() string                             { return "tab-virtual-tablet" }
func (t *virtualTablet) Backend() aquamarine.BackendImplementation { return t.backend }
func (t *virtualTablet) Events() *aquamarine.TabletEvents          { return &t.events }

func (t *virtualTablet) toolFor(serial uint64) *sessionTabletTool {
	tool, ok := t.tools[serial]
	if !ok {
		tool = &sessionTabletTool{serial: serial}
		t.tools[serial] = tool
	}
	return tool
}

func (t *virtualTablet) NotifyProximity(timeMs uint32, tool aquamarine.TabletTool, x, y float64, in bool) {
	if t.events.Proximity != nil {
		t.events.Proximity(timeMs, tool, x, y, in)
	}
}

func (t *virtualTablet) NotifyAxis(timeMs uint32, tool aquamarine.TabletTool, x, y, pressure, tiltX, tiltY float64) {
	if t.events.Axis != nil {
		t.events.Axis(timeMs, tool, x, y, pressure, tiltX, tiltY)
	}
}

func (t *virtualTablet) NotifyTip(timeMs uint32, tool aquamarine.TabletTool, down bool) {
	if t.events.Tip != nil {
		t.events.Tip(timeMs, tool, down)
	}
}

func (t *virtualTablet) NotifyButton(timeMs uint32, tool aquamarine.TabletTool, button uint32, pressed bool) {
	if t.events.Button != nil {
		t.events.Button(timeMs, tool, button, pressed)
	}
}

type virtualTabletPad struct {
	backend *Backend
	events  aquamarine.TabletPadEvents
}

var _ aquamarine.TabletPad = (*virtualTabletPad)(nil)

func (p *virtualTabletPad) Name() string                             { return "tab-virtual-tablet-pad" }
func (p *virtualTabletPad) Backend() aquamarine.BackendImplementation { return p.backend }
func (p *virtualTabletPad) Events() *aquamarine.TabletPadEvents       { return &p.events }

func (p *virtualTabletPad) NotifyButton(timeMs uint32, button uint32, pressed bool) {
	if p.events.Button != nil {
		p.events.Button(timeMs, button, pressed)
	}
}

func (p *virtualTabletPad) NotifyRing(timeMs uint32, ring uint32, position float64) {
	if p.events.Ring != nil {
		p.events.Ring(timeMs, ring, position)
	}
}

func (p *virtualTabletPad) NotifyStrip(timeMs uint32, strip uint32, position float64) {
	if p.events.Strip != nil {
		p.events.Strip(timeMs, strip, position)
	}
}

type virtualSwitch struct {
	backend *Backend
	events  aquamarine.SwitchEvents
}

var _ aquamarine.Switch = (*virtualSwitch)(nil)

func (s *virtualSwitch) Name() string                             { return "tab-virtual-switch" }
func (s *virtualSwitch) Backend() aquamarine.BackendImplementation { return s.backend }
func (s *virtualSwitch) Events() *aquamarine.SwitchEvents          { return &s.events }

func (s *virtualSwitch) NotifyToggle(timeMs uint32, kind aquamarine.SwitchKind, enabled bool) {
	if s.events.Toggle != nil {
		s.events.Toggle(timeMs, kind, enabled)
	}
}
