package backend

import (
	"github.com/ardos-os/aquamarine-shift/aquamarine"
	"github.com/ardos-os/aquamarine-shift/internal/shiftclient"
)

// inputDirty aggregates which pointer/touch devices received at least one
// event during a drain batch, mirroring the original's out-param
// (pointerDirty, touchDirty) aggregation: a batch of N motion/button events
// must fire one Frame per dirty device, not N.
type inputDirty struct {
	pointer bool
	touch   bool
}

// dispatchInput fans a single session input event out to the matching
// lazily-created virtual device, converting the session's microsecond
// timestamps to the host's millisecond convention (integer division,
// matching the host's own truncating conversion rather than rounding). It
// never calls NotifyFrame itself: pointer/touch dirtiness is recorded into
// dirty and flushed once per batch by drainEvents. dirty may be nil when
// the caller knows the event cannot be a pointer/touch kind (e.g. tests
// driving a single key event directly).
func (b *Backend) dispatchInput(ev shiftclient.InputEvent, dirty *inputDirty) {
	timeMs := uint32(ev.TimeUsec / 1000)

	switch ev.Kind {
	case shiftclient.InputKey:
		b.keyboardDevice().NotifyKey(timeMs, ev.Code, ev.Pressed)

	case shiftclient.InputPointerMotion:
		b.pointerDevice().NotifyMotion(timeMs, ev.DX, ev.DY)
		if dirty != nil {
			dirty.pointer = true
		}

	case shiftclient.InputPointerAbsolute:
		b.pointerDevice().NotifyMotionAbsolute(timeMs, ev.X, ev.Y)
		if dirty != nil {
			dirty.pointer = true
		}

	case shiftclient.InputPointerButton:
		b.pointerDevice().NotifyButton(timeMs, ev.Code, ev.Pressed)
		if dirty != nil {
			dirty.pointer = true
		}

	case shiftclient.InputPointerAxis:
		b.pointerDevice().NotifyAxis(timeMs, axisOrientationFromSession(ev.Orientation), ev.DY, axisSourceFromSession(ev.Source))
		if dirty != nil {
			dirty.pointer = true
		}

	case shiftclient.InputTouchDown:
		b.touchDevice().NotifyDown(timeMs, ev.TouchID, ev.X, ev.Y)
		if dirty != nil {
			dirty.touch = true
		}

	case shiftclient.InputTouchMotion:
		b.touchDevice().NotifyMotion(timeMs, ev.TouchID, ev.X, ev.Y)
		if dirty != nil {
			dirty.touch = true
		}

	case shiftclient.InputTouchUp:
		b.touchDevice().NotifyUp(timeMs, ev.TouchID)
		if dirty != nil {
			dirty.touch = true
		}

	case shiftclient.InputTouchCancel:
		// ev.TouchID is -1 on the wire for this kind; NotifyCancel takes no
		// id because it voids every outstanding contact.
		b.touchDevice().NotifyCancel(timeMs)
		if dirty != nil {
			dirty.touch = true
		}

	case shiftclient.InputTabletAxis:
		tablet := b.tabletDevice()
		tool := tablet.toolFor(ev.ToolSerial)
		tablet.NotifyAxis(timeMs, tool, ev.X, ev.Y, ev.Pressure, ev.TiltX, ev.TiltY)

	case shiftclient.InputTabletTip:
		tablet := b.tabletDevice()
		tool := tablet.toolFor(ev.ToolSerial)
		tablet.NotifyTip(timeMs, tool, ev.Pressed)

	case shiftclient.InputTabletButton:
		tablet := b.tabletDevice()
		tool := tablet.toolFor(ev.ToolSerial)
		tablet.NotifyButton(timeMs, tool, ev.Code, ev.Pressed)

	case shiftclient.InputTabletProximity:
		tablet := b.tabletDevice()
		tool := tablet.toolFor(ev.ToolSerial)
		tablet.NotifyProximity(timeMs, tool, ev.X, ev.Y, ev.Pressed)

	case shiftclient.InputSwitchToggle:
		b.switchDevice().NotifyToggle(timeMs, switchKindFromSession(ev.SwitchKind), ev.Pressed)

	default:
		b.log.Warn().Int("kind", int(ev.Kind)).Msg("unhandled input event kind")
	}
}

func axisOrientationFromSession(o shiftclient.AxisOrientation) aquamarine.AxisOrientation {
	if o == shiftclient.AxisHorizontal {
		return aquamarine.AxisHorizontal
	}
	return aquamarine.AxisVertical
}

func axisSourceFromSession(s shiftclient.AxisSource) aquamarine.AxisSource {
	switch s {
	case shiftclient.AxisSourceFinger:
		return aquamarine.AxisSourceFinger
	case shiftclient.AxisSourceContinuous:
		return aquamarine.AxisSourceContinuous
	case shiftclient.AxisSourceWheelTilt:
		return aquamarine.AxisSourceWheelTilt
	default:
		return aquamarine.AxisSourceWheel
	}
}

func switchKindFromSession(k shiftclient.SwitchKind) aquamarine.SwitchKind {
	if k == shiftclient.SwitchTabletMode {
		return aquamarine.SwitchTabletMode
	}
	return aquamarine.SwitchLid
}
