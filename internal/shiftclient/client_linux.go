//go:build linux && cgo

package shiftclient

/*
#cgo LDFLAGS: -ltab_client
#include <stdlib.h>
#include "tab_client.h"
*/
import "C"

import (
	"unsafe"
)

// Handle is a connected Shift session client. At most one should exist per
// backend instance; the zero value is not usable, use Connect.
type Handle struct {
	ptr *C.TabClientHandle
}

// Connect opens a session client, forwarding the given token (if non-empty)
// to tab_client_connect. It returns (nil, ErrConnect) if the library
// refuses the connection.
func Connect(token string) (*Handle, error) {
	var cToken *C.char
	if token != "" {
		cToken = C.CString(token)
		defer C.free(unsafe.Pointer(cToken))
	}

	ptr := C.tab_client_connect(cToken)
	if ptr == nil {
		return nil, ErrConnect
	}
	return &Handle{ptr: ptr}, nil
}

// Disconnect closes the session client. Safe to call once; calling on an
// already-disconnected handle is a caller bug, not guarded against here
// (mirrors the C ABI it wraps).
func (h *Handle) Disconnect() {
	C.tab_client_disconnect(h.ptr)
	h.ptr = nil
}

// SocketFD returns the session socket fd the host should poll for
// readability; callers must not close it.
func (h *Handle) SocketFD() int {
	return int(C.tab_client_socket_fd(h.ptr))
}

// DRMFD returns the session's DRM fd, or -1 if it has none. Non-owning.
func (h *Handle) DRMFD() int {
	return int(C.tab_client_drm_fd(h.ptr))
}

// PollEvents asks the session library to pull pending events off the
// socket into its internal queue. Call before draining with NextEvent.
func (h *Handle) PollEvents() {
	C.tab_client_poll_events(h.ptr)
}

// NextEvent pops one event off the session's internal queue, translating
// the C representation into the Go Event type. It returns (Event{}, false)
// once the queue is drained.
func (h *Handle) NextEvent() (Event, bool) {
	var cev C.TabEvent
	if C.tab_client_next_event(h.ptr, &cev) == 0 {
		return Event{}, false
	}
	defer C.tab_client_free_event_strings(&cev)

	ev := Event{Kind: eventKindFromC(cev.kind)}
	switch ev.Kind {
	case EventBufferReleased:
		ev.MonitorID = goStringOrEmpty(cev.monitor_id)
		ev.BufferIndex = uint32(cev.buffer_index)
	case EventFrameDone:
		ev.MonitorID = goStringOrEmpty(cev.monitor_id)
	case EventMonitorAdded:
		ev.MonitorInfo = monitorInfoFromC(cev.monitor_info)
	case EventMonitorRemoved:
		ev.MonitorID = goStringOrEmpty(cev.monitor_id)
	case EventInput:
		ev.Input = inputEventFromC(cev.input)
	}
	return ev, true
}

// MonitorCount returns the number of monitors currently known to the
// session, valid for indices [0, count).
func (h *Handle) MonitorCount() int {
	return int(C.tab_client_monitor_count(h.ptr))
}

// MonitorIDAt returns the stable id of the monitor at index i, freeing the
// session-owned string after copying it into Go memory.
func (h *Handle) MonitorIDAt(i int) string {
	cstr := C.tab_client_monitor_id(h.ptr, C.int(i))
	if cstr == nil {
		return ""
	}
	defer C.tab_client_string_free(cstr)
	return C.GoString(cstr)
}

// MonitorInfo fetches the full descriptor for a monitor id.
func (h *Handle) MonitorInfo(id string) (MonitorInfo, bool) {
	cid := C.CString(id)
	defer C.free(unsafe.Pointer(cid))

	var out C.TabMonitorInfo
	if C.tab_client_monitor_info(h.ptr, cid, &out) == 0 {
		return MonitorInfo{}, false
	}
	defer C.tab_client_free_monitor_info(&out)
	return monitorInfoFromC(out), true
}

// AcquireFrame requests a new DMA-BUF frame target for monitor id.
func (h *Handle) AcquireFrame(monitorID string) (FrameTarget, AcquireResult) {
	cid := C.CString(monitorID)
	defer C.free(unsafe.Pointer(cid))

	var out C.TabFrameTarget
	res := C.tab_client_acquire_frame(h.ptr, cid, &out)
	if res != C.TAB_RESULT_OK {
		return FrameTarget{}, acquireResultFromC(res)
	}
	return FrameTarget{
		FD:        int(out.fd),
		Stride:    uint32(out.stride),
		Offset:    uint32(out.offset),
		Fourcc:    uint32(out.fourcc),
		Width:     int32(out.width),
		Height:    int32(out.height),
		SlotIndex: uint32(out.slot_index),
	}, AcquireOK
}

// RequestBuffer submits a rendered buffer for scanout (pacing Variant A).
// acquireFenceFD may be -1 to submit without a fence.
func (h *Handle) RequestBuffer(monitorID string, acquireFenceFD int) bool {
	cid := C.CString(monitorID)
	defer C.free(unsafe.Pointer(cid))

	return C.tab_client_request_buffer(h.ptr, cid, C.int(acquireFenceFD)) != 0
}

// SwapBuffers submits a rendered buffer for scanout (pacing Variant B).
func (h *Handle) SwapBuffers(monitorID string) {
	cid := C.CString(monitorID)
	defer C.free(unsafe.Pointer(cid))

	C.tab_client_swap_buffers(h.ptr, cid)
}

func goStringOrEmpty(s *C.char) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

func monitorInfoFromC(m C.TabMonitorInfo) MonitorInfo {
	return MonitorInfo{
		ID:        goStringOrEmpty(m.id),
		Name:      goStringOrEmpty(m.name),
		Width:     int32(m.width),
		Height:    int32(m.height),
		RefreshHz: int32(m.refresh_hz),
	}
}

func eventKindFromC(k C.TabEventKind) EventKind {
	switch k {
	case C.TAB_EVENT_BUFFER_RELEASED:
		return EventBufferReleased
	case C.TAB_EVENT_FRAME_DONE:
		return EventFrameDone
	case C.TAB_EVENT_MONITOR_ADDED:
		return EventMonitorAdded
	case C.TAB_EVENT_MONITOR_REMOVED:
		return EventMonitorRemoved
	case C.TAB_EVENT_INPUT:
		return EventInput
	default:
		return EventUnknown
	}
}

func acquireResultFromC(r C.TabResult) AcquireResult {
	switch r {
	case C.TAB_RESULT_NOT_CONNECTED:
		return AcquireNotConnected
	case C.TAB_RESULT_REFUSED:
		return AcquireRefused
	default:
		return AcquireError
	}
}

func inputKindFromC(k C.TabInputKind) InputKind {
	switch k {
	case C.TAB_INPUT_KEY:
		return InputKey
	case C.TAB_INPUT_POINTER_MOTION:
		return InputPointerMotion
	case C.TAB_INPUT_POINTER_ABS:
		return InputPointerAbsolute
	case C.TAB_INPUT_POINTER_BUTTON:
		return InputPointerButton
	case C.TAB_INPUT_POINTER_AXIS:
		return InputPointerAxis
	case C.TAB_INPUT_TOUCH_DOWN:
		return InputTouchDown
	case C.TAB_INPUT_TOUCH_MOTION:
		return InputTouchMotion
	case C.TAB_INPUT_TOUCH_UP:
		return InputTouchUp
	case C.TAB_INPUT_TOUCH_CANCEL:
		return InputTouchCancel
	case C.TAB_INPUT_TABLET_AXIS:
		return InputTabletAxis
	case C.TAB_INPUT_TABLET_TIP:
		return InputTabletTip
	case C.TAB_INPUT_TABLET_BUTTON:
		return InputTabletButton
	case C.TAB_INPUT_TABLET_PROXIMITY:
		return InputTabletProximity
	case C.TAB_INPUT_SWITCH_TOGGLE:
		return InputSwitchToggle
	default:
		return InputUnknown
	}
}

func inputEventFromC(ev C.TabInputEvent) InputEvent {
	return InputEvent{
		Kind:        inputKindFromC(ev.kind),
		TimeUsec:    uint64(ev.time_usec),
		Code:        uint32(ev.code),
		Pressed:     ev.pressed != 0,
		DX:          float64(ev.dx),
		DY:          float64(ev.dy),
		X:           float64(ev.x),
		Y:           float64(ev.y),
		TouchID:     int32(ev.touch_id),
		Orientation: AxisOrientation(ev.axis_orientation),
		Source:      AxisSource(ev.axis_source),
		ToolSerial:  uint64(ev.tool_serial),
		Pressure:    float64(ev.pressure),
		TiltX:       float64(ev.tilt_x),
		TiltY:       float64(ev.tilt_y),
		SwitchKind:  SwitchKind(ev.switch_kind),
	}
}
