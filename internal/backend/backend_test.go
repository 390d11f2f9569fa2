package backend

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardos-os/aquamarine-shift/aquamarine"
	"github.com/ardos-os/aquamarine-shift/internal/shiftclient"
)

func testMonitor(id string, hz int32) shiftclient.MonitorInfo {
	return shiftclient.MonitorInfo{ID: id, Name: id, Width: 1920, Height: 1080, RefreshHz: hz}
}

// S1: happy frame, Variant B. scheduleFrame -> idle -> Frame; commit ->
// SwapBuffers; FRAME_DONE -> Present{seq=1}; needsFrame false afterward so
// no frame auto-reschedules.
func TestScenarioS1HappyFrameVariantB(t *testing.T) {
	client := &fakeClient{
		monitors:      []shiftclient.MonitorInfo{testMonitor("M1", 60)},
		acquireResult: shiftclient.AcquireOK,
	}
	host := &fakeHost{}
	b := New(host, client, Config{Variant: PacingFrameDone, FDOwnership: FDOwnershipRetain, Logger: zerolog.Nop()})
	require.True(t, b.Start())

	out, ok := b.Output("M1")
	require.True(t, ok)

	modes := out.Modes()
	require.Len(t, modes, 1)
	assert.Equal(t, 60000, modes[0].RefreshMHz)
	assert.True(t, modes[0].Preferred)

	frameFired := 0
	out.Events().Frame = func() { frameFired++ }
	var presents []aquamarine.PresentEvent
	out.Events().Present = func(ev aquamarine.PresentEvent) { presents = append(presents, ev) }

	out.ScheduleFrame(aquamarine.ScheduleNeedsFrame)
	assert.Equal(t, 0, frameFired, "frame must wait for the idle tick")
	host.drainIdle()
	assert.Equal(t, 1, frameFired)

	buf, ok := out.Acquire()
	require.True(t, ok)
	require.True(t, out.Commit(aquamarine.CommitState{Buffer: buf, InFenceFD: -1}))
	assert.Equal(t, 1, client.swapBuffersCalls)
	assert.False(t, out.needsFrame, "commit must clear needsFrame")

	b.handleEvent(shiftclient.Event{Kind: shiftclient.EventFrameDone, MonitorID: "M1"}, nil)
	require.Len(t, presents, 1)
	assert.Equal(t, uint32(1), presents[0].Seq)
	assert.True(t, presents[0].VSync)
	assert.Equal(t, time.Second/60, presents[0].Refresh)
	assert.Empty(t, host.idle, "needsFrame was false, FRAME_DONE must not auto-reschedule")
}

// S2: buffer release paces frames, Variant A. Two commits exhaust both
// slots; a third scheduleFrame is refused; BUFFER_RELEASED frees a slot,
// presents, and - since needsFrame is still set - reschedules.
func TestScenarioS2BufferReleasePacesFramesVariantA(t *testing.T) {
	client := &fakeClient{
		monitors:            []shiftclient.MonitorInfo{testMonitor("M1", 60)},
		acquireResult:       shiftclient.AcquireOK,
		requestBufferResult: true,
	}
	host := &fakeHost{}
	b := New(host, client, Config{Variant: PacingFenceGated, FDOwnership: FDOwnershipClose, Logger: zerolog.Nop()})
	require.True(t, b.Start())
	out, _ := b.Output("M1")

	var presents []aquamarine.PresentEvent
	out.Events().Present = func(ev aquamarine.PresentEvent) { presents = append(presents, ev) }

	client.acquireSlot = 0
	out.ScheduleFrame(aquamarine.ScheduleNeedsFrame)
	host.drainIdle()
	buf0, ok := out.Acquire()
	require.True(t, ok)
	require.True(t, out.Commit(aquamarine.CommitState{Buffer: buf0, InFenceFD: -1}))
	assert.Equal(t, 1, out.swapchain.BusyCount())

	client.acquireSlot = 1
	out.ScheduleFrame(aquamarine.ScheduleNeedsFrame)
	host.drainIdle()
	buf1, ok := out.Acquire()
	require.True(t, ok)
	require.True(t, out.Commit(aquamarine.CommitState{Buffer: buf1, InFenceFD: -1}))
	assert.Equal(t, 2, out.swapchain.BusyCount())

	out.ScheduleFrame(aquamarine.ScheduleNeedsFrame)
	assert.Empty(t, host.idle, "no free slot: third scheduleFrame must not schedule")
	assert.True(t, out.needsFrame, "the request is still remembered")

	// Flush the fence-gated queue: two entries, one head processed per
	// DispatchEvents tick.
	b.DispatchEvents()
	b.DispatchEvents()
	assert.Equal(t, 2, client.requestBufferCalls)
	assert.Empty(t, presents, "Variant A presents only on BUFFER_RELEASED, not on submit")

	b.handleEvent(shiftclient.Event{Kind: shiftclient.EventBufferReleased, MonitorID: "M1", BufferIndex: 0}, nil)
	require.Len(t, presents, 1)
	assert.Equal(t, uint32(1), presents[0].Seq)
	assert.Equal(t, 1, out.swapchain.BusyCount())
	assert.NotEmpty(t, host.idle, "needsFrame true and a slot free again: must reschedule")
}

// S4: submit failure releases the slot it had just marked busy.
func TestScenarioS4SubmitFailureReleasesSlot(t *testing.T) {
	client := &fakeClient{
		monitors:            []shiftclient.MonitorInfo{testMonitor("M1", 60)},
		acquireResult:       shiftclient.AcquireOK,
		requestBufferResult: false,
	}
	host := &fakeHost{}
	b := New(host, client, Config{Variant: PacingFenceGated, FDOwnership: FDOwnershipClose, Logger: zerolog.Nop()})
	require.True(t, b.Start())
	out, _ := b.Output("M1")

	buf, ok := out.Acquire()
	require.True(t, ok)
	require.True(t, out.Commit(aquamarine.CommitState{Buffer: buf, InFenceFD: -1}))
	assert.Equal(t, 1, out.swapchain.BusyCount())

	b.DispatchEvents()
	assert.Equal(t, 1, client.requestBufferCalls)
	assert.Equal(t, 0, out.swapchain.BusyCount(), "refused submit must release the slot")
}

// Commit must not silently self-acquire: calling it without a prior
// Acquire (or with a nil CommitState.Buffer) is rejected outright.
func TestCommitWithoutAcquireRejected(t *testing.T) {
	client := &fakeClient{
		monitors:      []shiftclient.MonitorInfo{testMonitor("M1", 60)},
		acquireResult: shiftclient.AcquireOK,
	}
	host := &fakeHost{}
	b := New(host, client, Config{Variant: PacingFrameDone, FDOwnership: FDOwnershipRetain, Logger: zerolog.Nop()})
	require.True(t, b.Start())
	out, _ := b.Output("M1")

	assert.False(t, out.Commit(aquamarine.CommitState{InFenceFD: -1}), "commit with no Buffer must be rejected")
	assert.Equal(t, 0, client.acquireCalls, "Commit must never acquire on its own behalf")
	assert.Equal(t, 0, out.swapchain.BusyCount())
}

// S5: an event naming an unknown monitor is dropped with no side effects.
func TestScenarioS5UnknownMonitorEventDropped(t *testing.T) {
	client := &fakeClient{monitors: []shiftclient.MonitorInfo{testMonitor("M1", 60)}}
	host := &fakeHost{}
	b := New(host, client, Config{Variant: PacingFenceGated, FDOwnership: FDOwnershipClose, Logger: zerolog.Nop()})
	require.True(t, b.Start())

	out, _ := b.Output("M1")
	presented := false
	out.Events().Present = func(ev aquamarine.PresentEvent) { presented = true }

	b.handleEvent(shiftclient.Event{Kind: shiftclient.EventBufferReleased, MonitorID: "ghost", BufferIndex: 0}, nil)
	assert.False(t, presented)
	assert.Equal(t, 0, out.swapchain.BusyCount())
}

// A batch of several pointer and touch sub-events drained in one
// DispatchEvents call must fire exactly one Frame per dirty device, not
// one per sub-event.
func TestInputBatchEmitsOneFramePerDirtyDevice(t *testing.T) {
	client := &fakeClient{
		events: []shiftclient.Event{
			{Kind: shiftclient.EventInput, Input: shiftclient.InputEvent{Kind: shiftclient.InputPointerMotion, DX: 1, DY: 1}},
			{Kind: shiftclient.EventInput, Input: shiftclient.InputEvent{Kind: shiftclient.InputPointerButton, Code: 272, Pressed: true}},
			{Kind: shiftclient.EventInput, Input: shiftclient.InputEvent{Kind: shiftclient.InputTouchDown, TouchID: 0, X: 10, Y: 10}},
			{Kind: shiftclient.EventInput, Input: shiftclient.InputEvent{Kind: shiftclient.InputTouchUp, TouchID: 0}},
		},
	}
	host := &fakeHost{}
	b := New(host, client, Config{Variant: PacingFrameDone, FDOwnership: FDOwnershipRetain, Logger: zerolog.Nop()})

	pointerFrames, touchFrames := 0, 0
	host.events.NewPointer = func(p aquamarine.Pointer) { p.Events().Frame = func() { pointerFrames++ } }
	host.events.NewTouch = func(tt aquamarine.Touch) { tt.Events().Frame = func() { touchFrames++ } }

	b.DispatchEvents()
	assert.Equal(t, 1, pointerFrames, "two pointer sub-events must yield exactly one Frame")
	assert.Equal(t, 1, touchFrames, "two touch sub-events must yield exactly one Frame")
}

// S6: the first input event of a kind lazily creates its device and fires
// the host's newX event; later events reuse the same device instance.
func TestScenarioS6InputLazyCreation(t *testing.T) {
	client := &fakeClient{}
	host := &fakeHost{}
	b := New(host, client, Config{Variant: PacingFrameDone, FDOwnership: FDOwnershipRetain, Logger: zerolog.Nop()})

	newKeyboardCalls := 0
	var lastKeyboard aquamarine.Keyboard
	host.events.NewKeyboard = func(k aquamarine.Keyboard) {
		newKeyboardCalls++
		lastKeyboard = k
	}

	b.dispatchInput(shiftclient.InputEvent{Kind: shiftclient.InputKey, TimeUsec: 5_000_000, Code: 30, Pressed: true}, nil)
	require.Equal(t, 1, newKeyboardCalls)
	require.NotNil(t, lastKeyboard)

	// Hook the key callback only after the device exists, then fire a
	// second event and confirm it's the same instance (no second newKeyboard).
	var sawTimeMs uint32
	var sawPressed bool
	b.devices.keyboard.Events().Key = func(timeMs, key uint32, pressed bool) {
		sawTimeMs = timeMs
		sawPressed = pressed
	}
	b.dispatchInput(shiftclient.InputEvent{Kind: shiftclient.InputKey, TimeUsec: 8_000_000, Code: 30, Pressed: false}, nil)
	assert.Equal(t, 1, newKeyboardCalls, "second event must reuse the existing keyboard")
	assert.Equal(t, uint32(8000), sawTimeMs, "session microseconds truncate to host milliseconds")
	assert.False(t, sawPressed)
}

func TestOutputDestroyIsIdempotent(t *testing.T) {
	client := &fakeClient{monitors: []shiftclient.MonitorInfo{testMonitor("M1", 60)}}
	host := &fakeHost{}
	b := New(host, client, Config{Variant: PacingFrameDone, FDOwnership: FDOwnershipRetain, Logger: zerolog.Nop()})
	require.True(t, b.Start())

	destroyCalls := 0
	out, _ := b.Output("M1")
	out.Events().Destroy = func() { destroyCalls++ }

	b.removeOutput("M1")
	assert.Equal(t, 1, destroyCalls)
	_, ok := b.Output("M1")
	assert.False(t, ok)

	// A second destroy call on the already-removed output must not panic
	// or re-emit.
	assert.True(t, out.Destroy())
	assert.Equal(t, 1, destroyCalls)
}

func TestBackendGetRenderFormatsDelegatesToPeer(t *testing.T) {
	client := &fakeClient{}
	host := &fakeHost{}
	b := New(host, client, Config{Variant: PacingFrameDone, FDOwnership: FDOwnershipRetain, Logger: zerolog.Nop()})

	// No peer: falls back to the two-entry default.
	fmts := b.GetRenderFormats()
	require.Len(t, fmts, 2)

	peerFormats := []aquamarine.DRMFormat{{Fourcc: 0xdeadbeef}}
	host.impls = append(host.impls, &stubBackendImpl{kind: aquamarine.BackendDRM, fmts: peerFormats})

	fmts = b.GetRenderFormats()
	assert.Equal(t, peerFormats, fmts)
}

func TestBackendGetRenderFormatsSkipsEmptyPeer(t *testing.T) {
	client := &fakeClient{}
	host := &fakeHost{}
	b := New(host, client, Config{Variant: PacingFrameDone, FDOwnership: FDOwnershipRetain, Logger: zerolog.Nop()})
	host.impls = append(host.impls, &stubBackendImpl{kind: aquamarine.BackendDRM, fmts: nil})

	fmts := b.GetRenderFormats()
	require.Len(t, fmts, 2)
}

// stubBackendImpl is a minimal peer BackendImplementation stand-in; every
// method besides Type/GetRenderFormats panics if a test exercises it,
// since GetRenderFormats delegation never calls them.
type stubBackendImpl struct {
	aquamarine.BackendImplementation
	kind aquamarine.BackendType
	fmts []aquamarine.DRMFormat
}

func (s *stubBackendImpl) Type() aquamarine.BackendType          { return s.kind }
func (s *stubBackendImpl) GetRenderFormats() []aquamarine.DRMFormat { return s.fmts }
