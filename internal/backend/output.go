package backend

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ardos-os/aquamarine-shift/aquamarine"
	"github.com/ardos-os/aquamarine-shift/internal/shiftclient"
)

// Output adapts one session monitor to the host's aquamarine.Output
// contract. It owns a Swapchain and tracks present-loop bookkeeping
// (sequence number, last present time, the needsFrame/frameScheduled pair
// that lets repeated ScheduleFrame calls within one cycle coalesce into one
// deferred notification while still remembering a request the pacing
// precondition forced it to defer).
type Output struct {
	backend *Backend
	log     zerolog.Logger

	monitorID       string
	name            string
	size            aquamarine.Vector2D
	refreshHz       int32
	refreshInterval time.Duration // 10^9/Hz, 0 if Hz<=0

	swapchain *Swapchain
	events    aquamarine.OutputEvents

	presentSeq     uint32
	lastPresent    time.Time
	needsFrame     bool
	frameScheduled bool
	idleCB         func()
	destroyed      bool
}

var _ aquamarine.Output = (*Output)(nil)

func newOutput(b *Backend, info shiftclient.MonitorInfo, ownership FDOwnership) *Output {
	var refreshInterval time.Duration
	if info.RefreshHz > 0 {
		refreshInterval = time.Second / time.Duration(info.RefreshHz)
	}
	o := &Output{
		backend:         b,
		log:             b.log.With().Str("monitor", info.ID).Logger(),
		monitorID:       info.ID,
		name:            info.Name,
		size:            aquamarine.Vector2D{X: float64(info.Width), Y: float64(info.Height)},
		refreshHz:       info.RefreshHz,
		refreshInterval: refreshInterval,
	}
	o.swapchain = NewSwapchain(b.client, info.ID, ownership, SwapchainOptions{
		Size:   o.size,
		Format: aquamarine.DRMFormat{Fourcc: aquamarine.FourccXRGB8888},
	})
	return o
}

func (o *Output) Name() string { return o.name }

func (o *Output) PhysicalSize() aquamarine.Vector2D { return o.size }

// Modes reports a single preferred mode built from the monitor's reported
// refresh rate (falling back to 60Hz when the session reports none), per
// §9 Open Question 5: multi-mode negotiation is out of scope.
func (o *Output) Modes() []aquamarine.Mode {
	hz := int(o.refreshHz)
	if hz <= 0 {
		hz = 60
	}
	return []aquamarine.Mode{{Size: o.size, RefreshMHz: hz * 1000, Preferred: true}}
}

func (o *Output) Events() *aquamarine.OutputEvents { return &o.events }

func (o *Output) Backend() aquamarine.BackendImplementation { return o.backend }

// Acquire obtains the next renderable buffer from the swapchain without
// touching busy state (§4.1 "separating acquire from commit"). The host
// renders into the returned buffer, then hands the same buffer back via
// CommitState.Buffer to Commit. Returns false if no slot is free or the
// session refuses the acquire.
func (o *Output) Acquire() (aquamarine.Buffer, bool) {
	if o.destroyed {
		return nil, false
	}
	if !o.swapchain.HasAvailableBuffer() {
		o.log.Debug().Msg("acquire skipped: no free swapchain slot")
		return nil, false
	}
	buf, _, err := o.swapchain.Next()
	if err != nil {
		o.log.Warn().Err(err).Msg("swapchain acquire failed")
		return nil, false
	}
	return buf, true
}

// Commit consumes the buffer a prior Acquire call staged as pending, fires
// the Commit event, clears needsFrame (the request
// this commit satisfies), then submits the buffer to the session through
// the active pacing variant. It never acquires on its own behalf: a commit
// with no matching prior Acquire is rejected.
func (o *Output) Commit(state aquamarine.CommitState) bool {
	if o.destroyed {
		return false
	}
	if state.Buffer == nil {
		o.log.Warn().Msg("commit called without a prior Acquire")
		return false
	}

	buf, ok := o.swapchain.TakePending()
	if !ok {
		o.log.Warn().Msg("commit called with no acquire pending")
		return false
	}
	if sb, ok := state.Buffer.(*Buffer); !ok || sb != buf {
		o.log.Warn().Msg("commit buffer does not match the pending acquire")
	}

	if o.events.Commit != nil {
		o.events.Commit()
	}
	o.needsFrame = false

	return o.backend.pacing.submit(o, buf, state.InFenceFD)
}

// Test succeeds unless the output is destroyed: it never consumes the pending buffer,
// so a prior Acquire remains available for a subsequent Commit or Rollback.
func (o *Output) Test(state aquamarine.CommitState) bool {
	return !o.destroyed
}

// ScheduleFrame sets needsFrame unconditionally (a request for a future
// frame is remembered even when it can't be granted immediately), then
// coalesces into a single deferred Frame event, queued on the host's idle
// mechanism, subject to the pacing precondition: no new frame may be
// promised while every slot is busy (fence-gated variant) or while a prior
// submit hasn't reported FRAME_DONE yet (frame-done variant).
func (o *Output) ScheduleFrame(reason aquamarine.ScheduleFrameReason) {
	if o.destroyed {
		return
	}
	o.needsFrame = true
	if o.frameScheduled {
		return
	}
	if !o.backend.pacing.canScheduleFrame(o) {
		return
	}

	o.frameScheduled = true
	o.idleCB = func() {
		o.frameScheduled = false
		o.idleCB = nil
		if o.destroyed {
			return
		}
		if !o.backend.pacing.canScheduleFrame(o) {
			return
		}
		if o.events.Frame != nil {
			o.events.Frame()
		}
	}
	o.backend.host.AddIdleEvent(o.idleCB)
}

// Destroy emits the host Destroy event and removes self from the backend's
// output list. Idempotent: a second call is a no-op, matching the host
// contract that permits redundant destroy calls. Returns true once the
// output is (or already was) torn down.
func (o *Output) Destroy() bool {
	if o.destroyed {
		return true
	}
	o.destroyed = true
	if cur, ok := o.backend.outputs[o.monitorID]; ok && cur == o {
		delete(o.backend.outputs, o.monitorID)
	}
	if o.frameScheduled && o.idleCB != nil {
		o.backend.host.RemoveIdleEvent(o.idleCB)
		o.frameScheduled = false
		o.idleCB = nil
	}
	o.swapchain.Rollback()
	if o.events.Destroy != nil {
		o.events.Destroy()
	}
	return true
}

// GetRenderFormats delegates to the backend (§4.2): the tab backend itself
// decides whether to pass through a peer DRM backend's formats or fall
// back to the two-entry default.
func (o *Output) GetRenderFormats() []aquamarine.DRMFormat {
	return o.backend.GetRenderFormats()
}

// BusyBufferCount reports how many of this output's swapchain slots are
// currently busy (0..2), for callers (the debug observer) that want to
// watch swapchain saturation without reaching into backend internals.
func (o *Output) BusyBufferCount() int {
	return o.swapchain.BusyCount()
}

// onPresented records a present-loop completion: bumps the sequence
// number, stamps the monotonic present time, and emits the host Present
// event with the output's static refresh interval (not a measured
// inter-frame delta - §4.3 fixes this to 10^9/Hz, zero if Hz is unknown).
// Called by the pacing engine once the session confirms display
// (BUFFER_RELEASED in Variant A, FRAME_DONE in Variant B).
func (o *Output) onPresented(vsync bool) {
	o.presentSeq++
	o.lastPresent = time.Now()
	if o.events.Present != nil {
		o.events.Present(aquamarine.PresentEvent{
			Presented: true,
			When:      o.lastPresent,
			Seq:       o.presentSeq,
			Refresh:   o.refreshInterval,
			VSync:     vsync,
		})
	}
}

// onBufferReleased handles a BUFFER_RELEASED event for this output
// (Variant A): frees the reported slot, emits Present, and - if the host
// still wants another frame and a slot is now free - re-arms the frame
// callback.
func (o *Output) onBufferReleased(slot uint32) {
	if !o.swapchain.Release(int(slot)) {
		o.log.Warn().Uint32("slot", slot).Msg("buffer released for out-of-range slot")
		return
	}
	o.onPresented(true)
	if o.needsFrame {
		o.ScheduleFrame(aquamarine.ScheduleNeedsFrame)
	}
}
