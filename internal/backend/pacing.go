package backend

import (
	"github.com/rs/zerolog"

	"github.com/ardos-os/aquamarine-shift/aquamarine"
)

// PacingVariant selects which of the two present-loop strategies the
// session protocol exposes. The backend takes it from Config.Variant;
// cmd/aquamarine-shiftd serve selects it with --fence-gated.
type PacingVariant int

const (
	// PacingFrameDone submits eagerly and waits for a single outstanding
	// FRAME_DONE before allowing the next submit (Variant B: simpler,
	// lower throughput, used by older Shift runtimes).
	PacingFrameDone PacingVariant = iota
	// PacingFenceGated submits through a per-monitor FIFO gated on the
	// buffer's acquire fence becoming signaled, polled with a zero-timeout
	// poll so the event-loop thread never blocks (Variant A).
	PacingFenceGated
)

// pacer is the strategy interface Output submits through and consults for
// its scheduleFrame pacing precondition. Keeping it behind an interface
// lets each backend instance run either variant (one pacer serves all its
// monitors) without the rest of the package caring which one is active.
type pacer interface {
	// submit hands a just-acquired buffer to the session. inFenceFD is the
	// host-supplied GPU in-fence fd from CommitState, or -1. Returns false
	// if the buffer could not be queued at all (the caller is responsible
	// for nothing further: a queued-but-later-refused submit releases its
	// own slot asynchronously).
	submit(o *Output, buf *Buffer, inFenceFD int) bool
	// canScheduleFrame reports whether the pacing precondition currently
	// allows promising the host another frame for o.
	canScheduleFrame(o *Output) bool
	// pump is called once per DispatchEvents cycle to let a variant make
	// forward progress that isn't driven by a session event (the
	// fence-gated variant polls its queue here; the frame-done variant is
	// a no-op since it only advances on FRAME_DONE).
	pump()
	// pendingFDs returns every fd the host's poll loop should watch on this
	// variant's behalf so a signal wakes DispatchEvents instead of relying
	// on the host polling unconditionally every tick. The frame-done
	// variant has none: it only ever advances on a session event.
	pendingFDs() []int
}

func newPacer(variant PacingVariant, log zerolog.Logger) pacer {
	switch variant {
	case PacingFenceGated:
		return newFenceGatedPacer(log)
	default:
		return newFrameDonePacer(log)
	}
}

// frameDoneState tracks the single outstanding submit Variant A's sibling
// permits per monitor: which slot it used, so FRAME_DONE (which carries no
// slot index of its own) knows what to release.
type frameDoneState struct {
	awaiting bool
	slot     int
}

// frameDonePacer implements Variant B: at most one outstanding submit per
// monitor, advanced by onFrameDone.
type frameDonePacer struct {
	log   zerolog.Logger
	state map[string]*frameDoneState
}

func newFrameDonePacer(log zerolog.Logger) *frameDonePacer {
	return &frameDonePacer{log: log, state: map[string]*frameDoneState{}}
}

func (p *frameDonePacer) stateFor(monitorID string) *frameDoneState {
	st, ok := p.state[monitorID]
	if !ok {
		st = &frameDoneState{}
		p.state[monitorID] = st
	}
	return st
}

func (p *frameDonePacer) submit(o *Output, buf *Buffer, _ int) bool {
	st := p.stateFor(o.monitorID)
	if st.awaiting {
		// ScheduleFrame's pacing precondition should prevent the host from
		// ever committing again before FRAME_DONE; reaching this branch is
		// a caller bug, not expected backpressure. Treat it as a submit
		// failure: release the slot Commit already marked busy rather than
		// leaking it forever with no event to free it.
		o.log.Warn().Msg("commit attempted while awaiting prior FRAME_DONE")
		_ = buf.Close()
		o.swapchain.Release(buf.Slot())
		return false
	}
	st.awaiting = true
	st.slot = buf.Slot()
	o.backend.client.SwapBuffers(o.monitorID)
	return true
}

func (p *frameDonePacer) canScheduleFrame(o *Output) bool {
	return !p.stateFor(o.monitorID).awaiting
}

func (p *frameDonePacer) pump() {}

func (p *frameDonePacer) pendingFDs() []int { return nil }

// onFrameDone clears the single-outstanding gate for o's monitor, releases
// the slot that was awaiting confirmation, signals the output that a
// present completed, and re-arms the frame callback if the host still
// wants one.
func (p *frameDonePacer) onFrameDone(o *Output) {
	st := p.stateFor(o.monitorID)
	if !st.awaiting {
		o.log.Warn().Msg("FRAME_DONE with no outstanding submit")
		return
	}
	st.awaiting = false
	o.swapchain.Release(st.slot)
	o.onPresented(true)
	if o.needsFrame {
		o.ScheduleFrame(aquamarine.ScheduleNeedsFrame)
	}
}
