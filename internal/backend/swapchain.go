package backend

import (
	"fmt"

	"github.com/ardos-os/aquamarine-shift/aquamarine"
	"github.com/ardos-os/aquamarine-shift/internal/shiftclient"
)

// SwapchainOptions describes the fixed geometry/format a swapchain renders
// into. Reconfigure replaces these wholesale; there is no partial update.
type SwapchainOptions struct {
	Length int
	Size   aquamarine.Vector2D
	Format aquamarine.DRMFormat
}

const swapchainLength = 2

// Swapchain paces acquire/commit/release across the two-slot buffer ring a
// session monitor exposes. It does not own the session client; callers
// construct one swapchain per monitor and discard it on MONITOR_REMOVED.
//
// Exactly one acquired-but-not-yet-committed buffer may exist at a time
// (pendingIndex); a second Next before Rollback or TakePending is a caller
// bug and returns an error rather than silently clobbering the first.
type Swapchain struct {
	client    shiftclient.Client
	monitorID string
	ownership FDOwnership
	opts      SwapchainOptions

	busy         [swapchainLength]bool
	pending      *Buffer
	pendingIndex int
}

// NewSwapchain builds a swapchain bound to monitorID on client. ownership
// selects whether acquired buffers close their fd on release (Variant A) or
// leave it to the session (Variant B); see FDOwnership.
func NewSwapchain(client shiftclient.Client, monitorID string, ownership FDOwnership, opts SwapchainOptions) *Swapchain {
	return &Swapchain{
		client:    client,
		monitorID: monitorID,
		ownership: ownership,
		opts:      opts,
	}
}

// Reconfigure replaces the swapchain's geometry/format. Any in-flight
// acquired-but-uncommitted buffer is rolled back first since its format no
// longer matches.
func (s *Swapchain) Reconfigure(opts SwapchainOptions) {
	if s.pending != nil {
		s.Rollback()
	}
	s.opts = opts
}

// Next acquires the next renderable buffer from the session. It fails if a
// buffer is already pending (the caller must Rollback or TakePending first),
// if every slot is marked busy, or if the session reports a slot index
// outside [0, Length) or one already marked busy.
func (s *Swapchain) Next() (*Buffer, int, error) {
	if s.pending != nil {
		return nil, 0, fmt.Errorf("backend: swapchain %s: acquire already pending", s.monitorID)
	}
	if s.HasAvailableBuffer() == false {
		return nil, 0, fmt.Errorf("backend: swapchain %s: no free slot", s.monitorID)
	}

	target, res := s.client.AcquireFrame(s.monitorID)
	if res != shiftclient.AcquireOK {
		return nil, 0, fmt.Errorf("backend: swapchain %s: acquire frame: result %d", s.monitorID, res)
	}

	slot := int(target.SlotIndex)
	if slot < 0 || slot >= s.length() {
		return nil, 0, fmt.Errorf("backend: swapchain %s: session reported out-of-range slot %d", s.monitorID, slot)
	}
	if s.busy[slot] {
		return nil, 0, fmt.Errorf("backend: swapchain %s: session reported already-busy slot %d", s.monitorID, slot)
	}

	buf := newBuffer(target, slot, s.ownership)
	s.pending = buf
	s.pendingIndex = slot
	return buf, slot, nil
}

// length reports the configured ring depth, defaulting to swapchainLength
// when unset (the zero value of SwapchainOptions.Length).
func (s *Swapchain) length() int {
	if s.opts.Length > 0 {
		return s.opts.Length
	}
	return swapchainLength
}

// Rollback discards the pending acquired buffer without marking its slot
// busy, closing its fd per the ownership policy. Used when a render attempt
// is abandoned (Reconfigure, Output.Destroy).
func (s *Swapchain) Rollback() {
	if s.pending == nil {
		return
	}
	_ = s.pending.Close()
	s.pending = nil
	s.pendingIndex = 0
}

// TakePending hands the pending buffer to the caller for submission,
// marking its slot busy and clearing the pending state. The caller becomes
// responsible for eventually calling Release once the session reports the
// slot free again.
func (s *Swapchain) TakePending() (*Buffer, bool) {
	if s.pending == nil {
		return nil, false
	}
	buf := s.pending
	s.busy[s.pendingIndex] = true
	s.pending = nil
	s.pendingIndex = 0
	return buf, true
}

// MarkBusy marks slot busy directly, for pacing variants that submit
// without going through TakePending (not currently used by either variant,
// kept for symmetry with Release and for tests that drive the state
// machine directly).
func (s *Swapchain) MarkBusy(slot int) bool {
	if slot < 0 || slot >= s.length() {
		return false
	}
	s.busy[slot] = true
	return true
}

// Release marks slot free again, in response to a BUFFER_RELEASED event.
// Releasing an already-free slot is a no-op, not an error: duplicate
// release notifications are tolerated per the session event contract.
func (s *Swapchain) Release(slot int) bool {
	if slot < 0 || slot >= s.length() {
		return false
	}
	s.busy[slot] = false
	return true
}

// HasAvailableBuffer reports whether at least one slot is free to acquire
// into.
func (s *Swapchain) HasAvailableBuffer() bool {
	for i := 0; i < s.length(); i++ {
		if !s.busy[i] {
			return true
		}
	}
	return false
}

// BusyCount returns the number of slots currently marked busy.
func (s *Swapchain) BusyCount() int {
	n := 0
	for i := 0; i < s.length(); i++ {
		if s.busy[i] {
			n++
		}
	}
	return n
}
