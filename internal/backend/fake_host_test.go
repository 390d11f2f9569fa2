package backend

import "github.com/ardos-os/aquamarine-shift/aquamarine"

// fakeHost is a minimal aquamarine.Host for single-threaded unit tests: idle
// callbacks queue up and only run when the test explicitly drains them,
// mirroring the host's real idle-tick semantics without a poll loop.
type fakeHost struct {
	events aquamarine.BackendEvents
	idle   []func()
	impls  []aquamarine.BackendImplementation
}

var _ aquamarine.Host = (*fakeHost)(nil)

func (h *fakeHost) AddIdleEvent(cb func()) { h.idle = append(h.idle, cb) }

func (h *fakeHost) RemoveIdleEvent(cb func()) {
	// Tests observe removal through Output.frameScheduled rather than
	// relying on Go func identity, so this is a no-op stand-in.
}

func (h *fakeHost) PollFDsChanged() {}

func (h *fakeHost) Events() *aquamarine.BackendEvents { return &h.events }

func (h *fakeHost) Implementations() []aquamarine.BackendImplementation { return h.impls }

func (h *fakeHost) PrimaryAllocator() aquamarine.Allocator { return nil }

// drainIdle runs and clears every queued idle callback, once, matching one
// host idle tick.
func (h *fakeHost) drainIdle() {
	pending := h.idle
	h.idle = nil
	for _, cb := range pending {
		cb()
	}
}
