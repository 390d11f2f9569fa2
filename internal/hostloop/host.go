// Package hostloop provides a standalone aquamarine.Host: a single-threaded
// poll loop that drives backend.DispatchEvents off the fds a backend
// registers, plus an idle-callback queue drained once per iteration. A real
// compositor has its own event loop and implements aquamarine.Host itself;
// this one exists so aquamarine-shiftd serve can run a Tab backend without a
// host compositor attached, for manual testing.
package hostloop

import (
	"context"
	"reflect"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/ardos-os/aquamarine-shift/aquamarine"
)

// Loop is a minimal, single-threaded aquamarine.Host. All exported methods
// are only safe to call from the goroutine running Run, matching the
// one-thread concurrency contract the backend itself assumes.
type Loop struct {
	log zerolog.Logger

	events  aquamarine.BackendEvents
	impls   []aquamarine.BackendImplementation
	idle    []func()
	primary aquamarine.Allocator
	dirty   bool
}

var _ aquamarine.Host = (*Loop)(nil)

// New builds an empty Loop. Register backends with AddBackend before Run.
func New(log zerolog.Logger) *Loop {
	return &Loop{log: log}
}

// AddBackend registers impl so Run polls its fds and dispatches its
// events.
func (l *Loop) AddBackend(impl aquamarine.BackendImplementation) {
	l.impls = append(l.impls, impl)
}

func (l *Loop) AddIdleEvent(cb func()) {
	l.idle = append(l.idle, cb)
}

// RemoveIdleEvent removes the first queued callback pointer-equal to cb.
// Go gives no portable func-pointer equality in general, but closures
// captured once (as ScheduleFrame does, one per Output per cycle) compare
// equal to themselves by identity here since reflect.Value.Pointer is
// stable for a single non-inlined closure value; callers that need removal
// semantics stronger than "the exact value passed" should track their own
// cancellation flag instead.
func (l *Loop) RemoveIdleEvent(cb func()) {
	for i, f := range l.idle {
		if funcsEqual(f, cb) {
			l.idle = append(l.idle[:i], l.idle[i+1:]...)
			return
		}
	}
}

func (l *Loop) Events() *aquamarine.BackendEvents { return &l.events }

func (l *Loop) Implementations() []aquamarine.BackendImplementation { return l.impls }

func (l *Loop) PrimaryAllocator() aquamarine.Allocator { return l.primary }

// PollFDsChanged marks the fd set dirty; Run recomputes it at the top of
// its next iteration rather than mid-poll.
func (l *Loop) PollFDsChanged() {
	l.dirty = true
}

// Run polls every registered backend's fds until ctx is cancelled, calling
// OnReady for whichever fds become readable and draining the idle queue
// once per iteration. pollTimeout bounds how long a single iteration can
// block with nothing to do, so idle callbacks queued from outside the poll
// (e.g. a signal handler) still get a chance to run promptly.
func (l *Loop) Run(ctx context.Context, pollTimeout time.Duration) error {
	var fds []unix.PollFd
	var callbacks []func()

	rebuild := func() {
		fds = fds[:0]
		callbacks = callbacks[:0]
		for _, impl := range l.impls {
			for _, pfd := range impl.PollFDs() {
				fds = append(fds, unix.PollFd{Fd: int32(pfd.FD), Events: unix.POLLIN})
				callbacks = append(callbacks, pfd.OnReady)
			}
		}
		l.dirty = false
	}
	rebuild()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if l.dirty {
			rebuild()
		}

		n, err := unix.Poll(fds, int(pollTimeout.Milliseconds()))
		if err != nil && err != unix.EINTR {
			return err
		}
		if n > 0 {
			for i, pfd := range fds {
				if pfd.Revents&(unix.POLLIN|unix.POLLERR|unix.POLLHUP) != 0 && callbacks[i] != nil {
					callbacks[i]()
				}
			}
		}

		for _, impl := range l.impls {
			impl.DispatchEvents()
		}

		pending := l.idle
		l.idle = nil
		for _, cb := range pending {
			cb()
		}
	}
}

func funcsEqual(a, b func()) bool {
	return a != nil && b != nil && reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
