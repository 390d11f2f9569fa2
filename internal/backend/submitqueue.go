package backend

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// pendingSubmit is one buffer waiting on its acquire fence before it can be
// requested from the session. traceID exists purely for log correlation:
// it is logged when the buffer is queued and again if the session refuses
// the submit, which can be many DispatchEvents cycles later.
type pendingSubmit struct {
	traceID uuid.UUID
	output  *Output
	buf     *Buffer
	fenceFD int
}

// fenceGatedPacer implements Variant A: a per-monitor FIFO of buffers
// waiting on their acquire fence. Each pump() does a zero-timeout poll of
// each monitor's head-of-queue fence fd (POLLIN|POLLERR|POLLHUP) so the event-loop
// thread never blocks; a fence that signals ERR or HUP is treated as
// signaled rather than retried forever. Presenting is NOT done at submit
// time: RequestBuffer only hands the buffer to the session, and the actual
// present (sequence bump, Present event, slot release) waits for the
// session's async BUFFER_RELEASED notification - see Output.onBufferReleased.
type fenceGatedPacer struct {
	log    zerolog.Logger
	queues map[string][]*pendingSubmit
}

func newFenceGatedPacer(log zerolog.Logger) *fenceGatedPacer {
	return &fenceGatedPacer{log: log, queues: map[string][]*pendingSubmit{}}
}

// submit duplicates the host's in-fence fd (close-on-exec, per §5) if one
// was supplied and queues the buffer behind any earlier still-unsignaled
// submit for the same monitor. Queuing always "succeeds" here; a later
// session refusal surfaces asynchronously from pump() as a submit failure.
func (p *fenceGatedPacer) submit(o *Output, buf *Buffer, inFenceFD int) bool {
	fenceFD := -1
	if inFenceFD >= 0 {
		dup, err := unix.FcntlInt(uintptr(inFenceFD), unix.F_DUPFD_CLOEXEC, 0)
		if err != nil {
			o.log.Warn().Err(err).Msg("acquire-fence dup failed; submitting without fence")
		} else {
			fenceFD = dup
		}
	}
	ps := &pendingSubmit{
		traceID: uuid.New(),
		output:  o,
		buf:     buf,
		fenceFD: fenceFD,
	}
	p.queues[o.monitorID] = append(p.queues[o.monitorID], ps)
	p.log.Debug().Str("trace", ps.traceID.String()).Str("monitor", o.monitorID).Msg("buffer queued pending fence")
	o.backend.host.PollFDsChanged()
	return true
}

// canScheduleFrame is the Variant A pacing precondition: another frame may
// be promised only while at least one swapchain slot is free.
func (p *fenceGatedPacer) canScheduleFrame(o *Output) bool {
	return o.swapchain.HasAvailableBuffer()
}

func (p *fenceGatedPacer) pump() {
	var dequeuedFrom *Output
	for monitorID, queue := range p.queues {
		if len(queue) == 0 {
			continue
		}
		// FIFO: only the head can be released this cycle; a later entry
		// signaling first still waits its turn, matching the ordering
		// guarantee that scanout happens in submit order per monitor.
		head := queue[0]
		if !fenceSignaled(head.fenceFD) {
			continue
		}
		if head.fenceFD >= 0 {
			_ = unix.Close(head.fenceFD)
		}

		ok := head.output.backend.client.RequestBuffer(monitorID, -1)
		if !ok {
			p.log.Warn().Str("trace", head.traceID.String()).Msg("session refused fence-gated submit")
			_ = head.buf.Close()
			head.output.swapchain.Release(head.buf.Slot())
		}
		// On success the slot stays busy until the session's async
		// BUFFER_RELEASED event reports it free; that event is also what
		// drives the Present emission (see Output.onBufferReleased).
		p.queues[monitorID] = queue[1:]
		dequeuedFrom = head.output
	}
	// A dequeued fence fd is no longer being polled; tell the host to
	// rebuild its poll set so it stops watching an fd this pacer already
	// closed.
	if dequeuedFrom != nil {
		dequeuedFrom.backend.host.PollFDsChanged()
	}
}

// pendingFDs returns the head-of-queue fence fd for every monitor with an
// outstanding submit: only the head can make progress on any given pump
// (FIFO), so only it needs to wake the host's poll loop. Queued entries with
// no fence (fenceFD -1, already "signaled") contribute nothing to poll.
func (p *fenceGatedPacer) pendingFDs() []int {
	var fds []int
	for _, queue := range p.queues {
		if len(queue) == 0 {
			continue
		}
		if fd := queue[0].fenceFD; fd >= 0 {
			fds = append(fds, fd)
		}
	}
	return fds
}

// fenceSignaled polls fd with a zero timeout. A negative fd (no fence
// supplied) is treated as already signaled. POLLERR/POLLHUP are treated as
// signaled too: the fence will never become readable again and blocking on
// it further would stall the monitor's present loop permanently.
func fenceSignaled(fd int) bool {
	if fd < 0 {
		return true
	}
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN | unix.POLLERR | unix.POLLHUP}}
	n, err := unix.Poll(fds, 0)
	if err != nil || n == 0 {
		return false
	}
	return fds[0].Revents&(unix.POLLIN|unix.POLLERR|unix.POLLHUP) != 0
}
