package backend

import "github.com/ardos-os/aquamarine-shift/internal/shiftclient"

// drainEvents polls the session for new events and processes every one
// currently queued, rather than stopping after the first. The session
// socket is edge-triggered from the host's point of view (one readability
// notification can carry many queued events), so handling only the first
// event per DispatchEvents call would silently stall input and present
// completion under load.
// drainEvents also aggregates pointer/touch dirty state across the whole
// batch and emits at most one Frame per dirty device once the queue is
// empty (§4.4), rather than once per input sub-event.
func (b *Backend) drainEvents() {
	b.client.PollEvents()
	var dirty inputDirty
	for {
		ev, ok := b.client.NextEvent()
		if !ok {
			break
		}
		b.handleEvent(ev, &dirty)
	}
	if dirty.pointer && b.devices.pointer != nil {
		b.devices.pointer.NotifyFrame()
	}
	if dirty.touch && b.devices.touch != nil {
		b.devices.touch.NotifyFrame()
	}
}

func (b *Backend) handleEvent(ev shiftclient.Event, dirty *inputDirty) {
	switch ev.Kind {
	case shiftclient.EventBufferReleased:
		if ev.MonitorID == "" {
			b.log.Warn().Msg("buffer released event with no monitor id")
			return
		}
		if out, ok := b.outputs[ev.MonitorID]; ok {
			out.onBufferReleased(ev.BufferIndex)
		} else {
			b.log.Warn().Str("monitor", ev.MonitorID).Msg("buffer released for unknown monitor")
		}

	case shiftclient.EventFrameDone:
		if ev.MonitorID == "" {
			b.log.Warn().Msg("frame done event with no monitor id")
			return
		}
		if out, ok := b.outputs[ev.MonitorID]; ok {
			if fd, ok := b.pacing.(*frameDonePacer); ok {
				fd.onFrameDone(out)
			}
		} else {
			b.log.Warn().Str("monitor", ev.MonitorID).Msg("frame done for unknown monitor")
		}

	case shiftclient.EventMonitorAdded:
		b.addOutput(ev.MonitorInfo)

	case shiftclient.EventMonitorRemoved:
		if ev.MonitorID == "" {
			b.log.Warn().Msg("monitor removed event with no monitor id")
			return
		}
		b.removeOutput(ev.MonitorID)

	case shiftclient.EventInput:
		b.dispatchInput(ev.Input, dirty)

	default:
		b.log.Debug().Int("kind", int(ev.Kind)).Msg("unhandled session event kind")
	}
}

func (b *Backend) addOutput(info shiftclient.MonitorInfo) {
	if _, exists := b.outputs[info.ID]; exists {
		b.log.Warn().Str("monitor", info.ID).Msg("duplicate monitor-added event ignored")
		return
	}
	out := newOutput(b, info, b.fdOwnership)
	b.outputs[info.ID] = out
	b.host.PollFDsChanged()
	if ev := b.host.Events().NewOutput; ev != nil {
		ev(out)
	}
}

func (b *Backend) removeOutput(monitorID string) {
	out, ok := b.outputs[monitorID]
	if !ok {
		b.log.Warn().Str("monitor", monitorID).Msg("monitor-removed event for unknown monitor")
		return
	}
	delete(b.outputs, monitorID)
	out.Destroy()
	b.host.PollFDsChanged()
}
