// Package backend implements the Tab BackendImplementation: it adapts a
// nested Shift session (internal/shiftclient) to the host's aquamarine
// contract, pacing swapchain submission across the session's two pacing
// variants and fanning session input out to lazily-created virtual
// devices.
package backend

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ardos-os/aquamarine-shift/aquamarine"
	"github.com/ardos-os/aquamarine-shift/internal/shiftclient"
)

// passthroughAllocator is the degenerate Allocator the Tab backend reports:
// it never allocates buffers itself, since the nested session is always
// the one supplying DMA-BUFs via AcquireFrame.
type passthroughAllocator struct{}

func (passthroughAllocator) Name() string { return "tab-session-passthrough" }

// Backend is the Tab BackendImplementation. One instance wraps one
// connected session client; monitors, keyboards, pointers and the rest
// come and go for as long as the session reports them.
type Backend struct {
	host   aquamarine.Host
	client shiftclient.Client
	log    zerolog.Logger

	fdOwnership FDOwnership
	pacing      pacer

	outputs map[string]*Output
	devices devices

	started bool
}

var _ aquamarine.BackendImplementation = (*Backend)(nil)

// Config carries the knobs New needs beyond the host/client it's handed:
// which pacing variant to run and the fd ownership policy that goes with
// it, plus the logger to derive per-component loggers from.
type Config struct {
	Variant     PacingVariant
	FDOwnership FDOwnership
	Logger      zerolog.Logger
}

// New builds a Backend bound to client, not yet started. host and client
// must outlive the Backend.
func New(host aquamarine.Host, client shiftclient.Client, cfg Config) *Backend {
	log := cfg.Logger.With().Str("component", "tab-backend").Logger()
	return &Backend{
		host:        host,
		client:      client,
		log:         log,
		fdOwnership: cfg.FDOwnership,
		pacing:      newPacer(cfg.Variant, log),
		outputs:     map[string]*Output{},
	}
}

func (b *Backend) Type() aquamarine.BackendType { return aquamarine.BackendTab }

// Start enumerates the monitors the session already knows about and
// registers an Output for each; monitors announced later arrive via
// MONITOR_ADDED through DispatchEvents. It returns false if the client was
// never connected (ownership of connecting is the caller's, so this is
// just a readiness check).
func (b *Backend) Start() bool {
	if b.client == nil {
		b.log.Error().Msg("start called with no session client")
		return false
	}

	count := b.client.MonitorCount()
	for i := 0; i < count; i++ {
		id := b.client.MonitorIDAt(i)
		if id == "" {
			continue
		}
		info, ok := b.client.MonitorInfo(id)
		if !ok {
			b.log.Warn().Str("monitor", id).Msg("monitor listed but info unavailable at start")
			continue
		}
		b.addOutput(info)
	}

	b.started = true
	return true
}

// PollFDs reports the session socket fd plus, for the fence-gated variant,
// every outstanding acquire-fence fd the submit queue is waiting on — so a
// host polling this backend wakes DispatchEvents as soon as a fence
// signals rather than only on session-socket activity. OnReady drains every
// queued session event and pumps the pacer regardless of which fd fired,
// since a fence signaling and a session event both require the same
// DispatchEvents pass to make progress.
func (b *Backend) PollFDs() []aquamarine.PollFD {
	if b.client == nil {
		return nil
	}
	var pfds []aquamarine.PollFD
	if fd := b.client.SocketFD(); fd >= 0 {
		pfds = append(pfds, aquamarine.PollFD{FD: fd, OnReady: b.onPollReady, Priority: 0})
	}
	for _, fd := range b.pacing.pendingFDs() {
		pfds = append(pfds, aquamarine.PollFD{FD: fd, OnReady: b.onPollReady, Priority: 1})
	}
	return pfds
}

// onPollReady is the shared PollFD callback: whichever fd became readable,
// the response is the same full dispatch pass (drain session events, then
// let the pacer pump).
func (b *Backend) onPollReady() {
	b.DispatchEvents()
}

func (b *Backend) DRMFD() int {
	if b.client == nil {
		return -1
	}
	return b.client.DRMFD()
}

// DRMRenderNodeFD has no equivalent in the session protocol: the session
// owns the render node and never hands it to clients directly, since all
// rendering happens via DMA-BUFs it allocates itself.
func (b *Backend) DRMRenderNodeFD() int { return -1 }

// DispatchEvents drains the session's event queue and lets the active
// pacing variant make any event-independent forward progress (the
// fence-gated variant polls its queue here).
func (b *Backend) DispatchEvents() bool {
	if b.client == nil {
		return false
	}
	b.drainEvents()
	b.pacing.pump()
	return true
}

// Capabilities reports a fixed bitmask; the Tab backend always supports
// DMA-BUF scanout and never supports cursor-plane compositing of its own
// (the nested session owns cursor rendering).
func (b *Backend) Capabilities() aquamarine.Capabilities { return 0 }

// SetCursor is a no-op: the nested session renders its own cursor, the
// host has no cursor plane to hand it through this backend.
func (b *Backend) SetCursor(buf aquamarine.Buffer, hotspot aquamarine.Vector2D) bool { return false }

// GetRenderFormats returns a peer backend's renderable format list verbatim
// when one exists and is non-empty (typically a DRM backend on the host
// side of the nesting compositor), otherwise the two-entry default. The
// nested session never tells this backend what its host GPU can scan out,
// so borrowing another backend's advertised list is the only way to do
// better than guessing.
func (b *Backend) GetRenderFormats() []aquamarine.DRMFormat {
	if b.host != nil {
		for _, impl := range b.host.Implementations() {
			if impl == b || impl.Type() == aquamarine.BackendTab {
				continue
			}
			if fmts := impl.GetRenderFormats(); len(fmts) > 0 {
				return fmts
			}
		}
	}
	return defaultRenderFormats()
}

func defaultRenderFormats() []aquamarine.DRMFormat {
	return []aquamarine.DRMFormat{
		{Fourcc: aquamarine.FourccXRGB8888, Modifiers: []uint64{aquamarine.ModifierInvalid}},
		{Fourcc: aquamarine.FourccARGB8888, Modifiers: []uint64{aquamarine.ModifierInvalid}},
	}
}

// GetCursorFormats returns nothing: this backend never accepts a cursor
// buffer (see SetCursor).
func (b *Backend) GetCursorFormats() []aquamarine.DRMFormat { return nil }

func (b *Backend) PreferredAllocator() aquamarine.Allocator { return passthroughAllocator{} }

func (b *Backend) GetAllocators() []aquamarine.Allocator {
	return []aquamarine.Allocator{passthroughAllocator{}}
}

func (b *Backend) GetPrimary() aquamarine.BackendImplementation { return b }

// Output looks an output up by session monitor id, for callers (tests,
// the observer) that need to reach it directly rather than through the
// host's Output list.
func (b *Backend) Output(monitorID string) (*Output, bool) {
	out, ok := b.outputs[monitorID]
	return out, ok
}

func (b *Backend) String() string {
	return fmt.Sprintf("tab-backend(outputs=%d)", len(b.outputs))
}
