package backend

import (
	"golang.org/x/sys/unix"

	"github.com/ardos-os/aquamarine-shift/aquamarine"
	"github.com/ardos-os/aquamarine-shift/internal/shiftclient"
)

// FDOwnership decides whether a Buffer closes its DMA-BUF fd when the host
// drops its last reference. The two pacing variants in the original source
// disagreed on this; §9 Open Question 1 settles it per variant instead of
// guessing: the fence-gated variant (A) owns and closes its fd because the
// session transfers ownership on each acquire, the frame-done variant (B)
// never closes because the session retains it. See DESIGN.md.
type FDOwnership int

const (
	FDOwnershipClose FDOwnership = iota
	FDOwnershipRetain
)

// Buffer wraps a single session frame target as a one-plane DMA-BUF handle.
type Buffer struct {
	target    shiftclient.FrameTarget
	slot      int
	ownership FDOwnership
	closed    bool
}

var _ aquamarine.Buffer = (*Buffer)(nil)

func newBuffer(target shiftclient.FrameTarget, slot int, ownership FDOwnership) *Buffer {
	return &Buffer{target: target, slot: slot, ownership: ownership}
}

func (b *Buffer) Type() aquamarine.BufferType { return aquamarine.BufferDMABUF }

func (b *Buffer) Slot() int { return b.slot }

func (b *Buffer) DMABUF() (aquamarine.DMABUFAttrs, bool) {
	return aquamarine.DMABUFAttrs{
		FD:       b.target.FD,
		Stride:   b.target.Stride,
		Offset:   b.target.Offset,
		Fourcc:   b.target.Fourcc,
		Modifier: aquamarine.ModifierInvalid,
		Width:    int(b.target.Width),
		Height:   int(b.target.Height),
	}, true
}

func (b *Buffer) Size() aquamarine.Vector2D {
	return aquamarine.Vector2D{X: float64(b.target.Width), Y: float64(b.target.Height)}
}

// Good reports whether the fd is usable, per the buffer format contract
// (success iff fd >= 0).
func (b *Buffer) Good() bool {
	return b.target.FD >= 0
}

// Close releases the backend's hold on the buffer. Per the fd ownership
// policy, it either closes the DMA-BUF fd or leaves it for the session to
// reclaim.
func (b *Buffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.ownership == FDOwnershipClose && b.target.FD >= 0 {
		return unix.Close(b.target.FD)
	}
	return nil
}
