package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardos-os/aquamarine-shift/internal/shiftclient"
)

type fakeSessionClient struct {
	shiftclient.Client // nil embed: panics if a test hits an unimplemented method

	acquireSlot   uint32
	acquireResult shiftclient.AcquireResult
	acquireCalls  int
}

func (f *fakeSessionClient) AcquireFrame(monitorID string) (shiftclient.FrameTarget, shiftclient.AcquireResult) {
	f.acquireCalls++
	if f.acquireResult != shiftclient.AcquireOK {
		return shiftclient.FrameTarget{}, f.acquireResult
	}
	return shiftclient.FrameTarget{
		FD:        100 + f.acquireCalls,
		Fourcc:    0x34325258, // XR24
		Width:     1920,
		Height:    1080,
		SlotIndex: f.acquireSlot,
	}, shiftclient.AcquireOK
}

func newTestSwapchain(client *fakeSessionClient) *Swapchain {
	return NewSwapchain(client, "mon-0", FDOwnershipRetain, SwapchainOptions{})
}

func TestSwapchainNextAcquiresFreeSlot(t *testing.T) {
	client := &fakeSessionClient{acquireResult: shiftclient.AcquireOK, acquireSlot: 0}
	sc := newTestSwapchain(client)

	buf, slot, err := sc.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, slot)
	assert.True(t, buf.Good())
	assert.Equal(t, 1, client.acquireCalls)
}

func TestSwapchainNextRejectsDoubleAcquire(t *testing.T) {
	client := &fakeSessionClient{acquireResult: shiftclient.AcquireOK}
	sc := newTestSwapchain(client)

	_, _, err := sc.Next()
	require.NoError(t, err)

	_, _, err = sc.Next()
	require.Error(t, err)
}

func TestSwapchainNextRejectsOutOfRangeSlot(t *testing.T) {
	client := &fakeSessionClient{acquireResult: shiftclient.AcquireOK, acquireSlot: 7}
	sc := newTestSwapchain(client)

	_, _, err := sc.Next()
	require.Error(t, err)
}

func TestSwapchainNextRejectsAlreadyBusySlot(t *testing.T) {
	client := &fakeSessionClient{acquireResult: shiftclient.AcquireOK, acquireSlot: 0}
	sc := newTestSwapchain(client)

	buf, slot, err := sc.Next()
	require.NoError(t, err)
	_, ok := sc.TakePending()
	require.True(t, ok)
	assert.True(t, sc.busy[slot])
	_ = buf

	// Slot 1 is still free, so only the already-busy check can refuse slot 0.
	client.acquireSlot = 0
	_, _, err = sc.Next()
	require.Error(t, err, "slot 0 is busy: Next must not hand it out again")

	client.acquireSlot = 1
	buf2, slot2, err := sc.Next()
	require.NoError(t, err)
	_, _ = sc.TakePending()
	assert.Equal(t, 1, slot2)
	_ = buf2

	client.acquireSlot = 0
	_, _, err = sc.Next()
	require.Error(t, err, "both slots busy, Next must fail rather than acquire a third")
}

func TestSwapchainRollbackFreesPendingWithoutMarkingBusy(t *testing.T) {
	client := &fakeSessionClient{acquireResult: shiftclient.AcquireOK}
	sc := newTestSwapchain(client)

	_, slot, err := sc.Next()
	require.NoError(t, err)

	sc.Rollback()
	assert.False(t, sc.busy[slot])
	assert.True(t, sc.HasAvailableBuffer())

	_, ok := sc.TakePending()
	assert.False(t, ok, "rollback must clear pending state")
}

func TestSwapchainTakePendingMarksBusy(t *testing.T) {
	client := &fakeSessionClient{acquireResult: shiftclient.AcquireOK, acquireSlot: 1}
	sc := newTestSwapchain(client)

	_, _, err := sc.Next()
	require.NoError(t, err)

	buf, ok := sc.TakePending()
	require.True(t, ok)
	assert.NotNil(t, buf)
	assert.True(t, sc.busy[1])
	assert.Equal(t, 1, sc.BusyCount())

	_, ok = sc.TakePending()
	assert.False(t, ok, "TakePending is single-shot")
}

func TestSwapchainReleaseClearsBusyAndToleratesDuplicates(t *testing.T) {
	client := &fakeSessionClient{acquireResult: shiftclient.AcquireOK, acquireSlot: 0}
	sc := newTestSwapchain(client)

	_, _, err := sc.Next()
	require.NoError(t, err)
	_, _ = sc.TakePending()
	require.Equal(t, 1, sc.BusyCount())

	assert.True(t, sc.Release(0))
	assert.Equal(t, 0, sc.BusyCount())

	// Duplicate release of an already-free slot is tolerated, not an error.
	assert.True(t, sc.Release(0))
	assert.Equal(t, 0, sc.BusyCount())
}

func TestSwapchainReleaseRejectsOutOfRangeSlot(t *testing.T) {
	sc := newTestSwapchain(&fakeSessionClient{})
	assert.False(t, sc.Release(-1))
	assert.False(t, sc.Release(5))
}

func TestSwapchainReconfigureRollsBackPending(t *testing.T) {
	client := &fakeSessionClient{acquireResult: shiftclient.AcquireOK}
	sc := newTestSwapchain(client)

	_, _, err := sc.Next()
	require.NoError(t, err)

	sc.Reconfigure(SwapchainOptions{Length: 2})
	_, ok := sc.TakePending()
	assert.False(t, ok, "reconfigure must discard an in-flight acquire")
}

func TestSwapchainAcquireFailurePropagates(t *testing.T) {
	client := &fakeSessionClient{acquireResult: shiftclient.AcquireRefused}
	sc := newTestSwapchain(client)

	_, _, err := sc.Next()
	require.Error(t, err)
	_, ok := sc.TakePending()
	assert.False(t, ok)
}
