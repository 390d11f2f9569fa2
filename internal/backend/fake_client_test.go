package backend

import (
	"github.com/ardos-os/aquamarine-shift/internal/shiftclient"
)

// fakeClient is a fully scripted shiftclient.Client for backend-level
// tests: monitors, events and submit outcomes are all queued by the test
// rather than produced by a real session socket.
type fakeClient struct {
	monitors []shiftclient.MonitorInfo
	events   []shiftclient.Event

	acquireResult shiftclient.AcquireResult
	acquireSlot   uint32
	acquireCalls  int

	requestBufferResult bool
	requestBufferCalls  int

	swapBuffersCalls int

	socketFD int
	drmFD    int
}

var _ shiftclient.Client = (*fakeClient)(nil)

func (f *fakeClient) Disconnect()   {}
func (f *fakeClient) SocketFD() int { return f.socketFD }
func (f *fakeClient) DRMFD() int    { return f.drmFD }
func (f *fakeClient) PollEvents()   {}

func (f *fakeClient) NextEvent() (shiftclient.Event, bool) {
	if len(f.events) == 0 {
		return shiftclient.Event{}, false
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return ev, true
}

func (f *fakeClient) MonitorCount() int { return len(f.monitors) }

func (f *fakeClient) MonitorIDAt(i int) string {
	if i < 0 || i >= len(f.monitors) {
		return ""
	}
	return f.monitors[i].ID
}

func (f *fakeClient) MonitorInfo(id string) (shiftclient.MonitorInfo, bool) {
	for _, m := range f.monitors {
		if m.ID == id {
			return m, true
		}
	}
	return shiftclient.MonitorInfo{}, false
}

func (f *fakeClient) AcquireFrame(monitorID string) (shiftclient.FrameTarget, shiftclient.AcquireResult) {
	f.acquireCalls++
	if f.acquireResult != shiftclient.AcquireOK {
		return shiftclient.FrameTarget{}, f.acquireResult
	}
	return shiftclient.FrameTarget{
		FD:        1000 + f.acquireCalls,
		Fourcc:    0x34325258,
		Width:     1920,
		Height:    1080,
		SlotIndex: f.acquireSlot,
	}, shiftclient.AcquireOK
}

func (f *fakeClient) RequestBuffer(monitorID string, acquireFenceFD int) bool {
	f.requestBufferCalls++
	return f.requestBufferResult
}

func (f *fakeClient) SwapBuffers(monitorID string) {
	f.swapBuffersCalls++
}
