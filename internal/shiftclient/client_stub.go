//go:build !linux || !cgo

package shiftclient

// Handle stands in for the cgo-backed client on platforms or builds that
// can't link libtab_client. Every method returns ErrUnsupported / a zero
// value so callers fail loudly instead of silently doing nothing.
type Handle struct{}

func Connect(token string) (*Handle, error) {
	return nil, ErrUnsupported
}

func (h *Handle) Disconnect() {}

func (h *Handle) SocketFD() int { return -1 }

func (h *Handle) DRMFD() int { return -1 }

func (h *Handle) PollEvents() {}

func (h *Handle) NextEvent() (Event, bool) { return Event{}, false }

func (h *Handle) MonitorCount() int { return 0 }

func (h *Handle) MonitorIDAt(i int) string { return "" }

func (h *Handle) MonitorInfo(id string) (MonitorInfo, bool) { return MonitorInfo{}, false }

func (h *Handle) AcquireFrame(monitorID string) (FrameTarget, AcquireResult) {
	return FrameTarget{}, AcquireNotConnected
}

func (h *Handle) RequestBuffer(monitorID string, acquireFenceFD int) bool { return false }

func (h *Handle) SwapBuffers(monitorID string) {}
