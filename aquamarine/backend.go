package aquamarine

// Allocator is the host's buffer allocator contract. The tab backend never
// allocates buffers itself (the nested session supplies them), but still
// needs to name a type for PreferredAllocator/GetAllocators.
type Allocator interface {
	Name() string
}

// BackendEvents are the callbacks a BackendImplementation fires into the
// host as outputs and devices come and go.
type BackendEvents struct {
	NewOutput   func(Output)
	NewKeyboard func(Keyboard)
	NewPointer  func(Pointer)
	NewTouch    func(Touch)
	NewTablet   func(Tablet)
	NewTabletPad func(TabletPad)
	NewSwitch   func(Switch)
}

// Host is the subset of the compositor's event loop a backend relies on: an
// idle-callback queue and poll-fd bookkeeping, plus the lifecycle events a
// backend fires. A real compositor implements this; internal/hostloop
// provides a standalone one, used by cmd/aquamarine-shiftd, for manual
// testing.
type Host interface {
	AddIdleEvent(cb func())
	RemoveIdleEvent(cb func())
	PollFDsChanged()
	Events() *BackendEvents
	Implementations() []BackendImplementation
	PrimaryAllocator() Allocator
}

// BackendImplementation is the per-backend contract the host drives: one
// instance is created per backend kind (tab, drm, wayland, headless, ...)
// and registered with the host's backend list.
type BackendImplementation interface {
	Type() BackendType
	Start() bool
	PollFDs() []PollFD
	DRMFD() int
	DRMRenderNodeFD() int
	DispatchEvents() bool
	Capabilities() Capabilities
	SetCursor(buf Buffer, hotspot Vector2D) bool
	GetRenderFormats() []DRMFormat
	GetCursorFormats() []DRMFormat
	PreferredAllocator() Allocator
	GetAllocators() []Allocator
	GetPrimary() BackendImplementation
}
