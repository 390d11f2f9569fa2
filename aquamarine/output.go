package aquamarine

// OutputEvents is the set of signal callbacks an Output implementation
// invokes as it moves through its lifecycle. The host installs these once
// per output; a nil callback is simply skipped.
type OutputEvents struct {
	Commit  func()
	Frame   func()
	Present func(PresentEvent)
	Destroy func()
}

// Output is the per-monitor contract the host drives. An implementation
// owns its own swapchain and decides, via ScheduleFrame's pacing
// precondition, when it is safe to ask the host to render another frame.
//
// Acquire and Commit are two distinct steps, not one: the host calls
// Acquire to obtain a render target, renders into it, then passes the same
// buffer back via CommitState.Buffer to Commit. An implementation must not
// acquire its own target inside Commit.
type Output interface {
	Name() string
	PhysicalSize() Vector2D
	Modes() []Mode
	Events() *OutputEvents

	Acquire() (Buffer, bool)
	Commit(state CommitState) bool
	Test(state CommitState) bool
	ScheduleFrame(reason ScheduleFrameReason)
	Destroy() bool
	GetRenderFormats() []DRMFormat
	Backend() BackendImplementation
}
