// Package aquamarine defines the host-facing contracts that a compositor's
// output/input abstraction layer expects a backend plugin to implement.
//
// These types model the compositor side of the fence: the event loop, the
// generic output/input interfaces, and the DRM format vocabulary. The
// backend in internal/backend consumes this package; nothing in here reaches
// back into backend internals.
package aquamarine

import "time"

// BackendType identifies which backend implementation produced an output.
type BackendType int

const (
	BackendUnknown BackendType = iota
	BackendDRM
	BackendWayland
	BackendHeadless
	BackendTab
)

func (t BackendType) String() string {
	switch t {
	case BackendDRM:
		return "drm"
	case BackendWayland:
		return "wayland"
	case BackendHeadless:
		return "headless"
	case BackendTab:
		return "tab"
	default:
		return "unknown"
	}
}

// Vector2D is an integer or floating point 2D point, matching the precision
// the host contract uses for hotspots and sizes.
type Vector2D struct {
	X, Y float64
}

// DRMFormat advertises a renderable pixel format and the modifiers the
// backend or its GPU can scan out without a copy.
type DRMFormat struct {
	Fourcc    uint32
	Modifiers []uint64
}

// Well-known fourcc codes used by the default format list.
const (
	FourccXRGB8888 uint32 = 0x34325258 // 'XR24'
	FourccARGB8888 uint32 = 0x34325241 // 'AR24'
)

// ModifierInvalid marks a buffer as having no explicit DRM format modifier;
// the allocator picked an implicit, linear-or-tiled layout.
const ModifierInvalid uint64 = 0x00ffffffffffffff

// ScheduleFrameReason documents why an output asked the host for another
// frame; the backend neither branches on it nor records it.
type ScheduleFrameReason int

const (
	ScheduleUnknown ScheduleFrameReason = iota
	ScheduleNeedsFrame
	ScheduleVBlank
	ScheduleDamage
)

// Mode is a single display mode. The tab backend only ever constructs one
// preferred mode per monitor (see Output.Modes).
type Mode struct {
	Size       Vector2D
	RefreshMHz int // millihertz; Hz * 1000
	Preferred  bool
}

// PresentEvent is emitted by an Output once a committed frame has been
// scanned out (or, in the tab backend's case, confirmed by the nested
// session via BUFFER_RELEASED or FRAME_DONE).
type PresentEvent struct {
	Presented bool
	When      time.Time
	Seq       uint32
	Refresh   time.Duration // 0 if the monitor's refresh rate is unknown
	VSync     bool
}

// PollFD is one file descriptor the host should add to its poll set, paired
// with the callback to invoke when it becomes readable.
type PollFD struct {
	FD       int
	OnReady  func()
	Priority int
}

// CommitState is the subset of pending output state the host has already
// validated and is asking the backend to apply. The tab backend does not
// interpret buffer contents; it only needs to know a commit happened and,
// for the fence-gated pacing variant, whether the host is handing over an
// explicit GPU in-fence fd that submission should wait on before handing
// the buffer to the session.
type CommitState struct {
	Buffer Buffer

	// InFenceFD is the host-supplied GPU sync fd signaling when rendering
	// into the committed buffer has finished, or -1 if the host has
	// nothing to wait on. Ownership stays with the caller; the backend
	// only ever duplicates it.
	InFenceFD int
}

// Capabilities is a bitmask of optional backend capabilities, reported via
// BackendImplementation.Capabilities. The tab backend declares none.
type Capabilities uint32
