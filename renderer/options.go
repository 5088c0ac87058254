package renderer

import "time"

const (
	maxFramesInFlight     uint32 = 2
	defaultTicksPerSecond uint32 = 1

	defaultMaxInstanceCount = 1 << 20
)

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Capacity of each top-level structure's instance array.
	MaxInstanceCount int

	// The level-of-detail stride applied when instances are generated
	// from the voxel index.
	LodLevel uint32

	// Number of frames the graphics flight keeps in flight.
	FramesInFlight uint32

	// Worker tuning: the sleep interval while polling for frame
	// advancement and the bounded wait for a specific frame to retire.
	WorkerPollInterval time.Duration
	FrameWaitTimeout   time.Duration

	// Ticks per second for the physics stub that paces automatic
	// structure updates.
	TicksPerSecond uint32

	// When non-zero, instance data comes from a randomized stress
	// source of this many instances instead of the voxel index.
	StressInstanceCount int
}

func (o *Options) applyDefaults() {
	if o.FrameW == 0 {
		o.FrameW = 1280
	}
	if o.FrameH == 0 {
		o.FrameH = 720
	}
	if o.MaxInstanceCount == 0 {
		o.MaxInstanceCount = defaultMaxInstanceCount
	}
	if o.FramesInFlight == 0 {
		o.FramesInFlight = maxFramesInFlight
	}
	if o.WorkerPollInterval == 0 {
		o.WorkerPollInterval = time.Millisecond
	}
	if o.FrameWaitTimeout == 0 {
		o.FrameWaitTimeout = 5 * time.Second
	}
	if o.TicksPerSecond == 0 {
		o.TicksPerSecond = defaultTicksPerSecond
	}
}
