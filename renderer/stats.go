package renderer

import "time"

type UpdaterStats struct {
	// Completed update cycles.
	Cycles uint64

	// Wall time of the most recent cycle, wake to publish.
	LastUpdateTime time.Duration

	// The structure copy the render thread currently binds.
	CurrentIndex bool
}

type FrameStats struct {
	// Frames submitted so far.
	Frame uint64

	// Instances referenced by the most recent structure build.
	InstanceCount uint32

	// Total render time for the last frame.
	RenderTime time.Duration

	// Update worker stats.
	Updater UpdaterStats
}
