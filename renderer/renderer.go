package renderer

import "github.com/Thibaos/a-tlas/log"

var logger = log.New("renderer")

type Renderer interface {
	// Render one frame.
	Render() error

	// Wake the structure update worker.
	RequestUpdate()

	// Shutdown renderer, its update worker and all GPU resources.
	Close()

	// Get render statistics.
	Stats() FrameStats

	// Get the traced pixels of the most recent frame in RGBA order.
	TargetPixels() []byte
}
