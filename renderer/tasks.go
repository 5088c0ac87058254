package renderer

import (
	"sync/atomic"
	"unsafe"

	"github.com/Thibaos/a-tlas/gpu"
	"github.com/Thibaos/a-tlas/gpu/taskgraph"
)

// Per-frame camera uniform data, uploaded before each trace dispatch.
type CameraData struct {
	InvViewProj [16]float32
	Position    [4]float32
}

var (
	cameraDataSize   = int(unsafe.Sizeof(CameraData{}))
	sunlightDataSize = int(unsafe.Sizeof(SunlightData{}))
)

// Per-frame sunlight uniform data.
type SunlightData struct {
	Direction [4]float32
	Color     [4]float32
}

// FrameContext carries the per-frame values the render graph consumes.
type FrameContext struct {
	Camera   CameraData
	Sunlight SunlightData
}

// updateContext selects the back-buffer structure and its instance data
// for one update cycle.
type updateContext struct {
	tlas             *gpu.AccelerationStructure
	instanceBufferID gpu.BufferID
	instances        []gpu.InstanceRecord
}

func uniformBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(unsafe.Sizeof(*v)))
}

func structureIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}

// traceTask dispatches the per-frame ray trace against whichever
// structure copy the update worker last published. It only ever reads
// the selection state.
type traceTask struct {
	targetImageID  gpu.ImageID
	cameraBuffer   *gpu.Buffer
	sunlightBuffer *gpu.Buffer
	structures     [2]*gpu.AccelerationStructure

	currentIndex     *atomic.Bool
	showCurrentIndex *atomic.Bool
}

func (t *traceTask) Execute(cb *gpu.CommandBuffer, tcx *taskgraph.TaskContext, fcx *FrameContext) error {
	target, err := tcx.Image(t.targetImageID)
	if err != nil {
		return err
	}

	if err = cb.UpdateBuffer(t.cameraBuffer, 0, uniformBytes(&fcx.Camera)); err != nil {
		return err
	}
	if err = cb.UpdateBuffer(t.sunlightBuffer, 0, uniformBytes(&fcx.Sunlight)); err != nil {
		return err
	}

	frontIndex := t.currentIndex.Load()
	if t.showCurrentIndex.Swap(false) {
		logger.Debugf("now tracing against structure index %v", frontIndex)
	}

	return cb.TraceRays(target, t.structures[structureIndex(frontIndex)], target.Extent())
}

// updateStructureTask writes fresh instance data into the back-buffer's
// instance array and records a refit of the back-buffer structure.
type updateStructureTask struct {
	scratch *gpu.Buffer
}

func (t *updateStructureTask) Execute(cb *gpu.CommandBuffer, tcx *taskgraph.TaskContext, ucx *updateContext) error {
	if len(ucx.instances) > 0 {
		if err := tcx.WriteBuffer(ucx.instanceBufferID, 0, ucx.instances); err != nil {
			return err
		}
	}

	instanceBuffer, err := tcx.Buffer(ucx.instanceBufferID)
	if err != nil {
		return err
	}

	info := &gpu.BuildGeometryInfo{
		Mode: gpu.BuildModeUpdate,
		Src:  ucx.tlas,
		Dst:  ucx.tlas,
		Geometry: gpu.GeometryData{
			Instances: &gpu.InstancesData{Data: instanceBuffer},
		},
		Scratch: t.scratch,
	}

	return cb.BuildAccelerationStructure(info, gpu.BuildRangeInfo{
		PrimitiveCount: uint32(len(ucx.instances)),
	})
}
