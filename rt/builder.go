package rt

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/Thibaos/a-tlas/gpu"
	"github.com/Thibaos/a-tlas/gpu/taskgraph"
	"github.com/Thibaos/a-tlas/log"
)

var logger = log.New("rt")

// A triangle mesh vertex fed into bottom-level builds.
type Vertex3D struct {
	Position [3]float32
}

// Axis-aligned box extents fed into procedural bottom-level builds.
type AabbPositions struct {
	Min [3]float32
	Max [3]float32
}

// Builder produces acceleration structures synchronously: it queries the
// build sizes, allocates scratch and storage, submits a single build
// command and blocks until the owning flight is idle. All initial builds
// happen at setup time off the hot path, so simplicity wins over
// pipelining here.
type Builder struct {
	resources *gpu.Resources
	flightID  gpu.FlightID
}

// Create a builder that submits on the given flight.
func NewBuilder(resources *gpu.Resources, flightID gpu.FlightID) *Builder {
	return &Builder{
		resources: resources,
		flightID:  flightID,
	}
}

// Build an acceleration structure from the given geometry descriptor and
// wait for the GPU to finish before returning the owned handle.
func (b *Builder) Build(geometry gpu.GeometryData, mode gpu.BuildMode, primitiveCount uint32, ty gpu.StructureType) (*gpu.AccelerationStructure, error) {
	start := time.Now()

	info := &gpu.BuildGeometryInfo{
		Mode:     mode,
		Geometry: geometry,
	}

	sizes, err := b.resources.AccelerationStructureBuildSizes(info, primitiveCount)
	if err != nil {
		return nil, fmt.Errorf("rt: build size query: %w", err)
	}

	scratch, err := b.resources.CreateBuffer("as-scratch", sizes.BuildScratchSize, gpu.UsageShaderDeviceAddress|gpu.UsageStorage)
	if err != nil {
		return nil, fmt.Errorf("rt: scratch allocation: %w", err)
	}

	storage, err := b.resources.CreateBuffer("as-storage", sizes.AccelerationStructureSize, gpu.UsageStructureStorage|gpu.UsageShaderDeviceAddress)
	if err != nil {
		return nil, fmt.Errorf("rt: storage allocation: %w", err)
	}

	structure, err := b.resources.CreateStructure(ty, fmt.Sprintf("%s-%d", ty, primitiveCount), storage)
	if err != nil {
		return nil, fmt.Errorf("rt: structure creation: %w", err)
	}

	info.Dst = structure
	info.Scratch = scratch

	err = taskgraph.Submit(b.resources, b.flightID, nil, func(cb *gpu.CommandBuffer, tcx *taskgraph.TaskContext) error {
		return cb.BuildAccelerationStructure(info, gpu.BuildRangeInfo{PrimitiveCount: primitiveCount})
	})
	if err != nil {
		return nil, fmt.Errorf("rt: build submission: %w", err)
	}

	flight, err := b.resources.Flight(b.flightID)
	if err != nil {
		return nil, err
	}
	if err = flight.WaitIdle(); err != nil {
		return nil, fmt.Errorf("rt: build wait: %w", err)
	}

	logger.Infof("built %s with %d primitives in %s", ty, primitiveCount, time.Since(start))

	return structure, nil
}

// Build an immutable bottom-level structure from a triangle soup. The
// vertex count must be a multiple of 3.
func (b *Builder) BuildTriangleBLAS(vertices []Vertex3D) (*gpu.AccelerationStructure, error) {
	if len(vertices) == 0 || len(vertices)%3 != 0 {
		return nil, fmt.Errorf("rt: triangle BLAS requires a multiple of 3 vertices, got %d", len(vertices))
	}

	stride := int(unsafe.Sizeof(Vertex3D{}))

	vertexBuffer, err := b.resources.CreateBuffer("blas-vertices", len(vertices)*stride, gpu.UsageVertex|gpu.UsageShaderDeviceAddress|gpu.UsageStructureBuildInput)
	if err != nil {
		return nil, fmt.Errorf("rt: vertex buffer allocation: %w", err)
	}
	if err = vertexBuffer.WriteData(vertices, 0); err != nil {
		return nil, err
	}

	geometry := gpu.GeometryData{
		Triangles: []gpu.TrianglesData{{
			VertexData:   vertexBuffer,
			VertexStride: stride,
			MaxVertex:    uint32(len(vertices)),
		}},
	}

	return b.Build(geometry, gpu.BuildModeBuild, uint32(len(vertices)/3), gpu.BottomLevel)
}

// Build an immutable bottom-level structure over a single unit box
// expressed as a procedural AABB.
func (b *Builder) BuildUnitAabbBLAS() (*gpu.AccelerationStructure, error) {
	aabbs := []AabbPositions{{
		Min: [3]float32{-0.5, -0.5, -0.5},
		Max: [3]float32{0.5, 0.5, 0.5},
	}}

	stride := int(unsafe.Sizeof(AabbPositions{}))

	data, err := b.resources.CreateBuffer("blas-aabbs", len(aabbs)*stride, gpu.UsageShaderDeviceAddress|gpu.UsageStructureBuildInput)
	if err != nil {
		return nil, fmt.Errorf("rt: aabb buffer allocation: %w", err)
	}
	if err = data.WriteData(aabbs, 0); err != nil {
		return nil, err
	}

	geometry := gpu.GeometryData{
		Aabbs: []gpu.AabbsData{{
			Data:   data,
			Stride: stride,
		}},
	}

	return b.Build(geometry, gpu.BuildModeBuild, uint32(len(aabbs)), gpu.BottomLevel)
}

// Build a top-level structure over the given instances. The backing
// instance buffer is sized to capacity records so the structure can later
// be refit in place with up to that many instances; it is returned
// alongside the handle for host writes.
func (b *Builder) BuildTLAS(instances []gpu.InstanceRecord, capacity int) (*gpu.AccelerationStructure, *gpu.Buffer, error) {
	if capacity < len(instances) {
		capacity = len(instances)
	}
	if capacity == 0 {
		return nil, nil, fmt.Errorf("rt: TLAS requires a non-zero instance capacity")
	}

	instanceBuffer, err := b.resources.CreateBuffer("tlas-instances", capacity*gpu.InstanceSize, gpu.UsageShaderDeviceAddress|gpu.UsageStructureBuildInput)
	if err != nil {
		return nil, nil, fmt.Errorf("rt: instance buffer allocation: %w", err)
	}
	if len(instances) > 0 {
		if err = instanceBuffer.WriteData(instances, 0); err != nil {
			return nil, nil, err
		}
	}

	geometry := gpu.GeometryData{
		Instances: &gpu.InstancesData{Data: instanceBuffer},
	}

	structure, err := b.Build(geometry, gpu.BuildModeBuild, uint32(len(instances)), gpu.TopLevel)
	if err != nil {
		return nil, nil, err
	}

	return structure, instanceBuffer, nil
}
