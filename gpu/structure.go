package gpu

import "sync/atomic"

// Acceleration structure kind.
type StructureType uint8

const (
	BottomLevel StructureType = iota
	TopLevel
)

func (ty StructureType) String() string {
	switch ty {
	case BottomLevel:
		return "BLAS"
	case TopLevel:
		return "TLAS"
	}
	panic("gpu: unsupported structure type")
}

// Structure build mode. Update refits an already-built structure in place
// and keeps prior bottom-level references valid.
type BuildMode uint8

const (
	BuildModeBuild BuildMode = iota
	BuildModeUpdate
)

// Triangle mesh geometry feeding a bottom-level build.
type TrianglesData struct {
	VertexData   *Buffer
	VertexStride int
	MaxVertex    uint32
}

// Axis-aligned box geometry feeding a bottom-level build. Stride is the
// byte distance between consecutive (min, max) pairs.
type AabbsData struct {
	Data   *Buffer
	Stride int
}

// Instance array geometry feeding a top-level build. Data may be nil when
// the info is only used for a size query.
type InstancesData struct {
	Data *Buffer
}

// Geometry input of a structure build. Exactly one member group is set.
type GeometryData struct {
	Triangles []TrianglesData
	Aabbs     []AabbsData
	Instances *InstancesData
}

// Reports whether any geometry is present.
func (g *GeometryData) Empty() bool {
	return len(g.Triangles) == 0 && len(g.Aabbs) == 0 && g.Instances == nil
}

// The structure type implied by the geometry input.
func (g *GeometryData) StructureType() StructureType {
	if g.Instances != nil {
		return TopLevel
	}
	return BottomLevel
}

// Full description of one structure build or update command.
type BuildGeometryInfo struct {
	Mode     BuildMode
	Src      *AccelerationStructure
	Dst      *AccelerationStructure
	Geometry GeometryData
	Scratch  *Buffer
}

type BuildRangeInfo struct {
	PrimitiveCount  uint32
	PrimitiveOffset uint32
}

// Memory requirements reported for a pending structure build.
type BuildSizesInfo struct {
	AccelerationStructureSize int
	BuildScratchSize          int
	UpdateScratchSize         int
}

// A GPU-resident acceleration structure handle. Handles are shared by
// reference between builder, updater and render task; the double-buffer
// protocol (not a lock) keeps build and trace windows disjoint.
type AccelerationStructure struct {
	ty            StructureType
	name          string
	deviceAddress uint64
	storage       *Buffer

	generation atomic.Uint64
	primitives atomic.Uint32
}

// Get structure kind.
func (as *AccelerationStructure) Type() StructureType {
	return as.ty
}

// Get structure name.
func (as *AccelerationStructure) Name() string {
	return as.name
}

// Get the opaque 64-bit device address used to reference this structure
// from instance records.
func (as *AccelerationStructure) DeviceAddress() uint64 {
	return as.deviceAddress
}

// Get the backing storage buffer.
func (as *AccelerationStructure) Storage() *Buffer {
	return as.storage
}

// Number of completed builds/updates applied to this structure.
func (as *AccelerationStructure) Generation() uint64 {
	return as.generation.Load()
}

// Primitive count recorded by the most recent build/update.
func (as *AccelerationStructure) PrimitiveCount() uint32 {
	return as.primitives.Load()
}

func (as *AccelerationStructure) markBuilt(primitiveCount uint32) {
	as.primitives.Store(primitiveCount)
	as.generation.Add(1)
}
