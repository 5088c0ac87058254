package world

import (
	"fmt"

	"github.com/Thibaos/a-tlas/gpu"
	"github.com/Thibaos/a-tlas/types"
)

const (
	// The voxel edge length in meters.
	VoxelPhysicalLength float32 = 1.0 / 16.0

	// The number of voxels per chunk dimension.
	ChunkWidth = 64

	// The number of chunks per half-axis of the world volume.
	WorldWidth  = 64
	WorldHeight = 64
	WorldDepth  = 64
)

type bounds struct {
	min, max int32
}

// Both ends exclusive.
func (b bounds) inside(value int32) bool {
	return value > b.min && value < b.max
}

// Chunk is a sparse mapping from local voxel coordinate to payload.
// Local coordinates are bounded to [0, ChunkWidth) per axis.
type Chunk struct {
	visible bool
	voxels  map[types.UVec3]Voxel
}

func newChunk() *Chunk {
	return &Chunk{
		visible: true,
		voxels:  make(map[types.UVec3]Voxel),
	}
}

func (c *Chunk) SetVisible(value bool) {
	c.visible = value
}

func (c *Chunk) Visible() bool {
	return c.visible
}

func (c *Chunk) Empty() bool {
	return len(c.voxels) == 0
}

func (c *Chunk) Contains(position types.UVec3) bool {
	_, exists := c.voxels[position]
	return exists
}

// Insert a voxel at a local coordinate. Returns false without modifying
// the chunk if the coordinate is already occupied. A coordinate outside
// [0, ChunkWidth) is a programming error and panics.
func (c *Chunk) insert(position types.UVec3, voxel Voxel) bool {
	if position[0] >= ChunkWidth || position[1] >= ChunkWidth || position[2] >= ChunkWidth {
		panic(fmt.Sprintf("world: inserted voxel outside of chunk bounds: %v", position))
	}

	if _, exists := c.voxels[position]; exists {
		return false
	}

	c.voxels[position] = voxel
	return true
}

// Instances flattens the chunk to one instance record per voxel that
// survives the LOD stride filter: at level lod only voxels whose local
// coordinates are all multiples of 2^lod are emitted, scaled up by the
// same factor and nudged by a per-level fractional offset so the coarser
// cells stay visually centered over the cells they replace.
func (c *Chunk) Instances(lod uint32, gridPosition types.IVec3, structureRef uint64) []gpu.InstanceRecord {
	lodExponent := uint32(1) << lod

	var offset float32
	for sublod := uint32(0); sublod < lod; sublod++ {
		offset += float32(sublod) / 2.0
	}

	mask := uint32(0xff)
	if !c.visible {
		mask = 0x00
	}

	instances := make([]gpu.InstanceRecord, 0, len(c.voxels))
	for localPosition, voxel := range c.voxels {
		if localPosition[0]%lodExponent != 0 ||
			localPosition[1]%lodExponent != 0 ||
			localPosition[2]%lodExponent != 0 {
			continue
		}

		translation := [3]float32{
			float32(ChunkWidth*gridPosition[0]+int32(localPosition[0])) + offset,
			float32(ChunkWidth*gridPosition[1]+int32(localPosition[1])) + offset,
			float32(ChunkWidth*gridPosition[2]+int32(localPosition[2])) + offset,
		}

		instances = append(instances, gpu.NewInstanceRecord(
			voxel.Scale*float32(lodExponent),
			translation,
			gpu.PackUint24_8(voxel.MaterialIndex, mask),
			structureRef,
		))
	}

	return instances
}
