package world

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Thibaos/a-tlas/gpu"
	"github.com/Thibaos/a-tlas/types"
)

var (
	xBounds = bounds{-WorldWidth * ChunkWidth, WorldWidth * ChunkWidth}
	yBounds = bounds{-WorldHeight * ChunkWidth, WorldHeight * ChunkWidth}
	zBounds = bounds{-WorldDepth * ChunkWidth, WorldDepth * ChunkWidth}
)

func inBounds(position types.IVec3) bool {
	return xBounds.inside(position[0]) &&
		yBounds.inside(position[1]) &&
		zBounds.inside(position[2])
}

// World is the chunked spatial index over the full voxel volume. Chunks
// materialize lazily on first insertion; an absent map entry is
// indistinguishable from an empty chunk.
type World struct {
	chunks map[types.IVec3]*Chunk
}

// Create an empty world.
func New() *World {
	return &World{
		chunks: make(map[types.IVec3]*Chunk),
	}
}

func (w *World) chunk(gridPosition types.IVec3) *Chunk {
	c, exists := w.chunks[gridPosition]
	if !exists {
		c = newChunk()
		w.chunks[gridPosition] = c
	}
	return c
}

// GlobalToLocal splits a global voxel coordinate into its owning chunk's
// grid coordinate and the position within that chunk. A coordinate
// outside the world volume is a programming error and panics.
func GlobalToLocal(position types.IVec3) (types.IVec3, types.UVec3) {
	if !inBounds(position) {
		panic(fmt.Sprintf("world: out of bounds: %v", position))
	}

	var gridPosition types.IVec3
	for axis, value := range position {
		if value < 0 {
			value = -ChunkWidth + value + 1
		}
		gridPosition[axis] = value / ChunkWidth
	}

	minCorner := gridPosition.Mul(ChunkWidth)
	delta := position.Sub(minCorner)

	return gridPosition, types.XYZu(uint32(delta[0]), uint32(delta[1]), uint32(delta[2]))
}

// ChunkOrigin returns the global coordinate of a chunk's minimum corner.
func ChunkOrigin(gridPosition types.IVec3) types.IVec3 {
	return gridPosition.Mul(ChunkWidth)
}

// Insert a voxel at a global coordinate. Returns false without modifying
// the world if the coordinate is already occupied.
func (w *World) Insert(position types.IVec3, voxel Voxel) bool {
	gridPosition, localPosition := GlobalToLocal(position)
	return w.chunk(gridPosition).insert(localPosition, voxel)
}

// Contains reports whether a voxel occupies the global coordinate.
func (w *World) Contains(position types.IVec3) bool {
	gridPosition, localPosition := GlobalToLocal(position)
	c, exists := w.chunks[gridPosition]
	return exists && c.Contains(localPosition)
}

// Voxel returns the payload at a global coordinate, if any.
func (w *World) Voxel(position types.IVec3) (Voxel, bool) {
	gridPosition, localPosition := GlobalToLocal(position)
	c, exists := w.chunks[gridPosition]
	if !exists {
		return Voxel{}, false
	}
	voxel, exists := c.voxels[localPosition]
	return voxel, exists
}

// SetChunkVisibility toggles whether a chunk contributes instances.
func (w *World) SetChunkVisibility(gridPosition types.IVec3, visible bool) {
	w.chunk(gridPosition).SetVisible(visible)
}

// ActiveChunks lists the grid coordinates of all non-empty visible
// chunks, in no particular order.
func (w *World) ActiveChunks() []types.IVec3 {
	active := make([]types.IVec3, 0, len(w.chunks))
	for gridPosition, c := range w.chunks {
		if !c.Empty() && c.Visible() {
			active = append(active, gridPosition)
		}
	}
	return active
}

// VoxelCount reports the total number of stored voxels.
func (w *World) VoxelCount() int {
	var count int
	for _, c := range w.chunks {
		count += len(c.voxels)
	}
	return count
}

// Integer-truncated Euclidean distance between a chunk and a global
// position, measured in chunk-grid units.
func distanceToChunk(gridPosition, position types.IVec3) int64 {
	return types.Isqrt(position.Div(ChunkWidth).DistanceSquared(gridPosition))
}

// Instances flattens the world into an instance array for a top-level
// structure build. Chunks are visited nearest-first from origin so that
// when the candidate set exceeds maxCount, distant detail is sacrificed
// before nearby detail. The ordering between chunks is deterministic;
// the ordering of voxels within one chunk is not.
func (w *World) Instances(lod uint32, origin types.IVec3, structureRef uint64, maxCount int) []gpu.InstanceRecord {
	active := w.ActiveChunks()

	sort.SliceStable(active, func(i, j int) bool {
		return distanceToChunk(active[i], origin) < distanceToChunk(active[j], origin)
	})

	instances := make([]gpu.InstanceRecord, 0, maxCount)
	for _, gridPosition := range active {
		chunkInstances := w.chunks[gridPosition].Instances(lod, gridPosition, structureRef)
		for _, instance := range chunkInstances {
			if len(instances) == maxCount {
				return instances
			}
			instances = append(instances, instance)
		}
	}

	return instances
}

// String renders one line per visible chunk with its voxel count.
func (w *World) String() string {
	var sb strings.Builder
	for gridPosition, c := range w.chunks {
		if !c.Visible() {
			continue
		}
		fmt.Fprintf(&sb, "(%v, voxels: %d)\n", gridPosition, len(c.voxels))
	}
	return sb.String()
}
