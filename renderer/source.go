package renderer

import (
	"math/rand"
	"sync"

	"github.com/Thibaos/a-tlas/gpu"
	"github.com/Thibaos/a-tlas/types"
	"github.com/Thibaos/a-tlas/world"
)

// InstanceSource produces the instance array written into the
// back-buffer on each update cycle.
type InstanceSource interface {
	Instances() []gpu.InstanceRecord
}

// WorldSource derives instances from the spatial voxel index, nearest
// chunks first from the configured origin. The array is regenerated only
// after Invalidate has been called; otherwise the cached array from the
// previous cycle is reused.
type WorldSource struct {
	mu sync.Mutex

	world        *world.World
	structureRef uint64
	lodLevel     uint32
	maxCount     int

	origin       types.IVec3
	needsRebuild bool
	cached       []gpu.InstanceRecord
}

func NewWorldSource(w *world.World, structureRef uint64, lodLevel uint32, maxCount int) *WorldSource {
	return &WorldSource{
		world:        w,
		structureRef: structureRef,
		lodLevel:     lodLevel,
		maxCount:     maxCount,
		needsRebuild: true,
	}
}

// Invalidate marks the cached array stale and records the origin the
// next regeneration sorts chunks against.
func (s *WorldSource) Invalidate(origin types.IVec3) {
	s.mu.Lock()
	s.origin = origin
	s.needsRebuild = true
	s.mu.Unlock()
}

func (s *WorldSource) Instances() []gpu.InstanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.needsRebuild {
		s.cached = s.world.Instances(s.lodLevel, s.origin, s.structureRef, s.maxCount)
		s.needsRebuild = false
	}
	return s.cached
}

// RandomSource scatters unit-scale instances uniformly inside a cube.
// A load generator for stressing the update path.
type RandomSource struct {
	mu sync.Mutex

	rng          *rand.Rand
	structureRef uint64
	count        int
	halfRange    int32
}

func NewRandomSource(seed int64, structureRef uint64, count int) *RandomSource {
	return &RandomSource{
		rng:          rand.New(rand.NewSource(seed)),
		structureRef: structureRef,
		count:        count,
		halfRange:    256,
	}
}

func (s *RandomSource) Instances() []gpu.InstanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	span := int(s.halfRange)*2 + 1

	instances := make([]gpu.InstanceRecord, s.count)
	for i := range instances {
		translation := [3]float32{
			float32(s.rng.Intn(span) - int(s.halfRange)),
			float32(s.rng.Intn(span) - int(s.halfRange)),
			float32(s.rng.Intn(span) - int(s.halfRange)),
		}
		instances[i] = gpu.NewInstanceRecord(
			1.0,
			translation,
			gpu.PackUint24_8(uint32(s.rng.Intn(256)), 0xff),
			s.structureRef,
		)
	}
	return instances
}
