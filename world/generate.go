package world

import (
	"math"
	"math/rand"

	"github.com/Thibaos/a-tlas/types"
)

// Generator populates a world with procedural terrain. It stands in for
// a voxel scene import: a layered-sine heightmap with seeded jitter for
// material variation, covering Extent voxels per horizontal half-axis.
type Generator struct {
	Seed      int64
	Extent    int32
	Amplitude float32
}

// Generate fills the world and reports the number of voxels inserted.
func (g *Generator) Generate(w *World) int {
	extent := g.Extent
	if extent <= 0 {
		extent = ChunkWidth
	}
	amplitude := g.Amplitude
	if amplitude <= 0 {
		amplitude = 12
	}

	rng := rand.New(rand.NewSource(g.Seed))
	inserted := 0

	for x := -extent; x < extent; x++ {
		for z := -extent; z < extent; z++ {
			fx, fz := float64(x), float64(z)
			height := float64(amplitude) * (math.Sin(fx/9.0)*math.Cos(fz/7.0) +
				0.35*math.Sin(fx/3.1)*math.Sin(fz/2.7))

			surface := int32(height)
			depth := surface - 3

			for y := depth; y <= surface; y++ {
				material := uint32(1 + rng.Intn(254))
				if w.Insert(types.XYZi(x, y, z), Voxel{Scale: 1.0, MaterialIndex: material}) {
					inserted++
				}
			}
		}
	}

	return inserted
}
