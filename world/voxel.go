package world

import "github.com/Thibaos/a-tlas/types"

// Voxel is the immutable per-cell payload stored inside a chunk.
type Voxel struct {
	Scale         float32
	MaterialIndex uint32
}

// Palette maps an 8-bit material index to a normalized RGBA color.
type Palette [256]types.Vec4

// DefaultPalette ramps hue across the material range so procedurally
// generated worlds shade distinguishably without an imported palette.
func DefaultPalette() Palette {
	var palette Palette
	for i := range palette {
		t := float32(i) / 255.0
		palette[i] = types.XYZW(
			0.25+0.75*t,
			0.55+0.35*(1.0-t),
			0.35+0.45*t*t,
			1.0,
		)
	}
	return palette
}
