package types

import "math"

// An integer 3 component vector used for addressing the voxel grid.
type IVec3 [3]int32

// An unsigned integer 3 component vector used for chunk-local coordinates.
type UVec3 [3]uint32

// Define an integer 3 component vector.
func XYZi(x, y, z int32) IVec3 {
	return IVec3{x, y, z}
}

// Define an unsigned integer 3 component vector.
func XYZu(x, y, z uint32) UVec3 {
	return UVec3{x, y, z}
}

// Add an integer vector.
func (v IVec3) Add(v2 IVec3) IVec3 {
	return IVec3{v[0] + v2[0], v[1] + v2[1], v[2] + v2[2]}
}

// Subtract an integer vector.
func (v IVec3) Sub(v2 IVec3) IVec3 {
	return IVec3{v[0] - v2[0], v[1] - v2[1], v[2] - v2[2]}
}

// Multiply an integer vector with a scalar.
func (v IVec3) Mul(s int32) IVec3 {
	return IVec3{v[0] * s, v[1] * s, v[2] * s}
}

// Componentwise division with truncation toward zero.
func (v IVec3) Div(s int32) IVec3 {
	return IVec3{v[0] / s, v[1] / s, v[2] / s}
}

// Squared euclidean distance between two integer vectors.
func (v IVec3) DistanceSquared(v2 IVec3) int64 {
	dx := int64(v[0] - v2[0])
	dy := int64(v[1] - v2[1])
	dz := int64(v[2] - v2[2])
	return dx*dx + dy*dy + dz*dz
}

// Convert to an unsigned vector. All components must be non-negative.
func (v IVec3) UVec3() UVec3 {
	return UVec3{uint32(v[0]), uint32(v[1]), uint32(v[2])}
}

// Convert to a signed vector.
func (v UVec3) IVec3() IVec3 {
	return IVec3{int32(v[0]), int32(v[1]), int32(v[2])}
}

// Integer square root (largest s with s*s <= v).
func Isqrt(v int64) int64 {
	if v <= 0 {
		return 0
	}

	s := int64(math.Sqrt(float64(v)))
	for s*s > v {
		s--
	}
	for (s+1)*(s+1) <= v {
		s++
	}
	return s
}
