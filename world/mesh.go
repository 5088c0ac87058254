package world

import "github.com/Thibaos/a-tlas/rt"

// TrianglesFromBox emits the 12 triangles of a unit cube centered on
// position. All voxel instances share the one bottom-level structure
// built from this mesh at the origin.
func TrianglesFromBox(x, y, z float32) []rt.Vertex3D {
	v := func(dx, dy, dz float32) rt.Vertex3D {
		return rt.Vertex3D{Position: [3]float32{x + dx, y + dy, z + dz}}
	}

	return []rt.Vertex3D{
		// left face
		v(-0.5, -0.5, -0.5), v(-0.5, -0.5, 0.5), v(-0.5, 0.5, 0.5),
		v(-0.5, -0.5, -0.5), v(-0.5, 0.5, -0.5), v(-0.5, 0.5, 0.5),
		// right face
		v(0.5, -0.5, -0.5), v(0.5, -0.5, 0.5), v(0.5, 0.5, 0.5),
		v(0.5, -0.5, -0.5), v(0.5, 0.5, -0.5), v(0.5, 0.5, 0.5),
		// bottom face
		v(-0.5, -0.5, -0.5), v(0.5, -0.5, -0.5), v(0.5, -0.5, 0.5),
		v(-0.5, -0.5, -0.5), v(-0.5, -0.5, 0.5), v(0.5, -0.5, 0.5),
		// top face
		v(-0.5, 0.5, -0.5), v(0.5, 0.5, -0.5), v(0.5, 0.5, 0.5),
		v(-0.5, 0.5, -0.5), v(-0.5, 0.5, 0.5), v(0.5, 0.5, 0.5),
		// back face
		v(-0.5, -0.5, 0.5), v(0.5, -0.5, 0.5), v(0.5, 0.5, 0.5),
		v(-0.5, -0.5, 0.5), v(-0.5, 0.5, 0.5), v(0.5, 0.5, 0.5),
		// front face
		v(-0.5, -0.5, -0.5), v(0.5, -0.5, -0.5), v(0.5, 0.5, -0.5),
		v(-0.5, -0.5, -0.5), v(-0.5, 0.5, -0.5), v(0.5, 0.5, -0.5),
	}
}
