package rt

import (
	"testing"

	"github.com/Thibaos/a-tlas/gpu"
)

func newTestBuilder(t *testing.T) (*Builder, *gpu.Resources) {
	t.Helper()

	r := gpu.NewResources()
	t.Cleanup(r.Close)

	flightID, err := r.CreateFlight(2)
	if err != nil {
		t.Fatal(err)
	}

	return NewBuilder(r, flightID), r
}

func unitBoxVertices() []Vertex3D {
	vertices := make([]Vertex3D, 0, 36)
	for i := 0; i < 12; i++ {
		vertices = append(vertices,
			Vertex3D{Position: [3]float32{-0.5, -0.5, -0.5}},
			Vertex3D{Position: [3]float32{0.5, 0.5, -0.5}},
			Vertex3D{Position: [3]float32{0.5, 0.5, 0.5}},
		)
	}
	return vertices
}

func TestBuildTriangleBLAS(t *testing.T) {
	b, _ := newTestBuilder(t)

	blas, err := b.BuildTriangleBLAS(unitBoxVertices())
	if err != nil {
		t.Fatal(err)
	}

	if blas.Type() != gpu.BottomLevel {
		t.Fatalf("expected a bottom-level structure; got %s", blas.Type())
	}
	if got := blas.Generation(); got != 1 {
		t.Fatalf("expected the build to have retired before return; generation %d", got)
	}
	if got := blas.PrimitiveCount(); got != 12 {
		t.Fatalf("expected 12 triangles; got %d", got)
	}
	if blas.DeviceAddress() == 0 {
		t.Fatal("expected a non-zero device address")
	}
}

func TestBuildTriangleBLASRejectsPartialTriangles(t *testing.T) {
	b, _ := newTestBuilder(t)

	if _, err := b.BuildTriangleBLAS(unitBoxVertices()[:4]); err == nil {
		t.Fatal("expected a vertex count that is not a multiple of 3 to fail")
	}
	if _, err := b.BuildTriangleBLAS(nil); err == nil {
		t.Fatal("expected an empty vertex slice to fail")
	}
}

func TestBuildUnitAabbBLAS(t *testing.T) {
	b, _ := newTestBuilder(t)

	blas, err := b.BuildUnitAabbBLAS()
	if err != nil {
		t.Fatal(err)
	}

	if blas.Type() != gpu.BottomLevel || blas.PrimitiveCount() != 1 {
		t.Fatalf("expected a built single-aabb bottom-level structure; got %s with %d primitives",
			blas.Type(), blas.PrimitiveCount())
	}
}

func TestBuildTLAS(t *testing.T) {
	b, _ := newTestBuilder(t)

	blas, err := b.BuildUnitAabbBLAS()
	if err != nil {
		t.Fatal(err)
	}

	instances := []gpu.InstanceRecord{
		gpu.NewInstanceRecord(1.0, [3]float32{0, 0, 0}, gpu.PackUint24_8(1, 0xff), blas.DeviceAddress()),
		gpu.NewInstanceRecord(1.0, [3]float32{4, 0, 0}, gpu.PackUint24_8(2, 0xff), blas.DeviceAddress()),
	}

	tlas, instanceBuffer, err := b.BuildTLAS(instances, 16)
	if err != nil {
		t.Fatal(err)
	}

	if tlas.Type() != gpu.TopLevel {
		t.Fatalf("expected a top-level structure; got %s", tlas.Type())
	}
	if got := tlas.PrimitiveCount(); got != 2 {
		t.Fatalf("expected 2 instances; got %d", got)
	}
	if got := instanceBuffer.Size(); got != 16*gpu.InstanceSize {
		t.Fatalf("expected the instance buffer sized to capacity; got %d bytes", got)
	}

	records := instanceBuffer.InstanceRecords()
	if records[0] != instances[0] || records[1] != instances[1] {
		t.Fatal("expected instance records written into the backing buffer")
	}
}

func TestBuildTLASEmptyWithCapacity(t *testing.T) {
	b, _ := newTestBuilder(t)

	tlas, instanceBuffer, err := b.BuildTLAS(nil, 8)
	if err != nil {
		t.Fatal(err)
	}

	if got := tlas.PrimitiveCount(); got != 0 {
		t.Fatalf("expected an empty structure; got %d primitives", got)
	}
	if got := tlas.Generation(); got != 1 {
		t.Fatalf("expected an empty structure to still count as built; generation %d", got)
	}
	if got := instanceBuffer.Size(); got != 8*gpu.InstanceSize {
		t.Fatalf("expected buffer sized to capacity 8; got %d bytes", got)
	}
}
