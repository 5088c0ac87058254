package gpu

import (
	"errors"
	"testing"
)

type structureHarness struct {
	resources *Resources
	instances *Buffer
	scratch   *Buffer
	tlas      *AccelerationStructure
}

func newStructureHarness(t *testing.T, instanceCapacity int) *structureHarness {
	t.Helper()

	r := NewResources()
	t.Cleanup(r.Close)

	instances, err := r.CreateBuffer("instances", instanceCapacity*InstanceSize, UsageStructureBuildInput)
	if err != nil {
		t.Fatal(err)
	}

	info := &BuildGeometryInfo{
		Mode:     BuildModeBuild,
		Geometry: GeometryData{Instances: &InstancesData{Data: instances}},
	}
	sizes, err := r.AccelerationStructureBuildSizes(info, uint32(instanceCapacity))
	if err != nil {
		t.Fatal(err)
	}

	scratch, err := r.CreateBuffer("scratch", sizes.BuildScratchSize, UsageStorage)
	if err != nil {
		t.Fatal(err)
	}
	storage, err := r.CreateBuffer("storage", sizes.AccelerationStructureSize, UsageStructureStorage)
	if err != nil {
		t.Fatal(err)
	}

	tlas, err := r.CreateStructure(TopLevel, "tlas", storage)
	if err != nil {
		t.Fatal(err)
	}

	return &structureHarness{resources: r, instances: instances, scratch: scratch, tlas: tlas}
}

func (h *structureHarness) buildInfo(mode BuildMode) *BuildGeometryInfo {
	return &BuildGeometryInfo{
		Mode:     mode,
		Src:      h.tlas,
		Dst:      h.tlas,
		Geometry: GeometryData{Instances: &InstancesData{Data: h.instances}},
		Scratch:  h.scratch,
	}
}

func TestBuildCommandMarksStructureBuilt(t *testing.T) {
	h := newStructureHarness(t, 8)

	cb := &CommandBuffer{}
	if err := cb.BuildAccelerationStructure(h.buildInfo(BuildModeBuild), BuildRangeInfo{PrimitiveCount: 5}); err != nil {
		t.Fatal(err)
	}

	// Recording must not mutate the structure before submission.
	if got := h.tlas.Generation(); got != 0 {
		t.Fatalf("expected generation 0 before execution; got %d", got)
	}

	for _, op := range cb.Ops() {
		op()
	}

	if got := h.tlas.Generation(); got != 1 {
		t.Fatalf("expected generation 1 after execution; got %d", got)
	}
	if got := h.tlas.PrimitiveCount(); got != 5 {
		t.Fatalf("expected primitive count 5; got %d", got)
	}
}

func TestUpdateBeforeBuildFails(t *testing.T) {
	h := newStructureHarness(t, 8)

	cb := &CommandBuffer{}
	err := cb.BuildAccelerationStructure(h.buildInfo(BuildModeUpdate), BuildRangeInfo{PrimitiveCount: 1})
	if !errors.Is(err, ErrNotBuilt) {
		t.Fatalf("expected %v when refitting an unbuilt structure; got %v", ErrNotBuilt, err)
	}
}

func TestBuildGeometryTypeMismatchFails(t *testing.T) {
	h := newStructureHarness(t, 8)

	vertices, err := h.resources.CreateBuffer("vertices", 36*12, UsageVertex)
	if err != nil {
		t.Fatal(err)
	}

	info := &BuildGeometryInfo{
		Mode: BuildModeBuild,
		Dst:  h.tlas,
		Geometry: GeometryData{
			Triangles: []TrianglesData{{VertexData: vertices, VertexStride: 12, MaxVertex: 36}},
		},
		Scratch: h.scratch,
	}

	err = (&CommandBuffer{}).BuildAccelerationStructure(info, BuildRangeInfo{PrimitiveCount: 12})
	if !errors.Is(err, ErrWrongStructure) {
		t.Fatalf("expected %v for triangle geometry into a top-level structure; got %v", ErrWrongStructure, err)
	}
}

func TestBuildInstanceOverflowFails(t *testing.T) {
	h := newStructureHarness(t, 4)

	err := (&CommandBuffer{}).BuildAccelerationStructure(h.buildInfo(BuildModeBuild), BuildRangeInfo{PrimitiveCount: 5})
	if !errors.Is(err, ErrInstanceOverflow) {
		t.Fatalf("expected %v for more primitives than the buffer holds; got %v", ErrInstanceOverflow, err)
	}
}

func TestTraceRaysRequiresTopLevel(t *testing.T) {
	h := newStructureHarness(t, 4)

	storage, _ := h.resources.CreateBuffer("blas-storage", 256, UsageStructureStorage)
	blas, err := h.resources.CreateStructure(BottomLevel, "blas", storage)
	if err != nil {
		t.Fatal(err)
	}

	target, err := h.resources.CreateImage("target", 4, 4)
	if err != nil {
		t.Fatal(err)
	}

	err = (&CommandBuffer{}).TraceRays(target, blas, target.Extent())
	if !errors.Is(err, ErrWrongStructure) {
		t.Fatalf("expected %v tracing against a bottom-level structure; got %v", ErrWrongStructure, err)
	}
}

func TestBuildScratchTooSmallFails(t *testing.T) {
	h := newStructureHarness(t, 8)

	small, err := h.resources.CreateBuffer("small-scratch", 16, UsageStorage)
	if err != nil {
		t.Fatal(err)
	}

	info := h.buildInfo(BuildModeBuild)
	info.Scratch = small

	err = (&CommandBuffer{}).BuildAccelerationStructure(info, BuildRangeInfo{PrimitiveCount: 8})
	if !errors.Is(err, ErrScratchTooSmall) {
		t.Fatalf("expected %v for an undersized scratch buffer; got %v", ErrScratchTooSmall, err)
	}
}

func TestStructureDeviceAddressAlignment(t *testing.T) {
	r := NewResources()
	defer r.Close()

	seen := make(map[uint64]struct{})
	for i := 0; i < 4; i++ {
		storage, _ := r.CreateBuffer("storage", 512, UsageStructureStorage)
		s, err := r.CreateStructure(TopLevel, "tlas", storage)
		if err != nil {
			t.Fatal(err)
		}
		addr := s.DeviceAddress()
		if addr%256 != 0 {
			t.Fatalf("expected device address to be 256-byte aligned; got %#x", addr)
		}
		if _, dup := seen[addr]; dup {
			t.Fatalf("expected unique device addresses; got duplicate %#x", addr)
		}
		seen[addr] = struct{}{}
	}
}
