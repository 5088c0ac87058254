package taskgraph

import (
	"errors"
	"testing"

	"github.com/Thibaos/a-tlas/gpu"
)

type execLog struct {
	order []string
}

func appendTask(name string) TaskFunc[*execLog] {
	return func(cb *gpu.CommandBuffer, tcx *TaskContext, world *execLog) error {
		world.order = append(world.order, name)
		return nil
	}
}

func TestCompileOrdersNodesByEdges(t *testing.T) {
	r := gpu.NewResources()
	defer r.Close()

	flightID, _ := r.CreateFlight(1)

	log := &execLog{}
	graph := New[*execLog](r)

	// Declared out of dependency order on purpose.
	c := graph.CreateTaskNode("c", Graphics, appendTask("c"))
	a := graph.CreateTaskNode("a", Compute, appendTask("a"))
	b := graph.CreateTaskNode("b", Graphics, appendTask("b"))

	if err := graph.AddEdge(a, b); err != nil {
		t.Fatal(err)
	}
	if err := graph.AddEdge(b, c); err != nil {
		t.Fatal(err)
	}

	executable, err := graph.Compile(&CompileInfo{FlightID: flightID})
	if err != nil {
		t.Fatal(err)
	}

	if _, err = executable.Execute(nil, log, nil); err != nil {
		t.Fatal(err)
	}
	if err = executable.Flight().WaitIdle(); err != nil {
		t.Fatal(err)
	}

	exp := []string{"a", "b", "c"}
	for idx, name := range exp {
		if log.order[idx] != name {
			t.Fatalf("expected execution order %v; got %v", exp, log.order)
		}
	}
}

func TestCompileRejectsCycles(t *testing.T) {
	r := gpu.NewResources()
	defer r.Close()

	flightID, _ := r.CreateFlight(1)

	graph := New[*execLog](r)
	a := graph.CreateTaskNode("a", Compute, appendTask("a"))
	b := graph.CreateTaskNode("b", Compute, appendTask("b"))
	graph.AddEdge(a, b)
	graph.AddEdge(b, a)

	if _, err := graph.Compile(&CompileInfo{FlightID: flightID}); !errors.Is(err, ErrCyclicGraph) {
		t.Fatalf("expected %v; got %v", ErrCyclicGraph, err)
	}
}

func TestAddEdgeUnknownNode(t *testing.T) {
	r := gpu.NewResources()
	defer r.Close()

	graph := New[*execLog](r)
	a := graph.CreateTaskNode("a", Compute, appendTask("a"))

	if err := graph.AddEdge(a, NodeID(42)); !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("expected %v; got %v", ErrUnknownNode, err)
	}
}

func TestHostWriteMustBeDeclared(t *testing.T) {
	r := gpu.NewResources()
	defer r.Close()

	flightID, _ := r.CreateFlight(1)

	declared, _ := r.CreateBuffer("declared", 16, gpu.UsageStorage)
	undeclared, _ := r.CreateBuffer("undeclared", 16, gpu.UsageStorage)

	var writeErr, declaredErr error
	graph := New[struct{}](r)
	graph.AddHostBufferAccess(declared.ID(), HostWrite)
	graph.CreateTaskNode("writer", Transfer, TaskFunc[struct{}](
		func(cb *gpu.CommandBuffer, tcx *TaskContext, world struct{}) error {
			declaredErr = tcx.WriteBuffer(declared.ID(), 0, []float32{1, 2})
			writeErr = tcx.WriteBuffer(undeclared.ID(), 0, []float32{1, 2})
			return nil
		}))

	executable, err := graph.Compile(&CompileInfo{FlightID: flightID})
	if err != nil {
		t.Fatal(err)
	}
	if _, err = executable.Execute(nil, struct{}{}, nil); err != nil {
		t.Fatal(err)
	}

	if declaredErr != nil {
		t.Fatalf("expected declared write to succeed; got %v", declaredErr)
	}
	if !errors.Is(writeErr, ErrUndeclaredWrite) {
		t.Fatalf("expected %v; got %v", ErrUndeclaredWrite, writeErr)
	}
}

func TestVirtualImageResolution(t *testing.T) {
	r := gpu.NewResources()
	defer r.Close()

	flightID, _ := r.CreateFlight(1)
	concrete, _ := r.CreateImage("target", 8, 8)

	graph := New[struct{}](r)
	virtualID := graph.AddVirtualImage()
	if !virtualID.Virtual() {
		t.Fatalf("expected id %#x to be virtual", virtualID)
	}

	var unboundErr error
	var resolved *gpu.Image
	graph.CreateTaskNode("resolver", Graphics, TaskFunc[struct{}](
		func(cb *gpu.CommandBuffer, tcx *TaskContext, world struct{}) error {
			var err error
			resolved, err = tcx.Image(virtualID)
			return err
		}))

	executable, err := graph.Compile(&CompileInfo{FlightID: flightID})
	if err != nil {
		t.Fatal(err)
	}

	_, unboundErr = executable.Execute(nil, struct{}{}, nil)
	if !errors.Is(unboundErr, ErrUnboundImage) {
		t.Fatalf("expected %v without a resource map binding; got %v", ErrUnboundImage, unboundErr)
	}

	rm := ResourceMap{virtualID: concrete.ID()}
	if _, err = executable.Execute(rm, struct{}{}, nil); err != nil {
		t.Fatal(err)
	}
	if resolved == nil || resolved.ID() != concrete.ID() {
		t.Fatal("expected the virtual id to resolve to the bound image")
	}
}

func TestPreSubmitRunsBeforeSubmission(t *testing.T) {
	r := gpu.NewResources()
	defer r.Close()

	flightID, _ := r.CreateFlight(1)
	flight, _ := r.Flight(flightID)

	graph := New[struct{}](r)
	graph.CreateTaskNode("noop", Graphics, TaskFunc[struct{}](
		func(cb *gpu.CommandBuffer, tcx *TaskContext, world struct{}) error { return nil }))

	executable, err := graph.Compile(&CompileInfo{FlightID: flightID})
	if err != nil {
		t.Fatal(err)
	}

	var frameAtPreSubmit uint64
	frame, err := executable.Execute(nil, struct{}{}, func() {
		frameAtPreSubmit = flight.CurrentFrame()
	})
	if err != nil {
		t.Fatal(err)
	}
	if frame != 1 {
		t.Fatalf("expected frame 1 to be reported; got %d", frame)
	}

	if frameAtPreSubmit != 0 {
		t.Fatalf("expected pre-submit to run before the frame was submitted; observed frame %d", frameAtPreSubmit)
	}
	if got := flight.CurrentFrame(); got != 1 {
		t.Fatalf("expected 1 submitted frame; got %d", got)
	}

	if err = flight.WaitIdle(); err != nil {
		t.Fatal(err)
	}
}
