package taskgraph

import (
	"fmt"

	"github.com/Thibaos/a-tlas/gpu"
)

// Bindings of virtual image ids to concrete images for one execution.
type ResourceMap map[gpu.ImageID]gpu.ImageID

// The resource view handed to tasks while they record commands.
type TaskContext struct {
	resources  *gpu.Resources
	rmap       ResourceMap
	hostWrites map[gpu.BufferID]struct{}
}

// Look up a buffer by id.
func (tcx *TaskContext) Buffer(id gpu.BufferID) (*gpu.Buffer, error) {
	return tcx.resources.Buffer(id)
}

// Resolve an image id, following the resource map for virtual ids.
func (tcx *TaskContext) Image(id gpu.ImageID) (*gpu.Image, error) {
	if id.Virtual() {
		bound, ok := tcx.rmap[id]
		if !ok {
			return nil, ErrUnboundImage
		}
		id = bound
	}
	return tcx.resources.Image(id)
}

// Write slice data into a buffer's host-visible memory. The buffer must
// have a declared host write access.
func (tcx *TaskContext) WriteBuffer(id gpu.BufferID, offset int, data interface{}) error {
	if _, ok := tcx.hostWrites[id]; !ok {
		return ErrUndeclaredWrite
	}

	buf, err := tcx.resources.Buffer(id)
	if err != nil {
		return err
	}
	return buf.WriteData(data, offset)
}

// A compiled, executable schedule. Each Execute records every node in
// dependency order into one command buffer and submits it as a single
// frame on the compiled flight.
type Executable[W any] struct {
	resources  *gpu.Resources
	flight     *gpu.Flight
	order      []*node[W]
	hostWrites map[gpu.BufferID]struct{}
}

// Get the flight frames are submitted on.
func (e *Executable[W]) Flight() *gpu.Flight {
	return e.flight
}

// Record all nodes and submit one frame. preSubmit, when non-nil, runs
// after recording and immediately before submission. Execute returns the
// submitted frame number once the frame is submitted; retirement is
// observed through the flight.
func (e *Executable[W]) Execute(rm ResourceMap, world W, preSubmit func()) (uint64, error) {
	cb := &gpu.CommandBuffer{}
	tcx := &TaskContext{
		resources:  e.resources,
		rmap:       rm,
		hostWrites: e.hostWrites,
	}

	for _, n := range e.order {
		if err := n.task.Execute(cb, tcx, world); err != nil {
			return 0, fmt.Errorf("taskgraph (%s): %w", n.name, err)
		}
	}

	if preSubmit != nil {
		preSubmit()
	}

	frame, err := e.flight.SubmitFrame(cb.Ops())
	if err != nil {
		return 0, fmt.Errorf("taskgraph: submit: %w", err)
	}

	return frame, nil
}

// Record and submit a one-shot command sequence on the given flight.
// hostWrites lists buffers the record callback may write through the task
// context. Used for setup-time work; callers wait on the flight for
// completion.
func Submit(resources *gpu.Resources, flightID gpu.FlightID, hostWrites []gpu.BufferID, record func(cb *gpu.CommandBuffer, tcx *TaskContext) error) error {
	flight, err := resources.Flight(flightID)
	if err != nil {
		return fmt.Errorf("taskgraph: submit: %w", err)
	}

	writes := make(map[gpu.BufferID]struct{}, len(hostWrites))
	for _, id := range hostWrites {
		writes[id] = struct{}{}
	}

	cb := &gpu.CommandBuffer{}
	tcx := &TaskContext{
		resources:  resources,
		hostWrites: writes,
	}

	if err := record(cb, tcx); err != nil {
		return err
	}

	if _, err := flight.SubmitFrame(cb.Ops()); err != nil {
		return fmt.Errorf("taskgraph: submit: %w", err)
	}

	return nil
}
