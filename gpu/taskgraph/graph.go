package taskgraph

import (
	"errors"
	"fmt"

	"github.com/Thibaos/a-tlas/gpu"
)

var (
	ErrUnknownNode     = errors.New("taskgraph: unknown node id")
	ErrCyclicGraph     = errors.New("taskgraph: graph contains a cycle")
	ErrUndeclaredWrite = errors.New("taskgraph: host write to undeclared buffer")
	ErrUnboundImage    = errors.New("taskgraph: virtual image not bound in resource map")
)

// Queue family a task node is scheduled on.
type QueueFamily uint8

const (
	Graphics QueueFamily = iota
	Compute
	Transfer
)

// Host access declared for a buffer touched outside recorded commands.
type HostAccessType uint8

const (
	HostRead HostAccessType = iota
	HostWrite
)

// Unique handle of a node within one task graph.
type NodeID uint32

// A Task records GPU work for one node each time the graph executes.
type Task[W any] interface {
	Execute(cb *gpu.CommandBuffer, tcx *TaskContext, world W) error
}

// Plain-function task adapter.
type TaskFunc[W any] func(cb *gpu.CommandBuffer, tcx *TaskContext, world W) error

func (fn TaskFunc[W]) Execute(cb *gpu.CommandBuffer, tcx *TaskContext, world W) error {
	return fn(cb, tcx, world)
}

type node[W any] struct {
	id     NodeID
	name   string
	family QueueFamily
	task   Task[W]

	// Successor node ids.
	out []NodeID
}

// A declarative description of per-frame GPU work: task nodes, explicit
// ordering edges and host access declarations. Compile turns it into an
// executable schedule.
type TaskGraph[W any] struct {
	resources *gpu.Resources

	nodes       []*node[W]
	hostWrites  map[gpu.BufferID]struct{}
	nextVirtual gpu.ImageID
}

// Create an empty task graph over the given resource manager.
func New[W any](resources *gpu.Resources) *TaskGraph[W] {
	return &TaskGraph[W]{
		resources:  resources,
		hostWrites: make(map[gpu.BufferID]struct{}),
	}
}

// Allocate a virtual image id to be bound through the resource map at
// execution time.
func (g *TaskGraph[W]) AddVirtualImage() gpu.ImageID {
	g.nextVirtual++
	return g.nextVirtual | gpu.ImageID(1)<<31
}

// Declare host access to a buffer during execution. Writes must be
// declared before a task may use TaskContext.WriteBuffer.
func (g *TaskGraph[W]) AddHostBufferAccess(id gpu.BufferID, access HostAccessType) {
	if access == HostWrite {
		g.hostWrites[id] = struct{}{}
	}
}

// Add a task node and return its id.
func (g *TaskGraph[W]) CreateTaskNode(name string, family QueueFamily, task Task[W]) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, &node[W]{
		id:     id,
		name:   name,
		family: family,
		task:   task,
	})
	return id
}

// Order node `from` before node `to`.
func (g *TaskGraph[W]) AddEdge(from, to NodeID) error {
	if int(from) >= len(g.nodes) || int(to) >= len(g.nodes) {
		return ErrUnknownNode
	}
	g.nodes[from].out = append(g.nodes[from].out, to)
	return nil
}

type CompileInfo struct {
	// The flight all scheduled frames are submitted on.
	FlightID gpu.FlightID
}

// Compile the graph into an executable schedule. Nodes are ordered
// topologically (declaration order breaks ties) so every dependency edge
// is satisfied; a cyclic graph is rejected.
func (g *TaskGraph[W]) Compile(info *CompileInfo) (*Executable[W], error) {
	flight, err := g.resources.Flight(info.FlightID)
	if err != nil {
		return nil, fmt.Errorf("taskgraph: compile: %w", err)
	}

	inDegree := make([]int, len(g.nodes))
	for _, n := range g.nodes {
		for _, succ := range n.out {
			inDegree[succ]++
		}
	}

	ready := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		if inDegree[id] == 0 {
			ready = append(ready, NodeID(id))
		}
	}

	order := make([]*node[W], 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]

		n := g.nodes[id]
		order = append(order, n)

		for _, succ := range n.out {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				ready = append(ready, succ)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, ErrCyclicGraph
	}

	hostWrites := make(map[gpu.BufferID]struct{}, len(g.hostWrites))
	for id := range g.hostWrites {
		hostWrites[id] = struct{}{}
	}

	return &Executable[W]{
		resources:  g.resources,
		flight:     flight,
		order:      order,
		hostWrites: hostWrites,
	}, nil
}
