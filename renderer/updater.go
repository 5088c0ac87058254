package renderer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Thibaos/a-tlas/gpu"
	"github.com/Thibaos/a-tlas/gpu/taskgraph"
)

// UpdaterConfig wires an update worker to its structures, buffers and
// flights. CurrentIndex and ShowCurrentIndex are shared with the render
// task; the worker is their only writer.
type UpdaterConfig struct {
	Resources *gpu.Resources

	GraphicsFlightID gpu.FlightID
	ComputeFlightID  gpu.FlightID

	Structures      [2]*gpu.AccelerationStructure
	InstanceBuffers [2]gpu.BufferID
	Scratch         *gpu.Buffer

	Source InstanceSource

	CurrentIndex     *atomic.Bool
	ShowCurrentIndex *atomic.Bool

	PollInterval time.Duration
	WaitTimeout  time.Duration
}

// Updater owns the background worker that refits the back-buffer
// structure and publishes the swap. Each cycle waits for the render
// flight to advance past the frame observed at the previous publish, so
// updates never race ahead of consumption, and waits for the compute
// flight to drain before publishing, so at most one refit is in flight.
type Updater struct {
	resources      *gpu.Resources
	graphicsFlight *gpu.Flight
	computeFlight  *gpu.Flight

	executable      *taskgraph.Executable[*updateContext]
	structures      [2]*gpu.AccelerationStructure
	instanceBuffers [2]gpu.BufferID
	source          InstanceSource

	currentIndex     *atomic.Bool
	showCurrentIndex *atomic.Bool

	pollInterval time.Duration
	waitTimeout  time.Duration

	// Single-slot wake channel; bursts of requests coalesce into one
	// pending cycle.
	wakeMu sync.Mutex
	closed bool
	wake   chan struct{}
	stop   chan struct{}
	done   chan struct{}

	// Worker-local frame baseline, touched only by the worker goroutine.
	lastFrame uint64

	cycles        atomic.Uint64
	instanceCount atomic.Uint32
	lastDuration  atomic.Int64
}

// NewUpdater compiles the update task graph and starts the worker. The
// worker runs until Close.
func NewUpdater(cfg *UpdaterConfig) (*Updater, error) {
	graphicsFlight, err := cfg.Resources.Flight(cfg.GraphicsFlightID)
	if err != nil {
		return nil, fmt.Errorf("renderer: updater: %w", err)
	}
	computeFlight, err := cfg.Resources.Flight(cfg.ComputeFlightID)
	if err != nil {
		return nil, fmt.Errorf("renderer: updater: %w", err)
	}

	graph := taskgraph.New[*updateContext](cfg.Resources)
	graph.AddHostBufferAccess(cfg.InstanceBuffers[0], taskgraph.HostWrite)
	graph.AddHostBufferAccess(cfg.InstanceBuffers[1], taskgraph.HostWrite)
	graph.CreateTaskNode("update-tlas", taskgraph.Compute, &updateStructureTask{
		scratch: cfg.Scratch,
	})

	executable, err := graph.Compile(&taskgraph.CompileInfo{FlightID: cfg.ComputeFlightID})
	if err != nil {
		return nil, fmt.Errorf("renderer: updater: %w", err)
	}

	u := &Updater{
		resources:        cfg.Resources,
		graphicsFlight:   graphicsFlight,
		computeFlight:    computeFlight,
		executable:       executable,
		structures:       cfg.Structures,
		instanceBuffers:  cfg.InstanceBuffers,
		source:           cfg.Source,
		currentIndex:     cfg.CurrentIndex,
		showCurrentIndex: cfg.ShowCurrentIndex,
		pollInterval:     cfg.PollInterval,
		waitTimeout:      cfg.WaitTimeout,
		wake:             make(chan struct{}, 1),
		stop:             make(chan struct{}),
		done:             make(chan struct{}),
	}

	go u.run()

	return u, nil
}

// RequestUpdate wakes the worker for one update cycle. Requests arriving
// while a wake is already pending coalesce. Safe to call after Close.
func (u *Updater) RequestUpdate() {
	u.wakeMu.Lock()
	defer u.wakeMu.Unlock()

	if u.closed {
		return
	}

	select {
	case u.wake <- struct{}{}:
	default:
	}
}

// Cycles reports how many update cycles have published.
func (u *Updater) Cycles() uint64 {
	return u.cycles.Load()
}

// InstanceCount reports the instance count of the last published update.
func (u *Updater) InstanceCount() uint32 {
	return u.instanceCount.Load()
}

// LastUpdateTime reports the wall time of the most recent cycle.
func (u *Updater) LastUpdateTime() time.Duration {
	return time.Duration(u.lastDuration.Load())
}

// Close stops the worker and waits for an in-progress cycle to finish.
func (u *Updater) Close() {
	u.wakeMu.Lock()
	if u.closed {
		u.wakeMu.Unlock()
		return
	}
	u.closed = true
	close(u.wake)
	close(u.stop)
	u.wakeMu.Unlock()

	<-u.done
}

// The worker loop. A failed cycle is logged and skipped; the state
// machine shape is unchanged and the previously published structure
// remains bound.
func (u *Updater) run() {
	defer close(u.done)

	for range u.wake {
		if err := u.cycle(); err != nil && !errors.Is(err, ErrUpdaterClosed) {
			logger.Warningf("structure update cycle skipped: %v", err)
		}
	}
}

func (u *Updater) cycle() error {
	started := time.Now()

	// Poll until the render flight has submitted at least one frame past
	// the baseline recorded at the previous publish, then wait for that
	// baseline frame to retire. Close releases a worker stuck here.
	for u.lastFrame == u.graphicsFlight.CurrentFrame() {
		select {
		case <-u.stop:
			return ErrUpdaterClosed
		case <-time.After(u.pollInterval):
		}
	}
	if err := u.graphicsFlight.WaitForFrame(u.lastFrame, u.waitTimeout); err != nil {
		return fmt.Errorf("frame %d wait: %w", u.lastFrame, err)
	}

	backIndex := !u.currentIndex.Load()
	back := structureIndex(backIndex)

	instances := u.source.Instances()

	_, err := u.executable.Execute(nil, &updateContext{
		tlas:             u.structures[back],
		instanceBufferID: u.instanceBuffers[back],
		instances:        instances,
	}, nil)
	if err != nil {
		return err
	}

	if err = u.computeFlight.WaitIdle(); err != nil {
		return fmt.Errorf("compute idle wait: %w", err)
	}

	u.lastFrame = u.graphicsFlight.CurrentFrame()

	u.currentIndex.Store(backIndex)
	u.showCurrentIndex.Store(true)

	u.cycles.Add(1)
	u.instanceCount.Store(uint32(len(instances)))

	elapsed := time.Since(started)
	u.lastDuration.Store(int64(elapsed))
	logger.Debugf("structure update took %.2fms (%d instances, index %v)",
		float64(elapsed.Microseconds())/1000.0, len(instances), backIndex)

	return nil
}
