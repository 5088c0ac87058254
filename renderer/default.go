package renderer

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Thibaos/a-tlas/gpu"
	"github.com/Thibaos/a-tlas/gpu/taskgraph"
	"github.com/Thibaos/a-tlas/rt"
	"github.com/Thibaos/a-tlas/world"
)

type defaultRenderer struct {
	options Options

	resources        *gpu.Resources
	graphicsFlightID gpu.FlightID
	computeFlightID  gpu.FlightID

	world  *world.World
	camera *Camera

	blas       *gpu.AccelerationStructure
	structures [2]*gpu.AccelerationStructure

	instanceBuffers [2]*gpu.Buffer
	cameraBuffer    *gpu.Buffer
	sunlightBuffer  *gpu.Buffer
	paletteBuffer   *gpu.Buffer
	scratch         *gpu.Buffer

	target          *gpu.Image
	virtualTargetID gpu.ImageID

	executable *taskgraph.Executable[*FrameContext]

	currentIndex     atomic.Bool
	showCurrentIndex atomic.Bool

	updater     *Updater
	worldSource *WorldSource
	physics     *physicsController

	sunlight SunlightData

	frame          uint64
	lastRenderTime time.Duration
}

// NewDefault creates a headless renderer over the given world: it builds
// the shared bottom-level structure, both top-level copies and their
// instance buffers, uploads the material palette, compiles the render
// graph and starts the update worker.
func NewDefault(w *world.World, palette world.Palette, opts Options) (Renderer, error) {
	if w == nil {
		return nil, ErrWorldNotDefined
	}
	opts.applyDefaults()

	r := &defaultRenderer{
		options:   opts,
		resources: gpu.NewResources(),
		world:     w,
		camera:    &Camera{},
		sunlight: SunlightData{
			Direction: [4]float32{-0.45, -0.8, 0.35, 0.0},
			Color:     [4]float32{1.0, 0.96, 0.9, 1.0},
		},
	}
	r.showCurrentIndex.Store(true)

	if err := r.initStructures(); err != nil {
		r.Close()
		return nil, err
	}
	if err := r.initUniforms(palette); err != nil {
		r.Close()
		return nil, err
	}
	if err := r.initRenderGraph(); err != nil {
		r.Close()
		return nil, err
	}
	if err := r.initUpdater(); err != nil {
		r.Close()
		return nil, err
	}
	r.physics = newPhysicsController(opts.TicksPerSecond)

	return r, nil
}

func (r *defaultRenderer) initStructures() error {
	var err error
	if r.graphicsFlightID, err = r.resources.CreateFlight(r.options.FramesInFlight); err != nil {
		return err
	}
	// The compute flight keeps a single frame in flight: the worker
	// never pipelines refits.
	if r.computeFlightID, err = r.resources.CreateFlight(1); err != nil {
		return err
	}

	builder := rt.NewBuilder(r.resources, r.graphicsFlightID)

	if r.blas, err = builder.BuildTriangleBLAS(world.TrianglesFromBox(0, 0, 0)); err != nil {
		return err
	}

	r.worldSource = NewWorldSource(r.world, r.blas.DeviceAddress(), r.options.LodLevel, r.options.MaxInstanceCount)
	instances := r.worldSource.Instances()

	for i := range r.structures {
		if r.structures[i], r.instanceBuffers[i], err = builder.BuildTLAS(instances, r.options.MaxInstanceCount); err != nil {
			return err
		}
	}

	// One scratch allocation sized for the worst-case refit is shared by
	// both copies; refits never overlap thanks to the idle-wait.
	sizeInfo := &gpu.BuildGeometryInfo{
		Mode: gpu.BuildModeUpdate,
		Geometry: gpu.GeometryData{
			Instances: &gpu.InstancesData{Data: r.instanceBuffers[0]},
		},
	}
	sizes, err := r.resources.AccelerationStructureBuildSizes(sizeInfo, uint32(r.options.MaxInstanceCount))
	if err != nil {
		return err
	}
	r.scratch, err = r.resources.CreateBuffer("update-scratch", sizes.UpdateScratchSize, gpu.UsageShaderDeviceAddress|gpu.UsageStorage)
	return err
}

func (r *defaultRenderer) initUniforms(palette world.Palette) error {
	var err error
	if r.cameraBuffer, err = r.resources.CreateBuffer("camera-uniform", cameraDataSize, gpu.UsageStorage|gpu.UsageTransferDst); err != nil {
		return err
	}
	if r.sunlightBuffer, err = r.resources.CreateBuffer("sunlight-uniform", sunlightDataSize, gpu.UsageStorage|gpu.UsageTransferDst); err != nil {
		return err
	}
	if r.paletteBuffer, err = r.resources.CreateBuffer("palette", len(palette)*16, gpu.UsageStorage|gpu.UsageTransferDst); err != nil {
		return err
	}

	// The palette is static; upload it once at setup and wait.
	err = taskgraph.Submit(r.resources, r.graphicsFlightID, []gpu.BufferID{r.paletteBuffer.ID()},
		func(cb *gpu.CommandBuffer, tcx *taskgraph.TaskContext) error {
			return tcx.WriteBuffer(r.paletteBuffer.ID(), 0, palette[:])
		})
	if err != nil {
		return fmt.Errorf("renderer: palette upload: %w", err)
	}

	flight, err := r.resources.Flight(r.graphicsFlightID)
	if err != nil {
		return err
	}
	return flight.WaitIdle()
}

func (r *defaultRenderer) initRenderGraph() error {
	var err error
	if r.target, err = r.resources.CreateImage("render-target", r.options.FrameW, r.options.FrameH); err != nil {
		return err
	}

	graph := taskgraph.New[*FrameContext](r.resources)
	r.virtualTargetID = graph.AddVirtualImage()

	graph.CreateTaskNode("trace-rays", taskgraph.Graphics, &traceTask{
		targetImageID:    r.virtualTargetID,
		cameraBuffer:     r.cameraBuffer,
		sunlightBuffer:   r.sunlightBuffer,
		structures:       r.structures,
		currentIndex:     &r.currentIndex,
		showCurrentIndex: &r.showCurrentIndex,
	})

	r.executable, err = graph.Compile(&taskgraph.CompileInfo{FlightID: r.graphicsFlightID})
	return err
}

func (r *defaultRenderer) initUpdater() error {
	var source InstanceSource = r.worldSource
	if r.options.StressInstanceCount > 0 {
		source = NewRandomSource(time.Now().UnixNano(), r.blas.DeviceAddress(), r.options.StressInstanceCount)
	}

	var err error
	r.updater, err = NewUpdater(&UpdaterConfig{
		Resources:        r.resources,
		GraphicsFlightID: r.graphicsFlightID,
		ComputeFlightID:  r.computeFlightID,
		Structures:       r.structures,
		InstanceBuffers:  [2]gpu.BufferID{r.instanceBuffers[0].ID(), r.instanceBuffers[1].ID()},
		Scratch:          r.scratch,
		Source:           source,
		CurrentIndex:     &r.currentIndex,
		ShowCurrentIndex: &r.showCurrentIndex,
		PollInterval:     r.options.WorkerPollInterval,
		WaitTimeout:      r.options.FrameWaitTimeout,
	})
	return err
}

// Render submits one frame on the graphics flight, waits for it to
// retire so the target image is stable for presentation, and wakes the
// update worker when a physics tick is due.
func (r *defaultRenderer) Render() error {
	started := time.Now()

	aspect := float32(r.options.FrameW) / float32(r.options.FrameH)
	fcx := &FrameContext{
		Camera:   r.camera.Data(aspect),
		Sunlight: r.sunlight,
	}

	rm := taskgraph.ResourceMap{r.virtualTargetID: r.target.ID()}
	frame, err := r.executable.Execute(rm, fcx, nil)
	if err != nil {
		return err
	}
	if err = r.executable.Flight().WaitForFrame(frame, r.options.FrameWaitTimeout); err != nil {
		return fmt.Errorf("frame %d retire wait: %w", frame, err)
	}

	if r.physics.requestStep() {
		r.updater.RequestUpdate()
	}

	r.frame++
	r.lastRenderTime = time.Since(started)
	return nil
}

// RequestUpdate wakes the update worker out of band, bypassing the
// physics tick pacing.
func (r *defaultRenderer) RequestUpdate() {
	if r.updater != nil {
		r.updater.RequestUpdate()
	}
}

// Camera returns the fly camera driving per-frame uniforms.
func (r *defaultRenderer) Camera() *Camera {
	return r.camera
}

// InvalidateInstances marks world-sourced instance data stale so the
// next update cycle regenerates it sorted around the camera.
func (r *defaultRenderer) InvalidateInstances() {
	r.worldSource.Invalidate(r.camera.GridPosition())
}

// Resize recreates the render target at the new dimensions. The caller
// must not have a frame mid-submission.
func (r *defaultRenderer) Resize(frameW, frameH uint32) error {
	if frameW == 0 || frameH == 0 {
		return nil
	}
	target, err := r.resources.RecreateImage(r.target.ID(), frameW, frameH)
	if err != nil {
		return err
	}
	r.target = target
	r.options.FrameW = frameW
	r.options.FrameH = frameH
	return nil
}

// TargetPixels exposes the traced frame for presentation. Render waits
// for frame retirement, so the returned storage is stable between calls.
func (r *defaultRenderer) TargetPixels() []byte {
	return r.target.Pix()
}

func (r *defaultRenderer) Close() {
	if r.updater != nil {
		r.updater.Close()
		r.updater = nil
	}
	if r.resources != nil {
		r.resources.Close()
		r.resources = nil
	}
}

func (r *defaultRenderer) Stats() FrameStats {
	stats := FrameStats{
		Frame:      r.frame,
		RenderTime: r.lastRenderTime,
	}
	if r.updater != nil {
		stats.InstanceCount = r.updater.InstanceCount()
		stats.Updater = UpdaterStats{
			Cycles:         r.updater.Cycles(),
			LastUpdateTime: r.updater.LastUpdateTime(),
			CurrentIndex:   r.currentIndex.Load(),
		}
	}
	return stats
}
