package gpu

import (
	"fmt"
	"sync"
)

// Device addresses handed to structures start well clear of zero so an
// uninitialized instance record reference is never a valid address.
const deviceAddressBase uint64 = 0x51c0_0000

// The Resources manager owns every buffer, image, flight and acceleration
// structure of a renderer instance. It stands in for the device-side
// resource manager: creation can fail, lookups are by id, and teardown
// stops the flight executors.
type Resources struct {
	mu     sync.Mutex
	closed bool

	buffers map[BufferID]*Buffer
	images  map[ImageID]*Image
	flights map[FlightID]*Flight

	nextBuffer  BufferID
	nextImage   ImageID
	nextFlight  FlightID
	nextAddress uint64
}

// Create an empty resource manager.
func NewResources() *Resources {
	return &Resources{
		buffers:     make(map[BufferID]*Buffer),
		images:      make(map[ImageID]*Image),
		flights:     make(map[FlightID]*Flight),
		nextAddress: deviceAddressBase,
	}
}

// Allocate a host-visible buffer of the given size.
func (r *Resources) CreateBuffer(name string, size int, usage BufferUsage) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("gpu (%s): invalid buffer size %d", name, size)
	}
	if usage == 0 {
		return nil, fmt.Errorf("gpu (%s): buffer created without usage flags", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	r.nextBuffer++
	buf := &Buffer{
		id:    r.nextBuffer,
		name:  name,
		usage: usage,
		data:  make([]byte, size),
	}
	r.buffers[buf.id] = buf

	return buf, nil
}

// Look up a buffer by id.
func (r *Resources) Buffer(id BufferID) (*Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf, ok := r.buffers[id]
	if !ok {
		return nil, ErrUnknownResource
	}
	return buf, nil
}

// Allocate an RGBA render target.
func (r *Resources) CreateImage(name string, width, height uint32) (*Image, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("gpu (%s): invalid image extent %dx%d", name, width, height)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	r.nextImage++
	im := &Image{
		id:     r.nextImage,
		name:   name,
		extent: [2]uint32{width, height},
		pix:    make([]byte, int(width)*int(height)*4),
	}
	r.images[im.id] = im

	return im, nil
}

// Replace an image's storage with a new extent, keeping its id. Used when
// the presentation surface is resized.
func (r *Resources) RecreateImage(id ImageID, width, height uint32) (*Image, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("gpu: invalid image extent %dx%d", width, height)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.images[id]
	if !ok {
		return nil, ErrUnknownResource
	}

	im := &Image{
		id:     id,
		name:   old.name,
		extent: [2]uint32{width, height},
		pix:    make([]byte, int(width)*int(height)*4),
	}
	r.images[id] = im

	return im, nil
}

// Look up an image by id.
func (r *Resources) Image(id ImageID) (*Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	im, ok := r.images[id]
	if !ok {
		return nil, ErrUnknownResource
	}
	return im, nil
}

// Create a flight tracking the given number of in-flight frames and start
// its executor.
func (r *Resources) CreateFlight(framesInFlight uint32) (FlightID, error) {
	if framesInFlight == 0 {
		return 0, fmt.Errorf("gpu: flight requires at least one frame in flight")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrClosed
	}

	r.nextFlight++
	r.flights[r.nextFlight] = newFlight(r.nextFlight, framesInFlight)

	return r.nextFlight, nil
}

// Look up a flight by id.
func (r *Resources) Flight(id FlightID) (*Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.flights[id]
	if !ok {
		return nil, ErrUnknownResource
	}
	return f, nil
}

// Create an acceleration structure handle over the given storage buffer
// and assign its device address.
func (r *Resources) CreateStructure(ty StructureType, name string, storage *Buffer) (*AccelerationStructure, error) {
	if storage == nil {
		return nil, fmt.Errorf("gpu (%s): structure created without storage", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	as := &AccelerationStructure{
		ty:            ty,
		name:          name,
		deviceAddress: r.nextAddress,
		storage:       storage,
	}
	r.nextAddress += uint64(storage.Size()+255) &^ 255

	return as, nil
}

// Report the memory requirements for building the described structure
// with the given primitive count. The estimates are deterministic in the
// inputs so repeated queries agree.
func (r *Resources) AccelerationStructureBuildSizes(info *BuildGeometryInfo, primitiveCount uint32) (BuildSizesInfo, error) {
	if info.Geometry.Empty() {
		return BuildSizesInfo{}, ErrMissingGeometry
	}
	return buildSizes(&info.Geometry, int(primitiveCount)), nil
}

func buildSizes(g *GeometryData, n int) BuildSizesInfo {
	if g.StructureType() == TopLevel {
		return BuildSizesInfo{
			AccelerationStructureSize: 256 + n*96,
			BuildScratchSize:          128 + n*32,
			UpdateScratchSize:         64 + n*16,
		}
	}

	return BuildSizesInfo{
		AccelerationStructureSize: 256 + n*128,
		BuildScratchSize:          128 + n*64,
		UpdateScratchSize:         64 + n*32,
	}
}

// Stop all flight executors and reject further resource creation.
func (r *Resources) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	flights := make([]*Flight, 0, len(r.flights))
	for _, f := range r.flights {
		flights = append(flights, f)
	}
	r.mu.Unlock()

	for _, f := range flights {
		f.close()
	}
}
