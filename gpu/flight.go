package gpu

import (
	"sync"
	"time"
)

// Unique handle of a flight owned by a Resources instance.
type FlightID uint32

// A Flight tracks the in-flight frames of one logical submission queue.
// Frames are numbered from 1 in submission order; CurrentFrame reports how
// many frames have been submitted so far and WaitForFrame blocks until a
// given frame has retired. Submission applies backpressure once the
// configured number of frames is in flight.
type Flight struct {
	id             FlightID
	framesInFlight uint32

	mu        sync.Mutex
	cond      *sync.Cond
	submitted uint64
	completed uint64
	closed    bool

	jobs chan []func()
	done chan struct{}
}

func newFlight(id FlightID, framesInFlight uint32) *Flight {
	f := &Flight{
		id:             id,
		framesInFlight: framesInFlight,
		jobs:           make(chan []func(), framesInFlight),
		done:           make(chan struct{}),
	}
	f.cond = sync.NewCond(&f.mu)

	go f.run()

	return f
}

// The executor drains submitted frames in order and signals retirement.
func (f *Flight) run() {
	defer close(f.done)

	for ops := range f.jobs {
		for _, op := range ops {
			op()
		}

		f.mu.Lock()
		f.completed++
		f.cond.Broadcast()
		f.mu.Unlock()
	}
}

// Get flight id.
func (f *Flight) ID() FlightID {
	return f.id
}

// Get the configured number of frames that may be in flight at once.
func (f *Flight) FramesInFlight() uint32 {
	return f.framesInFlight
}

// Get the number of frames submitted so far.
func (f *Flight) CurrentFrame() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted
}

// Submit one frame worth of recorded work. Blocks while the maximum number
// of frames is already in flight. Returns the submitted frame number.
func (f *Flight) SubmitFrame(ops []func()) (uint64, error) {
	f.mu.Lock()
	for !f.closed && f.submitted-f.completed >= uint64(f.framesInFlight) {
		f.cond.Wait()
	}
	if f.closed {
		f.mu.Unlock()
		return 0, ErrClosed
	}
	f.submitted++
	frame := f.submitted

	// The in-flight gate above bounds the queue depth to the channel
	// capacity, so this send cannot block while the lock is held.
	f.jobs <- ops
	f.mu.Unlock()

	return frame, nil
}

// Block until the given frame number has retired. A non-positive timeout
// waits indefinitely.
func (f *Flight) WaitForFrame(frame uint64, timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
		timer := time.AfterFunc(timeout, func() {
			f.mu.Lock()
			f.cond.Broadcast()
			f.mu.Unlock()
		})
		defer timer.Stop()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for f.completed < frame {
		if f.closed {
			return ErrClosed
		}
		if timeout > 0 && !time.Now().Before(deadline) {
			return ErrWaitTimeout
		}
		f.cond.Wait()
	}

	return nil
}

// Block until every submitted frame has retired.
func (f *Flight) WaitIdle() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for f.completed < f.submitted {
		if f.closed {
			return ErrClosed
		}
		f.cond.Wait()
	}

	return nil
}

func (f *Flight) close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.cond.Broadcast()
	f.mu.Unlock()

	close(f.jobs)
	<-f.done
}
