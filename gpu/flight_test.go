package gpu

import (
	"errors"
	"testing"
	"time"
)

func TestFlightFrameAccounting(t *testing.T) {
	r := NewResources()
	defer r.Close()

	flightID, err := r.CreateFlight(2)
	if err != nil {
		t.Fatal(err)
	}
	flight, err := r.Flight(flightID)
	if err != nil {
		t.Fatal(err)
	}

	if got := flight.CurrentFrame(); got != 0 {
		t.Fatalf("expected current frame to start at 0; got %d", got)
	}

	executed := make(chan int, 4)
	for i := 0; i < 3; i++ {
		i := i
		frame, err := flight.SubmitFrame([]func(){func() { executed <- i }})
		if err != nil {
			t.Fatal(err)
		}
		if frame != uint64(i+1) {
			t.Fatalf("expected frame number %d; got %d", i+1, frame)
		}
	}

	if got := flight.CurrentFrame(); got != 3 {
		t.Fatalf("expected current frame 3 after submissions; got %d", got)
	}

	if err = flight.WaitForFrame(3, time.Second); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if got := <-executed; got != i {
			t.Fatalf("expected frame ops to retire in order; got %d at position %d", got, i)
		}
	}
}

func TestFlightWaitForFrameTimeout(t *testing.T) {
	r := NewResources()
	defer r.Close()

	flightID, _ := r.CreateFlight(1)
	flight, _ := r.Flight(flightID)

	err := flight.WaitForFrame(5, 20*time.Millisecond)
	if !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("expected %v waiting on an unsubmitted frame; got %v", ErrWaitTimeout, err)
	}
}

func TestFlightWaitIdle(t *testing.T) {
	r := NewResources()
	defer r.Close()

	flightID, _ := r.CreateFlight(2)
	flight, _ := r.Flight(flightID)

	release := make(chan struct{})
	if _, err := flight.SubmitFrame([]func(){func() { <-release }}); err != nil {
		t.Fatal(err)
	}

	close(release)
	if err := flight.WaitIdle(); err != nil {
		t.Fatal(err)
	}
}

func TestFlightSubmitAfterCloseFails(t *testing.T) {
	r := NewResources()

	flightID, _ := r.CreateFlight(1)
	flight, _ := r.Flight(flightID)
	r.Close()

	if _, err := flight.SubmitFrame(nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected %v after close; got %v", ErrClosed, err)
	}
}
