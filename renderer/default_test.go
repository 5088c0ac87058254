package renderer

import (
	"errors"
	"testing"
	"time"

	"github.com/Thibaos/a-tlas/types"
	"github.com/Thibaos/a-tlas/world"
)

func makeTestWorld(t *testing.T) *world.World {
	t.Helper()

	w := world.New()
	for x := int32(0); x < 4; x++ {
		for z := int32(0); z < 4; z++ {
			if !w.Insert(types.XYZi(x, 0, z), world.Voxel{Scale: 1.0, MaterialIndex: 7}) {
				t.Fatalf("expected insert at (%d, 0, %d) to succeed", x, z)
			}
		}
	}
	return w
}

func TestNewDefaultRequiresWorld(t *testing.T) {
	_, err := NewDefault(nil, world.DefaultPalette(), Options{})
	if !errors.Is(err, ErrWorldNotDefined) {
		t.Fatalf("expected ErrWorldNotDefined; got %v", err)
	}
}

func TestDefaultRendererFrameLoop(t *testing.T) {
	r, err := NewDefault(makeTestWorld(t), world.DefaultPalette(), Options{
		FrameW:           64,
		FrameH:           64,
		MaxInstanceCount: 128,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if got := len(r.TargetPixels()); got != 64*64*4 {
		t.Fatalf("expected a 64x64 RGBA target; got %d bytes", got)
	}

	for i := 0; i < 3; i++ {
		if err = r.Render(); err != nil {
			t.Fatal(err)
		}
	}

	stats := r.Stats()
	if stats.Frame != 3 {
		t.Fatalf("expected 3 rendered frames; got %d", stats.Frame)
	}

	r.RequestUpdate()
	waitFor(t, "update cycle", func() bool { return r.Stats().Updater.Cycles >= 1 })

	stats = r.Stats()
	if stats.InstanceCount != 16 {
		t.Fatalf("expected 16 instances from the test world; got %d", stats.InstanceCount)
	}
	// Each completed cycle flips the published index; starting from false
	// an odd count leaves it at true.
	if want := stats.Updater.Cycles%2 == 1; stats.Updater.CurrentIndex != want {
		t.Fatalf("expected index %v after %d cycles; got %v", want, stats.Updater.Cycles, stats.Updater.CurrentIndex)
	}
	if stats.Updater.LastUpdateTime <= 0 {
		t.Fatalf("expected a positive update duration; got %v", stats.Updater.LastUpdateTime)
	}
}

func TestDefaultRendererPixelsStableAfterRender(t *testing.T) {
	r, err := NewDefault(makeTestWorld(t), world.DefaultPalette(), Options{
		FrameW:           32,
		FrameH:           32,
		MaxInstanceCount: 64,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	// Render must not return before its frame retires: a reader of the
	// target pixels would otherwise race the flight executor. Every pixel
	// of a retired frame carries the same shading pattern.
	for i := 0; i < 16; i++ {
		if err = r.Render(); err != nil {
			t.Fatal(err)
		}

		pix := r.TargetPixels()
		if pix[3] != 0xff {
			t.Fatalf("frame %d: expected opaque alpha; got %#x", i, pix[3])
		}
		for off := 4; off < len(pix); off += 4 {
			if pix[off] != pix[0] || pix[off+1] != pix[1] || pix[off+2] != pix[2] || pix[off+3] != pix[3] {
				t.Fatalf("frame %d: torn pixel at offset %d: %v vs %v", i, off, pix[off:off+4], pix[:4])
			}
		}
	}
}

func TestDefaultRendererResize(t *testing.T) {
	r, err := NewDefault(makeTestWorld(t), world.DefaultPalette(), Options{
		FrameW:           32,
		FrameH:           32,
		MaxInstanceCount: 64,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	dr := r.(*defaultRenderer)
	if err = dr.Resize(48, 16); err != nil {
		t.Fatal(err)
	}
	if got := len(dr.TargetPixels()); got != 48*16*4 {
		t.Fatalf("expected a 48x16 RGBA target after resize; got %d bytes", got)
	}

	// The next frame traces at the new extent.
	if err = r.Render(); err != nil {
		t.Fatal(err)
	}
	pix := dr.TargetPixels()
	if len(pix) != 48*16*4 || pix[3] != 0xff {
		t.Fatalf("expected a traced 48x16 frame after resize; got %d bytes, alpha %#x", len(pix), pix[3])
	}
}

func TestDefaultRendererInvalidateInstances(t *testing.T) {
	w := makeTestWorld(t)
	r, err := NewDefault(w, world.DefaultPalette(), Options{
		FrameW:           32,
		FrameH:           32,
		MaxInstanceCount: 64,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	r.RequestUpdate()
	waitFor(t, "first update cycle", func() bool { return r.Stats().Updater.Cycles >= 1 })

	// Grow the world; the cached instance array only regenerates once
	// invalidated.
	if !w.Insert(types.XYZi(0, 1, 0), world.Voxel{Scale: 1.0, MaterialIndex: 3}) {
		t.Fatal("expected insert to succeed")
	}

	dr := r.(*defaultRenderer)
	dr.InvalidateInstances()

	if err = r.Render(); err != nil {
		t.Fatal(err)
	}
	after := r.Stats().Updater.Cycles
	r.RequestUpdate()
	waitFor(t, "second update cycle", func() bool { return r.Stats().Updater.Cycles > after })

	if got := r.Stats().InstanceCount; got != 17 {
		t.Fatalf("expected 17 instances after invalidation; got %d", got)
	}
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	opts.applyDefaults()

	if opts.FrameW == 0 || opts.FrameH == 0 {
		t.Fatal("expected default frame dimensions")
	}
	if opts.FramesInFlight == 0 {
		t.Fatal("expected a default frames-in-flight count")
	}
	if opts.MaxInstanceCount == 0 {
		t.Fatal("expected a default instance capacity")
	}
	if opts.WorkerPollInterval <= 0 || opts.FrameWaitTimeout <= 0 {
		t.Fatal("expected default worker intervals")
	}
	if opts.TicksPerSecond == 0 {
		t.Fatal("expected a default physics tick rate")
	}

	custom := Options{TicksPerSecond: 30, WorkerPollInterval: 2 * time.Millisecond}
	custom.applyDefaults()
	if custom.TicksPerSecond != 30 || custom.WorkerPollInterval != 2*time.Millisecond {
		t.Fatal("expected explicit options to survive defaulting")
	}
}
