package cmd

import (
	"image"
	"image/png"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/Thibaos/a-tlas/asset"
	"github.com/Thibaos/a-tlas/renderer"
	"github.com/Thibaos/a-tlas/world"
)

func rendererOptions(ctx *cli.Context) renderer.Options {
	return renderer.Options{
		FrameW:              uint32(ctx.Int("width")),
		FrameH:              uint32(ctx.Int("height")),
		MaxInstanceCount:    ctx.Int("max-instances"),
		LodLevel:            uint32(ctx.Int("lod")),
		StressInstanceCount: ctx.Int("stress-instances"),
	}
}

// loadWorld opens the world file named by the --world flag, or generates
// a procedural world when the flag is empty.
func loadWorld(ctx *cli.Context) (*world.World, error) {
	if location := ctx.String("world"); location != "" {
		res, err := asset.Open(location, nil)
		if err != nil {
			return nil, err
		}
		defer res.Close()

		w, err := world.Load(res.Name(), res)
		if err != nil {
			return nil, err
		}
		logger.Noticef("loaded world from %s: %d voxels across %d chunks",
			res.Path(), w.VoxelCount(), len(w.ActiveChunks()))
		return w, nil
	}

	gen := &world.Generator{
		Seed:   ctx.Int64("seed"),
		Extent: int32(ctx.Int("extent")),
	}

	w := world.New()
	inserted := gen.Generate(w)
	logger.Noticef("generated world with %d voxels across %d chunks", inserted, len(w.ActiveChunks()))
	return w, nil
}

func writeScreenshot(path string, frameW, frameH uint32, pixels []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img := &image.RGBA{
		Pix:    pixels,
		Stride: int(frameW) * 4,
		Rect:   image.Rect(0, 0, int(frameW), int(frameH)),
	}
	return png.Encode(f, img)
}

// Render a fixed number of frames headless and report stats.
func RenderFrames(ctx *cli.Context) error {
	setupLogging(ctx)

	w, err := loadWorld(ctx)
	if err != nil {
		return err
	}

	r, err := renderer.NewDefault(w, world.DefaultPalette(), rendererOptions(ctx))
	if err != nil {
		return err
	}
	defer r.Close()

	frames := ctx.Int("frames")
	updateEvery := ctx.Int("update-every")

	started := time.Now()
	for frame := 0; frame < frames; frame++ {
		if err = r.Render(); err != nil {
			return err
		}
		if updateEvery > 0 && frame%updateEvery == 0 {
			r.RequestUpdate()
		}
	}

	stats := r.Stats()
	logger.Noticef("rendered %d frames in %s (%d instances, %d structure updates, last update %s)",
		stats.Frame, time.Since(started), stats.InstanceCount, stats.Updater.Cycles, stats.Updater.LastUpdateTime)

	if out := ctx.String("out"); out != "" {
		opts := rendererOptions(ctx)
		if err = writeScreenshot(out, opts.FrameW, opts.FrameH, r.TargetPixels()); err != nil {
			return err
		}
		logger.Noticef("wrote last frame to %s", out)
	}

	return nil
}

// Render an interactive view of the world.
func RenderInteractive(ctx *cli.Context) error {
	setupLogging(ctx)

	w, err := loadWorld(ctx)
	if err != nil {
		return err
	}

	r, err := renderer.NewInteractive(w, world.DefaultPalette(), rendererOptions(ctx))
	if err != nil {
		return err
	}
	defer r.Close()

	return r.Render()
}
