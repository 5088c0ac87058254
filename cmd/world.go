package cmd

import (
	"os"

	"github.com/urfave/cli"

	"github.com/Thibaos/a-tlas/world"
)

// Load or generate a world and display its occupancy statistics.
func WorldInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	w, err := loadWorld(ctx)
	if err != nil {
		return err
	}
	logger.Noticef("world information:\n%s", w.Stats())

	return nil
}

// Generate a world and write it as a world file.
func WorldExport(ctx *cli.Context) error {
	setupLogging(ctx)

	w, err := loadWorld(ctx)
	if err != nil {
		return err
	}

	out := ctx.String("out")
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = world.Save(w, f); err != nil {
		return err
	}
	logger.Noticef("wrote %d voxels to %s", w.VoxelCount(), out)

	return nil
}
