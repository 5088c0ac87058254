package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/Thibaos/a-tlas/cmd"
)

func worldFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "world",
			Usage: "path or URL of a world file to load instead of generating",
		},
		cli.Int64Flag{
			Name:  "seed",
			Value: 42,
			Usage: "seed for procedural world generation",
		},
		cli.IntFlag{
			Name:  "extent",
			Value: 128,
			Usage: "generated terrain half-width in voxels",
		},
	}
}

func renderFlags() []cli.Flag {
	return append(worldFlags(),
		cli.IntFlag{
			Name:  "width",
			Value: 1280,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 720,
			Usage: "frame height",
		},
		cli.IntFlag{
			Name:  "lod",
			Value: 0,
			Usage: "level-of-detail stride for generated instances",
		},
		cli.IntFlag{
			Name:  "max-instances",
			Value: 1 << 20,
			Usage: "capacity of each top-level structure's instance array",
		},
		cli.IntFlag{
			Name:  "stress-instances",
			Value: 0,
			Usage: "use a randomized instance source of this size instead of the world",
		},
	)
}

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "a-tlas"
	app.Usage = "ray trace voxel worlds with asynchronously updated acceleration structures"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render the voxel world",
			Subcommands: []cli.Command{
				{
					Name:  "frames",
					Usage: "render a fixed number of frames headless",
					Description: `
Render frames without a window, waking the structure update worker at a
configurable frame interval, and report timing statistics.`,
					Flags: append(renderFlags(),
						cli.IntFlag{
							Name:  "frames",
							Value: 120,
							Usage: "number of frames to render",
						},
						cli.IntFlag{
							Name:  "update-every",
							Value: 30,
							Usage: "request a structure update every N frames (0 disables)",
						},
						cli.StringFlag{
							Name:  "out",
							Usage: "write the last rendered frame to this PNG file",
						},
					),
					Action: cmd.RenderFrames,
				},
				{
					Name:   "interactive",
					Usage:  "render an interactive view of the world",
					Flags:  renderFlags(),
					Action: cmd.RenderInteractive,
				},
			},
		},
		{
			Name:  "world",
			Usage: "inspect and export voxel worlds",
			Subcommands: []cli.Command{
				{
					Name:   "info",
					Usage:  "load or generate a world and display occupancy statistics",
					Flags:  worldFlags(),
					Action: cmd.WorldInfo,
				},
				{
					Name:  "export",
					Usage: "generate a world and write it as a world file",
					Flags: append(worldFlags(),
						cli.StringFlag{
							Name:  "out",
							Value: "world.txt",
							Usage: "output world file path",
						},
					),
					Action: cmd.WorldExport,
				},
			},
		},
	}

	app.Run(os.Args)
}
