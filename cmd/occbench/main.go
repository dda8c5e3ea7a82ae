// Package main is the occbench command, which compares occupancy octrees with dense voxel grids.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/edaniels/golog"
	"github.com/urfave/cli/v2"

	"go.viam.com/occupancy/config"
	"go.viam.com/occupancy/logging"
)

const (
	// Flags.
	flagConfig        = "config"
	flagDebug         = "debug"
	flagInput         = "input"
	flagName          = "name"
	flagSeed          = "seed"
	flagVoxelSize     = "voxel-size"
	flagDepth         = "depth"
	flagDepths        = "depths"
	flagRepeats       = "repeats"
	flagParallel      = "parallel"
	flagPlots         = "plots"
	flagOutputDir     = "output-dir"
	flagHistogramBins = "histogram-bins"
	flagOutput        = "output"
	flagBinary        = "binary"
	flagObjects       = "objects"
	flagPointsPerObj  = "points-per-object"
	flagWorldSize     = "world-size"
	flagObjectRadius  = "object-radius"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var logger golog.Logger
	if err := newApp(&logger).RunContext(ctx, os.Args); err != nil {
		if logger == nil {
			logger = logging.NewLogger("occbench")
		}
		logger.Error(err)
		cancel()
		os.Exit(1) //nolint:gocritic
	}
}

func newApp(logger *golog.Logger) *cli.App {
	buildFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "load benchmark configuration from `FILE`",
		},
		&cli.StringFlag{
			Name:  flagInput,
			Usage: "read points from a .pcd or .las `FILE` instead of generating a sparse world",
		},
		&cli.StringFlag{
			Name:  flagName,
			Usage: "name of the dataset in reports",
		},
		&cli.Uint64Flag{
			Name:  flagSeed,
			Usage: "seed of the generated sparse world",
		},
		&cli.Float64Flag{
			Name:  flagVoxelSize,
			Usage: "edge length of a dense grid voxel",
		},
		&cli.IntFlag{
			Name:    flagRepeats,
			Aliases: []string{"n"},
			Usage:   "timed builds per structure; the median is reported",
		},
		&cli.BoolFlag{
			Name:  flagParallel,
			Usage: "build independent structures concurrently",
		},
		&cli.BoolFlag{
			Name:  flagPlots,
			Usage: "save PNG charts to the output directory",
		},
		&cli.StringFlag{
			Name:  flagOutputDir,
			Usage: "directory charts are saved to",
		},
		&cli.IntFlag{
			Name:  flagHistogramBins,
			Usage: "bins of the points per voxel histogram",
		},
	}

	return &cli.App{
		Name:  "occbench",
		Usage: "compare occupancy octrees with dense voxel grids",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				*logger = logging.NewDebugLogger("occbench")
			} else {
				*logger = logging.NewLogger("occbench")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "build both structures over each dataset and compare them",
				UsageText: "occbench run [--config FILE | --input FILE] [other options]",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  flagDepth,
						Usage: "octree depth limit",
					},
				}, buildFlags...),
				Action: func(c *cli.Context) error {
					return runAction(c, *logger)
				},
			},
			{
				Name:      "sweep",
				Usage:     "compare octrees of increasing depth with one dense grid",
				UsageText: "occbench sweep [--config FILE | --input FILE] [--depths 3,4,5] [other options]",
				Flags: append([]cli.Flag{
					&cli.IntSliceFlag{
						Name:  flagDepths,
						Usage: "octree depth limits to sweep",
					},
				}, buildFlags...),
				Action: func(c *cli.Context) error {
					return sweepAction(c, *logger)
				},
			},
			{
				Name:      "generate",
				Usage:     "write a synthetic sparse world to a point cloud file",
				UsageText: "occbench generate --output FILE [options]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagOutput,
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "destination .pcd or .las `FILE`",
					},
					&cli.BoolFlag{
						Name:  flagBinary,
						Usage: "write binary instead of ascii pcd data",
					},
					&cli.Uint64Flag{
						Name:  flagSeed,
						Usage: "seed of the generated world",
					},
					&cli.IntFlag{
						Name:  flagObjects,
						Usage: "number of point clusters",
					},
					&cli.IntFlag{
						Name:  flagPointsPerObj,
						Usage: "points per cluster",
					},
					&cli.Float64Flag{
						Name:  flagWorldSize,
						Usage: "edge length of the world cube",
					},
					&cli.Float64Flag{
						Name:  flagObjectRadius,
						Usage: "standard deviation of the points around a cluster center",
					},
				},
				Action: func(c *cli.Context) error {
					return generateAction(c, *logger)
				},
			},
			{
				Name:  "schema",
				Usage: "print the JSON schema of benchmark config files",
				Action: func(c *cli.Context) error {
					schema, err := config.Schema()
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(c.App.Writer, string(schema))
					return err
				},
			},
		},
	}
}
