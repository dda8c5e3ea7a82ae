package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/occupancy/benchmark"
	"go.viam.com/occupancy/config"
	"go.viam.com/occupancy/pointcloud"
	"go.viam.com/occupancy/report"
)

// loadConfig reads the --config file when given, or builds a single dataset config from flags.
// Flags that are set override file values.
func loadConfig(c *cli.Context, logger golog.Logger) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path, logger); err != nil {
			return nil, err
		}
	} else {
		ds := config.DatasetConfig{Name: c.String(flagName), Seed: c.Uint64(flagSeed)}
		if input := c.String(flagInput); input != "" {
			ds.File = input
			if ds.Name == "" {
				ds.Name = filepath.Base(input)
			}
		} else {
			synthetic := pointcloud.DefaultSparseWorldConfig()
			ds.Synthetic = &synthetic
			if ds.Name == "" {
				ds.Name = "Synthetic Sparse World"
			}
		}
		defaults := config.Default()
		defaults.Datasets = []config.DatasetConfig{ds}
		cfg = &defaults
	}

	if c.IsSet(flagVoxelSize) {
		cfg.VoxelSize = c.Float64(flagVoxelSize)
	}
	if c.IsSet(flagDepth) {
		depth := c.Int(flagDepth)
		cfg.Depth = &depth
	}
	if c.IsSet(flagDepths) {
		cfg.SweepDepths = c.IntSlice(flagDepths)
	}
	if c.IsSet(flagRepeats) {
		cfg.Repeats = c.Int(flagRepeats)
	}
	if c.IsSet(flagParallel) {
		cfg.Parallel = c.Bool(flagParallel)
	}
	if c.IsSet(flagPlots) {
		cfg.Plots = c.Bool(flagPlots)
	}
	if c.IsSet(flagOutputDir) {
		cfg.OutputDir = c.String(flagOutputDir)
	}
	if c.IsSet(flagHistogramBins) {
		cfg.HistogramBins = c.Int(flagHistogramBins)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Plots {
		if err := os.MkdirAll(cfg.OutputDir, 0o750); err != nil {
			return nil, errors.Wrapf(err, "cannot create output directory %q", cfg.OutputDir)
		}
	}
	return cfg, nil
}

func runAction(c *cli.Context, logger golog.Logger) error {
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	opts := benchmark.OptionsFromConfig(cfg)
	for _, dsCfg := range cfg.Datasets {
		ds, err := benchmark.LoadDataset(dsCfg, logger)
		if err != nil {
			return err
		}
		comparison, err := benchmark.RunExperiment(c.Context, ds, opts, logger)
		if err != nil {
			return err
		}
		if err := report.WriteComparison(c.App.Writer, comparison); err != nil {
			return err
		}
		if comparison.Dense.Voxels > 0 {
			if err := report.WriteVisitHistogram(c.App.Writer, comparison.Grid, cfg.HistogramBins); err != nil {
				return err
			}
		}
		if !cfg.Plots {
			continue
		}
		stem := report.PlotFileName(ds.Name)
		plots := []namedPlot[*benchmark.Comparison]{
			{"runtime_comparison_", report.PlotRuntimeComparison},
			{"octree_leaves_", report.PlotOccupiedLeaves},
		}
		if comparison.Dense.Voxels > 0 {
			plots = append(plots, namedPlot[*benchmark.Comparison]{"voxel_grid_", report.PlotVoxels})
		}
		if err := savePlots(cfg.OutputDir, stem, comparison, plots, logger); err != nil {
			return err
		}
	}
	return nil
}

func sweepAction(c *cli.Context, logger golog.Logger) error {
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	opts := benchmark.OptionsFromConfig(cfg)
	for _, dsCfg := range cfg.Datasets {
		ds, err := benchmark.LoadDataset(dsCfg, logger)
		if err != nil {
			return err
		}
		res, err := benchmark.Sweep(c.Context, ds, opts, cfg.SweepDepths, logger)
		if err != nil {
			return err
		}
		if err := report.WriteSweep(c.App.Writer, res); err != nil {
			return err
		}
		if !cfg.Plots {
			continue
		}
		plots := []namedPlot[*benchmark.SweepResult]{
			{"runtime_vs_depth_", report.PlotRuntime},
			{"memory_vs_depth_", report.PlotMemory},
			{"octree_resolution_", report.PlotResolution},
		}
		if err := savePlots(cfg.OutputDir, report.PlotFileName(ds.Name), res, plots, logger); err != nil {
			return err
		}
	}
	return nil
}

// namedPlot is a chart saved as <prefix><dataset stem>.png.
type namedPlot[T any] struct {
	prefix string
	save   func(T, string) error
}

// savePlots saves each plot in order.
func savePlots[T any](dir, stem string, result T, plots []namedPlot[T], logger golog.Logger) error {
	for _, p := range plots {
		fn := filepath.Join(dir, p.prefix+stem+".png")
		if err := p.save(result, fn); err != nil {
			return err
		}
		logger.Infow("saved plot", "file", fn)
	}
	return nil
}

func generateAction(c *cli.Context, logger golog.Logger) error {
	worldCfg := pointcloud.DefaultSparseWorldConfig()
	if c.IsSet(flagObjects) {
		worldCfg.Objects = c.Int(flagObjects)
	}
	if c.IsSet(flagPointsPerObj) {
		worldCfg.PointsPerObject = c.Int(flagPointsPerObj)
	}
	if c.IsSet(flagWorldSize) {
		worldCfg.WorldSize = c.Float64(flagWorldSize)
	}
	if c.IsSet(flagObjectRadius) {
		worldCfg.ObjectRadius = c.Float64(flagObjectRadius)
	}
	world, err := pointcloud.GenerateSparseWorld(worldCfg, c.Uint64(flagSeed))
	if err != nil {
		return err
	}

	out := c.String(flagOutput)
	switch strings.ToLower(filepath.Ext(out)) {
	case ".las":
		err = pointcloud.WriteToLASFile(world.Points, out)
	case ".pcd":
		typ := pointcloud.PCDAscii
		if c.Bool(flagBinary) {
			typ = pointcloud.PCDBinary
		}
		err = pointcloud.WriteToPCDFile(world.Points, out, typ)
	default:
		return errors.Errorf("do not know how to write file %q", out)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to write %q", out)
	}
	logger.Infow("generated sparse world", "file", out, "points", len(world.Points), "world_size", world.Size)
	return nil
}
