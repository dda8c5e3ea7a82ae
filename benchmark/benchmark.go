package benchmark

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.viam.com/occupancy/config"
	"go.viam.com/occupancy/metrics"
	"go.viam.com/occupancy/octree"
	"go.viam.com/occupancy/voxel"
)

// Options controls how each structure is built and timed.
type Options struct {
	VoxelSize float64
	Depth     int
	// Repeats is the number of timed builds per structure; the median is reported.
	Repeats int
	// Parallel builds independent structures concurrently.
	Parallel bool
	// Clock times the builds; the wall clock when nil.
	Clock clock.Clock
}

func (o Options) clk() clock.Clock {
	if o.Clock == nil {
		return clock.New()
	}
	return o.Clock
}

// OptionsFromConfig takes the build options of a run config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		VoxelSize: cfg.VoxelSize,
		Depth:     cfg.DepthLimit(),
		Repeats:   cfg.Repeats,
		Parallel:  cfg.Parallel,
	}
}

// Validate ensures all options are usable.
func (o Options) Validate() error {
	var err error
	if !(o.VoxelSize > 0) {
		err = multierr.Append(err, errors.Errorf("voxel size must be positive, got %v", o.VoxelSize))
	}
	if o.Depth < 0 {
		err = multierr.Append(err, errors.Errorf("depth must be non-negative, got %d", o.Depth))
	}
	if o.Repeats < 1 {
		err = multierr.Append(err, errors.Errorf("repeats must be at least 1, got %d", o.Repeats))
	}
	return err
}

// Comparison is the outcome of building both structures over one dataset.
type Comparison struct {
	Dataset   string
	Points    int
	Center    r3.Vector
	Size      float64
	VoxelSize float64
	Depth     int

	Dense         metrics.GridSummary
	Tree          metrics.OctreeSummary
	DenseRuntime  time.Duration
	OctreeRuntime time.Duration

	TheoreticalCells       int64
	TheoreticalMemoryBytes int64

	SpeedRatio        float64
	MemoryRatio       float64
	CompressionRatio  float64
	OccupancyFraction float64
	DensePerVoxel     time.Duration
	OctreePerNode     time.Duration

	// Grid and Octree are the last structures built.
	Grid   *voxel.Grid
	Octree *octree.Octree
}

// OctreeFaster reports whether the octree's median build time beat the dense grid's.
func (c *Comparison) OctreeFaster() bool {
	return c.OctreeRuntime < c.DenseRuntime
}

// OctreeSmaller reports whether the octree's memory estimate is below the dense grid's.
func (c *Comparison) OctreeSmaller() bool {
	return c.Tree.MemoryBytes < c.Dense.MemoryBytes
}

// RunExperiment builds the dense grid and the octree over the dataset region and derives the
// comparative figures.
func RunExperiment(ctx context.Context, ds Dataset, opts Options, logger golog.Logger) (*Comparison, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger.Infow("running experiment", "dataset", ds.Name, "points", len(ds.Points),
		"voxel_size", opts.VoxelSize, "depth", opts.Depth)

	var (
		grid         *voxel.Grid
		tree         *octree.Octree
		denseRuntime time.Duration
		treeRuntime  time.Duration
	)
	buildDense := func(ctx context.Context) (err error) {
		grid, denseRuntime, err = timeDense(ctx, ds, opts)
		return err
	}
	buildTree := func(ctx context.Context) (err error) {
		tree, treeRuntime, err = timeOctree(ctx, ds, opts.Depth, opts, logger)
		return err
	}
	if err := runBoth(ctx, opts.Parallel, buildDense, buildTree); err != nil {
		return nil, errors.Wrapf(err, "experiment on dataset %q failed", ds.Name)
	}

	c := &Comparison{
		Dataset:       ds.Name,
		Points:        len(ds.Points),
		Center:        ds.Center,
		Size:          ds.Size,
		VoxelSize:     opts.VoxelSize,
		Depth:         opts.Depth,
		Dense:         metrics.SummarizeGrid(grid),
		Tree:          metrics.SummarizeOctree(tree),
		DenseRuntime:  denseRuntime,
		OctreeRuntime: treeRuntime,
		Grid:          grid,
		Octree:        tree,
	}
	c.TheoreticalCells = metrics.TheoreticalDenseCells(ds.Size, opts.VoxelSize)
	c.TheoreticalMemoryBytes = metrics.TheoreticalDenseMemoryBytes(c.TheoreticalCells, voxel.BytesPerVoxel)
	c.SpeedRatio = metrics.SpeedRatio(denseRuntime, treeRuntime)
	c.MemoryRatio = metrics.MemoryRatio(c.Dense.MemoryBytes, c.Tree.MemoryBytes)
	c.CompressionRatio = metrics.CompressionRatio(c.TheoreticalCells, c.Tree.Nodes)
	c.OccupancyFraction = metrics.OccupancyFraction(c.Dense.Voxels, c.TheoreticalCells)
	c.DensePerVoxel = metrics.PerItem(denseRuntime, c.Dense.Voxels)
	c.OctreePerNode = metrics.PerItem(treeRuntime, c.Tree.Nodes)

	logger.Infow("experiment done", "dataset", ds.Name,
		"dense_runtime", denseRuntime, "octree_runtime", treeRuntime,
		"voxels", c.Dense.Voxels, "nodes", c.Tree.Nodes, "occupied_leaves", c.Tree.OccupiedLeaves)
	return c, nil
}

// SweepRow holds the octree figures at one depth.
type SweepRow struct {
	Depth   int
	Tree    metrics.OctreeSummary
	Runtime time.Duration
}

// SweepResult compares one dense grid against octrees over a range of depths.
type SweepResult struct {
	Dataset      string
	Points       int
	VoxelSize    float64
	Dense        metrics.GridSummary
	DenseRuntime time.Duration
	// Rows are in the order the depths were given.
	Rows []SweepRow

	Grid *voxel.Grid
}

// Depths returns the depth of every row.
func (s *SweepResult) Depths() []int {
	return lo.Map(s.Rows, func(row SweepRow, _ int) int { return row.Depth })
}

// Sweep builds the dense grid once and an octree at each depth. opts.Depth is ignored.
func Sweep(ctx context.Context, ds Dataset, opts Options, depths []int, logger golog.Logger) (*SweepResult, error) {
	if len(depths) == 0 {
		return nil, errors.New("sweep needs at least one depth")
	}
	opts.Depth = 0
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	for _, d := range depths {
		if d < 0 {
			return nil, errors.Errorf("depth must be non-negative, got %d", d)
		}
	}
	logger.Infow("running sweep", "dataset", ds.Name, "points", len(ds.Points), "depths", depths)

	grid, denseRuntime, err := timeDense(ctx, ds, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "sweep on dataset %q failed", ds.Name)
	}
	res := &SweepResult{
		Dataset:      ds.Name,
		Points:       len(ds.Points),
		VoxelSize:    opts.VoxelSize,
		Dense:        metrics.SummarizeGrid(grid),
		DenseRuntime: denseRuntime,
		Rows:         make([]SweepRow, len(depths)),
		Grid:         grid,
	}

	buildRow := func(ctx context.Context, i int) error {
		tree, runtime, err := timeOctree(ctx, ds, depths[i], opts, logger)
		if err != nil {
			return err
		}
		res.Rows[i] = SweepRow{Depth: depths[i], Tree: metrics.SummarizeOctree(tree), Runtime: runtime}
		logger.Debugw("sweep depth done", "depth", depths[i], "nodes", res.Rows[i].Tree.Nodes, "runtime", runtime)
		return nil
	}
	if opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i := range depths {
			g.Go(func() error { return buildRow(gctx, i) })
		}
		err = g.Wait()
	} else {
		for i := range depths {
			if err = buildRow(ctx, i); err != nil {
				break
			}
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "sweep on dataset %q failed", ds.Name)
	}
	return res, nil
}

// runBoth runs the two builds one after the other, or concurrently when parallel is set. The first
// error cancels the other build.
func runBoth(ctx context.Context, parallel bool, first, second func(context.Context) error) error {
	if !parallel {
		if err := first(ctx); err != nil {
			return err
		}
		return second(ctx)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return first(gctx) })
	g.Go(func() error { return second(gctx) })
	return g.Wait()
}

func timeDense(ctx context.Context, ds Dataset, opts Options) (*voxel.Grid, time.Duration, error) {
	bounds := voxel.Bounds{Center: ds.Center, Size: ds.Size}
	var grid *voxel.Grid
	runtime, err := timeRepeated(ctx, opts.clk(), opts.Repeats, func() (err error) {
		grid, err = voxel.Build(ds.Points, opts.VoxelSize, &bounds)
		return err
	})
	return grid, runtime, err
}

func timeOctree(ctx context.Context, ds Dataset, depth int, opts Options, logger golog.Logger) (*octree.Octree, time.Duration, error) {
	var tree *octree.Octree
	runtime, err := timeRepeated(ctx, opts.clk(), opts.Repeats, func() (err error) {
		tree, err = octree.Build(ds.Points, depth, ds.Center, ds.Size, logger)
		return err
	})
	return tree, runtime, err
}

// timeRepeated runs build repeats times and returns the median wall time. The context is checked
// before every run.
func timeRepeated(ctx context.Context, clk clock.Clock, repeats int, build func() error) (time.Duration, error) {
	samples := make(stats.Float64Data, 0, repeats)
	for i := 0; i < repeats; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		start := clk.Now()
		if err := build(); err != nil {
			return 0, err
		}
		samples = append(samples, float64(clk.Since(start)))
	}
	median, err := stats.Median(samples)
	if err != nil {
		return 0, err
	}
	return time.Duration(median), nil
}
