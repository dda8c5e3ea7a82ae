package report

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"go.viam.com/occupancy/benchmark"
)

const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// PlotFileName turns a dataset name into a file name stem, e.g. "Real Dataset (fragment)" becomes
// "real_dataset_fragment".
func PlotFileName(name string) string {
	name = strings.ToLower(name)
	name = strings.NewReplacer(" ", "_", "(", "", ")", "").Replace(name)
	return name
}

// PlotRuntime saves the octree build time per depth against the dense grid build time.
func PlotRuntime(s *benchmark.SweepResult, filename string) error {
	if err := checkSweep(s); err != nil {
		return err
	}
	octreePts := make(plotter.XYs, len(s.Rows))
	densePts := make(plotter.XYs, len(s.Rows))
	for i, row := range s.Rows {
		octreePts[i] = plotter.XY{X: float64(row.Depth), Y: row.Runtime.Seconds()}
		densePts[i] = plotter.XY{X: float64(row.Depth), Y: s.DenseRuntime.Seconds()}
	}
	return saveLines(
		fmt.Sprintf("Runtime vs Depth (%s)", s.Dataset), "Octree Depth", "Runtime (sec)", filename,
		"Octree Runtime", octreePts, "Dense Voxel Grid Runtime", densePts,
	)
}

// PlotMemory saves the octree occupied leaf count per depth against the dense voxel count.
func PlotMemory(s *benchmark.SweepResult, filename string) error {
	if err := checkSweep(s); err != nil {
		return err
	}
	leafPts := make(plotter.XYs, len(s.Rows))
	voxelPts := make(plotter.XYs, len(s.Rows))
	for i, row := range s.Rows {
		leafPts[i] = plotter.XY{X: float64(row.Depth), Y: float64(row.Tree.OccupiedLeaves)}
		voxelPts[i] = plotter.XY{X: float64(row.Depth), Y: float64(s.Dense.Voxels)}
	}
	return saveLines(
		fmt.Sprintf("Memory Usage Comparison (%s)", s.Dataset), "Depth", "Nodes / Voxels", filename,
		"Octree Occupied Leaves", leafPts, "Dense Voxel Count", voxelPts,
	)
}

// PlotResolution saves the total octree node count per depth.
func PlotResolution(s *benchmark.SweepResult, filename string) error {
	if err := checkSweep(s); err != nil {
		return err
	}
	nodePts := make(plotter.XYs, len(s.Rows))
	for i, row := range s.Rows {
		nodePts[i] = plotter.XY{X: float64(row.Depth), Y: float64(row.Tree.Nodes)}
	}
	return saveLines(
		fmt.Sprintf("Resolution Adaptability (%s)", s.Dataset), "Depth", "Total Nodes Allocated", filename,
		"Octree Total Nodes", nodePts,
	)
}

// PlotRuntimeComparison saves a bar chart of the two build times of one experiment.
func PlotRuntimeComparison(c *benchmark.Comparison, filename string) error {
	if c == nil {
		return errors.New("no comparison to plot")
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Build Time: %s", c.Dataset)
	p.Y.Label.Text = "Runtime (sec)"

	bars, err := plotter.NewBarChart(plotter.Values{c.DenseRuntime.Seconds(), c.OctreeRuntime.Seconds()}, vg.Points(50))
	if err != nil {
		return err
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars, plotter.NewGrid())
	p.NominalX("Dense Grid", "Octree")

	if err := p.Save(plotWidth, plotHeight, filename); err != nil {
		return errors.Wrapf(err, "failed to save plot %q", filename)
	}
	return nil
}

func checkSweep(s *benchmark.SweepResult) error {
	if s == nil || len(s.Rows) == 0 {
		return errors.New("no sweep rows to plot")
	}
	return nil
}

// saveLines plots the named series as lines with point markers. series alternates names and
// plotter.XYs as plotutil.AddLinePoints expects.
func saveLines(title, xLabel, yLabel, filename string, series ...interface{}) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	if err := plotutil.AddLinePoints(p, series...); err != nil {
		return err
	}
	if err := p.Save(plotWidth, plotHeight, filename); err != nil {
		return errors.Wrapf(err, "failed to save plot %q", filename)
	}
	return nil
}
