package report

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"go.viam.com/occupancy/benchmark"
	"go.viam.com/occupancy/voxel"
)

const (
	minGlyphRadius = vg.Length(1)
	maxGlyphRadius = vg.Length(5)
)

// PlotOccupiedLeaves saves the XY projection of every occupied octree leaf center. A marker's
// radius grows with its leaf's edge length, so coarse leaves stand out from fine ones.
func PlotOccupiedLeaves(c *benchmark.Comparison, filename string) error {
	if c == nil || c.Octree == nil {
		return errors.New("no octree to plot")
	}
	var (
		pts     plotter.XYs
		sizes   []float64
		maxSize float64
	)
	c.Octree.OccupiedLeaves(func(center r3.Vector, size, _ float64) bool {
		pts = append(pts, plotter.XY{X: center.X, Y: center.Y})
		sizes = append(sizes, size)
		maxSize = math.Max(maxSize, size)
		return true
	})
	if len(pts) == 0 {
		return errors.New("no occupied leaves to plot")
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  plotutil.Color(0),
			Shape:  draw.CircleGlyph{},
			Radius: minGlyphRadius + vg.Length(sizes[i]/maxSize)*(maxGlyphRadius-minGlyphRadius),
		}
	}
	return saveScatter(fmt.Sprintf("Octree Occupancy, Leaf Centers (%s, depth %d)", c.Dataset, c.Depth), filename, scatter)
}

// PlotVoxels saves the XY projection of every occupied dense voxel center.
func PlotVoxels(c *benchmark.Comparison, filename string) error {
	if c == nil || c.Grid == nil {
		return errors.New("no voxel grid to plot")
	}
	pts := make(plotter.XYs, 0, c.Grid.VoxelCount())
	c.Grid.Iterate(func(coords voxel.Coords, _ int) bool {
		center := c.Grid.VoxelCenter(coords)
		pts = append(pts, plotter.XY{X: center.X, Y: center.Y})
		return true
	})
	if len(pts) == 0 {
		return errors.New("no voxels to plot")
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.GlyphStyle = draw.GlyphStyle{Color: plotutil.Color(2), Shape: draw.BoxGlyph{}, Radius: vg.Points(1.5)}
	return saveScatter(fmt.Sprintf("Dense Voxel Centers (%s, voxel size %v)", c.Dataset, c.VoxelSize), filename, scatter)
}

func saveScatter(title, filename string, scatter *plotter.Scatter) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	p.Add(plotter.NewGrid(), scatter)

	if err := p.Save(plotWidth, plotWidth, filename); err != nil {
		return errors.Wrapf(err, "failed to save plot %q", filename)
	}
	return nil
}
