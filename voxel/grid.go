// Package voxel implements a dense occupancy grid stored sparsely: every point maps to the integer
// index of the fixed-size cubic cell containing it, and only cells that were hit are stored, each with
// the number of points that fell into it.
package voxel

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/occupancy/metrics"
)

// BytesPerVoxel is the estimated cost of one stored cell used for memory reporting. It is a heuristic
// for a map entry holding three integers and a count, not a measured allocation.
const BytesPerVoxel = 50

// Coords stores voxel coordinates in grid axes.
type Coords struct {
	I, J, K int64
}

// Bounds is the cubic region a grid is anchored to.
type Bounds struct {
	Center r3.Vector
	Size   float64
}

// Min returns the minimum corner of the region.
func (b Bounds) Min() r3.Vector {
	half := b.Size / 2
	return b.Center.Sub(r3.Vector{X: half, Y: half, Z: half})
}

// BoundsFromPoints returns the cube centered on the points' bounding box whose edge is the box's
// largest extent.
func BoundsFromPoints(points []r3.Vector) (Bounds, error) {
	bb, err := metrics.ComputeBoundingBox(points)
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{Center: bb.Center(), Size: bb.MaxExtent()}, nil
}

// Grid maps voxel coordinates to the number of points that fell into the voxel. Every stored count is
// at least one.
type Grid struct {
	voxelSize float64
	bounds    Bounds
	min       r3.Vector
	cells     map[Coords]int
}

// New creates an empty grid of the given voxel size anchored to bounds. When bounds is nil it is
// derived from the points with BoundsFromPoints. New does not insert the points.
func New(points []r3.Vector, voxelSize float64, bounds *Bounds) (*Grid, error) {
	if !(voxelSize > 0) {
		return nil, errors.Errorf("invalid voxel size (%.3f) for grid, must be positive", voxelSize)
	}
	var b Bounds
	if bounds != nil {
		if !(bounds.Size > 0) {
			return nil, errors.Errorf("invalid bounds size (%.3f) for grid, must be positive", bounds.Size)
		}
		b = *bounds
	} else {
		// a fitted cube may be degenerate when every point coincides; the min corner is still well defined
		fitted, err := BoundsFromPoints(points)
		if err != nil {
			return nil, errors.Wrap(err, "cannot derive grid bounds")
		}
		b = fitted
	}
	return &Grid{
		voxelSize: voxelSize,
		bounds:    b,
		min:       b.Min(),
		cells:     make(map[Coords]int),
	}, nil
}

// Build creates a grid with New and inserts every point.
func Build(points []r3.Vector, voxelSize float64, bounds *Bounds) (*Grid, error) {
	g, err := New(points, voxelSize, bounds)
	if err != nil {
		return nil, err
	}
	g.InsertAll(points)
	return g, nil
}

// VoxelSize returns the edge length of one voxel.
func (g *Grid) VoxelSize() float64 {
	return g.voxelSize
}

// Bounds returns the region the grid is anchored to.
func (g *Grid) Bounds() Bounds {
	return g.bounds
}

// Min returns the grid's minimum corner, the origin of voxel (0, 0, 0).
func (g *Grid) Min() r3.Vector {
	return g.min
}

// CoordsOf returns the coordinates of the voxel containing p, floor((p - min) / voxelSize) per axis.
// Points outside the bounds map to out of range coordinates; nothing is clamped.
func (g *Grid) CoordsOf(p r3.Vector) Coords {
	return Coords{
		I: int64(math.Floor((p.X - g.min.X) / g.voxelSize)),
		J: int64(math.Floor((p.Y - g.min.Y) / g.voxelSize)),
		K: int64(math.Floor((p.Z - g.min.Z) / g.voxelSize)),
	}
}

// VoxelCenter returns the center of the voxel at c.
func (g *Grid) VoxelCenter(c Coords) r3.Vector {
	return r3.Vector{
		X: g.min.X + (float64(c.I)+0.5)*g.voxelSize,
		Y: g.min.Y + (float64(c.J)+0.5)*g.voxelSize,
		Z: g.min.Z + (float64(c.K)+0.5)*g.voxelSize,
	}
}

// Insert registers p in its voxel.
func (g *Grid) Insert(p r3.Vector) {
	g.cells[g.CoordsOf(p)]++
}

// InsertAll registers every point.
func (g *Grid) InsertAll(points []r3.Vector) {
	for _, p := range points {
		g.Insert(p)
	}
}

// Count returns how many points fell into the voxel at c.
func (g *Grid) Count(c Coords) int {
	return g.cells[c]
}

// Iterate calls fn for every occupied voxel until fn returns false. Order is unspecified.
func (g *Grid) Iterate(fn func(c Coords, count int) bool) {
	for c, count := range g.cells {
		if !fn(c, count) {
			return
		}
	}
}

// VoxelCount returns the number of occupied voxels.
func (g *Grid) VoxelCount() int {
	return len(g.cells)
}

// TotalPoints returns the sum of all visit counts.
func (g *Grid) TotalPoints() int {
	total := 0
	for _, count := range g.cells {
		total += count
	}
	return total
}

// EstimateMemoryBytes returns BytesPerVoxel times the occupied voxel count. The fully allocated grid
// size is reported separately through metrics.TheoreticalDenseCells.
func (g *Grid) EstimateMemoryBytes() int {
	return BytesPerVoxel * g.VoxelCount()
}
