// Package metrics derives the structural figures used to compare occupancy representations: bounding
// boxes of point sets, theoretical dense grid sizes, and the ratios between octree and grid builds.
// Every function is pure; nothing is cached between calls.
package metrics

import (
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrNoPoints is returned when a bounding box is requested for an empty point set.
var ErrNoPoints = errors.New("cannot compute bounding box of an empty point set")

// BoundingBox is the minimal axis-aligned box containing a point set.
type BoundingBox struct {
	Min r3.Vector
	Max r3.Vector
}

// ComputeBoundingBox returns the per-axis minimum and maximum across points.
func ComputeBoundingBox(points []r3.Vector) (BoundingBox, error) {
	if len(points) == 0 {
		return BoundingBox{}, ErrNoPoints
	}
	bb := BoundingBox{
		Min: r3.Vector{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64},
		Max: r3.Vector{X: -math.MaxFloat64, Y: -math.MaxFloat64, Z: -math.MaxFloat64},
	}
	for _, p := range points {
		bb.merge(p)
	}
	return bb, nil
}

func (bb *BoundingBox) merge(p r3.Vector) {
	if p.X > bb.Max.X {
		bb.Max.X = p.X
	}
	if p.Y > bb.Max.Y {
		bb.Max.Y = p.Y
	}
	if p.Z > bb.Max.Z {
		bb.Max.Z = p.Z
	}

	if p.X < bb.Min.X {
		bb.Min.X = p.X
	}
	if p.Y < bb.Min.Y {
		bb.Min.Y = p.Y
	}
	if p.Z < bb.Min.Z {
		bb.Min.Z = p.Z
	}
}

// Extent returns max - min on each axis.
func (bb BoundingBox) Extent() r3.Vector {
	return bb.Max.Sub(bb.Min)
}

// Center returns the midpoint of the box.
func (bb BoundingBox) Center() r3.Vector {
	return bb.Min.Add(bb.Max).Mul(0.5)
}

// MaxExtent returns the largest extent across the three axes, the edge of the smallest cube centered
// on the box that covers it.
func (bb BoundingBox) MaxExtent() float64 {
	e := bb.Extent()
	return math.Max(e.X, math.Max(e.Y, e.Z))
}

// TheoreticalDenseCells returns the number of cells a fully allocated cubic grid of edge size would need
// at the given voxel size, ceil(size/voxelSize)^3. Counts beyond math.MaxInt64 saturate.
func TheoreticalDenseCells(size, voxelSize float64) int64 {
	side := math.Ceil(size / voxelSize)
	switch {
	case math.IsNaN(side) || side <= 0:
		return 0
	case side >= maxCubeSide:
		return math.MaxInt64
	}
	n := int64(side)
	return n * n * n
}

// maxCubeSide is the smallest side whose cube overflows int64.
const maxCubeSide = 1 << 21

// TheoreticalDenseMemoryBytes returns the memory a fully allocated grid of cells would need,
// saturating at math.MaxInt64.
func TheoreticalDenseMemoryBytes(cells int64, bytesPerCell int) int64 {
	if bytesPerCell > 0 && cells > math.MaxInt64/int64(bytesPerCell) {
		return math.MaxInt64
	}
	return cells * int64(bytesPerCell)
}

// CompressionRatio is the number of theoretical dense cells per allocated octree node.
func CompressionRatio(denseCells int64, octreeNodes int) float64 {
	if octreeNodes < 1 {
		octreeNodes = 1
	}
	return float64(denseCells) / float64(octreeNodes)
}

// MemoryRatio is dense grid memory over octree memory; +Inf when the octree estimate is zero.
func MemoryRatio(denseBytes, octreeBytes int) float64 {
	if octreeBytes <= 0 {
		return math.Inf(1)
	}
	return float64(denseBytes) / float64(octreeBytes)
}

// SpeedRatio is dense build time over octree build time; +Inf when the octree took no measurable time.
// A value above one means the octree built faster.
func SpeedRatio(dense, octree time.Duration) float64 {
	if octree <= 0 {
		return math.Inf(1)
	}
	return float64(dense) / float64(octree)
}

// OccupancyFraction is the share of theoretical dense cells that actually hold points.
func OccupancyFraction(voxels int, denseCells int64) float64 {
	if denseCells <= 0 {
		return 0
	}
	return float64(voxels) / float64(denseCells)
}

// PerItem spreads d evenly over n items; zero when n is not positive.
func PerItem(d time.Duration, n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return d / time.Duration(n)
}
