package report

import (
	"fmt"
	"io"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/pkg/errors"

	"go.viam.com/occupancy/voxel"
)

const histogramWidth = 40

// WriteVisitHistogram writes a histogram of how many points fell into each occupied voxel.
func WriteVisitHistogram(w io.Writer, g *voxel.Grid, bins int) error {
	if bins < 1 {
		return errors.Errorf("histogram needs at least one bin, got %d", bins)
	}
	if g == nil || g.VoxelCount() == 0 {
		return errors.New("no occupied voxels to histogram")
	}
	counts := make([]float64, 0, g.VoxelCount())
	g.Iterate(func(_ voxel.Coords, count int) bool {
		counts = append(counts, float64(count))
		return true
	})
	if _, err := fmt.Fprintf(w, "points per voxel over %d voxels:\n", len(counts)); err != nil {
		return err
	}
	return histogram.Fprint(w, histogram.Hist(bins, counts), histogram.Linear(histogramWidth))
}
