// Package report renders benchmark results as console tables, histograms and PNG charts.
package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/docker/go-units"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"

	"go.viam.com/occupancy/benchmark"
	"go.viam.com/occupancy/metrics"
)

// WriteComparison writes the structural, runtime and theoretical figures of one experiment.
func WriteComparison(w io.Writer, c *benchmark.Comparison) error {
	if c == nil {
		return errors.New("no comparison to report")
	}
	title := fmt.Sprintf("%s: %d points, voxel size %v, depth %d", c.Dataset, c.Points, c.VoxelSize, c.Depth)
	t := table.NewWriter()
	t.AppendHeader(table.Row{"", "Dense Grid", "Octree"})
	t.AppendRow(table.Row{"Build time", formatDuration(c.DenseRuntime), formatDuration(c.OctreeRuntime)})
	t.AppendRow(table.Row{"Cells", c.Dense.Voxels, fmt.Sprintf("%d nodes, %d occupied leaves", c.Tree.Nodes, c.Tree.OccupiedLeaves)})
	t.AppendRow(table.Row{"Memory (estimated)", formatBytes(int64(c.Dense.MemoryBytes)), formatBytes(int64(c.Tree.MemoryBytes))})
	t.AppendRow(table.Row{"Build time per cell", formatDuration(c.DensePerVoxel), formatDuration(c.OctreePerNode)})
	t.AppendSeparator()

	faster := "dense faster"
	if c.OctreeFaster() {
		faster = "octree faster"
	}
	smaller := "dense smaller"
	if c.OctreeSmaller() {
		smaller = "octree smaller"
	}
	t.AppendRow(table.Row{"Speedup", fmt.Sprintf("%s (%s)", formatRatio(c.SpeedRatio), faster), ""})
	t.AppendRow(table.Row{"Memory ratio", fmt.Sprintf("%s (%s)", formatRatio(c.MemoryRatio), smaller), ""})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Full grid cells", c.TheoreticalCells, ""})
	t.AppendRow(table.Row{"Full grid memory", formatBytes(c.TheoreticalMemoryBytes), ""})
	t.AppendRow(table.Row{"Occupancy", fmt.Sprintf("%.6f%%", c.OccupancyFraction*100), ""})
	t.AppendRow(table.Row{"Structural compression", formatRatio(c.CompressionRatio), ""})

	_, err := fmt.Fprintf(w, "%s\n%s\n", title, t.Render())
	return err
}

// WriteSweep writes one row per octree depth next to the dense grid figures.
func WriteSweep(w io.Writer, s *benchmark.SweepResult) error {
	if s == nil {
		return errors.New("no sweep to report")
	}
	title := fmt.Sprintf("%s: %d points, dense grid %d voxels (%s) in %s",
		s.Dataset, s.Points, s.Dense.Voxels, formatBytes(int64(s.Dense.MemoryBytes)), formatDuration(s.DenseRuntime))
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Depth", "Nodes", "Occupied Leaves", "Memory", "Build Time", "Speedup"})
	for _, row := range s.Rows {
		t.AppendRow(table.Row{
			row.Depth,
			row.Tree.Nodes,
			row.Tree.OccupiedLeaves,
			formatBytes(int64(row.Tree.MemoryBytes)),
			formatDuration(row.Runtime),
			formatRatio(metrics.SpeedRatio(s.DenseRuntime, row.Runtime)),
		})
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", title, t.Render())
	return err
}

func formatBytes(n int64) string {
	return units.BytesSize(float64(n))
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Microsecond).String()
}

func formatRatio(r float64) string {
	if math.IsInf(r, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2fx", r)
}
