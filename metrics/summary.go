package metrics

// OctreeCounter is the query surface of an occupancy octree.
type OctreeCounter interface {
	CountNodes() int
	CountOccupiedLeaves() int
	EstimateMemoryBytes() int
}

// GridCounter is the query surface of a dense occupancy grid.
type GridCounter interface {
	VoxelCount() int
	TotalPoints() int
	EstimateMemoryBytes() int
}

// OctreeSummary holds the structural figures of one octree.
type OctreeSummary struct {
	Nodes          int
	OccupiedLeaves int
	MemoryBytes    int
}

// GridSummary holds the structural figures of one dense grid.
type GridSummary struct {
	Voxels      int
	TotalPoints int
	MemoryBytes int
}

// SummarizeOctree reads the structural figures of o.
func SummarizeOctree(o OctreeCounter) OctreeSummary {
	return OctreeSummary{
		Nodes:          o.CountNodes(),
		OccupiedLeaves: o.CountOccupiedLeaves(),
		MemoryBytes:    o.EstimateMemoryBytes(),
	}
}

// SummarizeGrid reads the structural figures of g.
func SummarizeGrid(g GridCounter) GridSummary {
	return GridSummary{
		Voxels:      g.VoxelCount(),
		TotalPoints: g.TotalPoints(),
		MemoryBytes: g.EstimateMemoryBytes(),
	}
}
