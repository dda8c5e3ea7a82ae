// Package octree implements a depth-limited occupancy octree. Each inserted point descends a fixed
// number of levels from the root, subdividing leaves on the way, and registers an occupied observation
// as a clamped log-odds increment at the leaf it reaches.
//
// An Octree is not safe for concurrent insertion: subdivision mutates ancestors shared by every point
// routed through them. Independent trees may be built concurrently.
package octree

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

var (
	// LogOddsOccupied is the log-odds increment of a hit, for an assumed hit probability of 0.7.
	LogOddsOccupied = math.Log(0.7 / (1 - 0.7))
	// LogOddsFree is the log-odds increment of a miss, for an assumed miss probability of 0.4.
	LogOddsFree = math.Log(0.4 / (1 - 0.4))
)

const (
	// ClampMin is the lower bound of a node's log-odds.
	ClampMin = -3.5
	// ClampMax is the upper bound of a node's log-odds.
	ClampMax = 3.5

	// BytesPerNode is the estimated cost of one node used for memory reporting. It approximates a center,
	// size, log-odds, leaf flag and eight child pointers plus object overhead, and does not reflect any
	// platform's allocator.
	BytesPerNode = 200
)

// Octree is an occupancy octree rooted at a fixed cube.
type Octree struct {
	root *Node
}

// New creates an octree whose root is a single leaf covering the cube of edge size centered at center.
func New(center r3.Vector, size float64) (*Octree, error) {
	if !(size > 0) {
		return nil, errors.Errorf("invalid side length (%.2f) for octree", size)
	}
	return &Octree{root: newLeafNode(center, size)}, nil
}

// Build creates an octree over the given cube and inserts every point at depthLimit.
func Build(points []r3.Vector, depthLimit int, center r3.Vector, size float64, logger golog.Logger) (*Octree, error) {
	if err := validateDepth(depthLimit); err != nil {
		return nil, err
	}
	tree, err := New(center, size)
	if err != nil {
		return nil, err
	}
	for _, p := range points {
		tree.insert(p, depthLimit)
	}
	logger.Debugw("built octree", "points", len(points), "depth", depthLimit, "nodes", tree.CountNodes())
	return tree, nil
}

// Root returns the root node.
func (o *Octree) Root() *Node {
	return o.root
}

// Insert descends depthLimit levels toward p, subdividing any leaf on the way, and registers an
// occupied observation at the node reached. A depthLimit of zero updates the root.
func (o *Octree) Insert(p r3.Vector, depthLimit int) error {
	if err := validateDepth(depthLimit); err != nil {
		return err
	}
	o.insert(p, depthLimit)
	return nil
}

func (o *Octree) insert(p r3.Vector, depthLimit int) *Node {
	node := o.root
	for level := 0; level < depthLimit; level++ {
		node.subdivide()
		node = node.children[node.octant(p)]
	}
	node.UpdateLogOdds(true)
	return node
}

// CountNodes returns the number of internal and leaf nodes in the tree, the root included.
func (o *Octree) CountNodes() int {
	count := 0
	o.root.walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// CountOccupiedLeaves returns the number of leaves whose log-odds is strictly positive.
func (o *Octree) CountOccupiedLeaves() int {
	count := 0
	o.root.walk(func(n *Node) bool {
		if n.IsOccupied() {
			count++
		}
		return true
	})
	return count
}

// EstimateMemoryBytes returns BytesPerNode times the node count.
func (o *Octree) EstimateMemoryBytes() int {
	return BytesPerNode * o.CountNodes()
}

// OccupiedLeaves calls fn for each occupied leaf until fn returns false. Order is unspecified.
func (o *Octree) OccupiedLeaves(fn func(center r3.Vector, size, logOdds float64) bool) {
	o.root.walk(func(n *Node) bool {
		if !n.IsOccupied() {
			return true
		}
		return fn(n.center, n.size, n.logOdds)
	})
}

// LogOddsToProbability converts log-odds l to the probability p where l = ln(p/(1-p)).
func LogOddsToProbability(l float64) float64 {
	return 1 - 1/(1+math.Exp(l))
}

func validateDepth(depthLimit int) error {
	if depthLimit < 0 {
		return errors.Errorf("invalid depth limit (%d) for octree, must be non-negative", depthLimit)
	}
	return nil
}
