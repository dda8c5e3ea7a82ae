package octree

import (
	"math"

	"github.com/golang/geo/r3"
)

// Node is a cubic cell of an occupancy octree. A node is a leaf until it is subdivided, after which it
// owns exactly eight children and its own log-odds value is no longer meaningful.
type Node struct {
	center   r3.Vector
	size     float64
	logOdds  float64
	children [8]*Node
}

func newLeafNode(center r3.Vector, size float64) *Node {
	return &Node{center: center, size: size}
}

// Center returns the center of the node's cell.
func (n *Node) Center() r3.Vector {
	return n.center
}

// Size returns the edge length of the node's cell.
func (n *Node) Size() float64 {
	return n.size
}

// LogOdds returns the accumulated occupancy log-odds. Only leaf values are meaningful.
func (n *Node) LogOdds() float64 {
	return n.logOdds
}

// Probability returns the occupancy probability corresponding to the node's log-odds.
func (n *Node) Probability() float64 {
	return LogOddsToProbability(n.logOdds)
}

// IsLeaf returns whether the node has no children.
func (n *Node) IsLeaf() bool {
	for _, child := range n.children {
		if child != nil {
			return false
		}
	}
	return true
}

// IsOccupied returns whether the node is a leaf with positive log-odds, i.e. an occupancy
// probability above one half.
func (n *Node) IsOccupied() bool {
	return n.IsLeaf() && n.logOdds > 0
}

// Child returns the child at the given octant index, or nil if the node is a leaf or the index is out
// of range.
func (n *Node) Child(octant int) *Node {
	if octant < 0 || octant >= len(n.children) {
		return nil
	}
	return n.children[octant]
}

// UpdateLogOdds registers a single observation at the node, adding the occupied or free increment and
// clamping the result to [ClampMin, ClampMax].
func (n *Node) UpdateLogOdds(occupied bool) {
	if occupied {
		n.logOdds += LogOddsOccupied
	} else {
		n.logOdds += LogOddsFree
	}
	n.logOdds = math.Min(math.Max(n.logOdds, ClampMin), ClampMax)
}

// octant returns the index of the child whose half-space contains p on every axis. Bit 0 selects +X,
// bit 1 +Y and bit 2 +Z. A coordinate equal to the center falls into the negative half.
func (n *Node) octant(p r3.Vector) int {
	idx := 0
	if p.X > n.center.X {
		idx |= 1
	}
	if p.Y > n.center.Y {
		idx |= 1 << 1
	}
	if p.Z > n.center.Z {
		idx |= 1 << 2
	}
	return idx
}

// subdivide splits a leaf into eight half-size children laid out with the same bit convention as
// octant. It is a no-op on internal nodes.
func (n *Node) subdivide() {
	if !n.IsLeaf() {
		return
	}
	half := n.size / 2
	quarter := n.size / 4
	for i := range n.children {
		offset := r3.Vector{X: -quarter, Y: -quarter, Z: -quarter}
		if i&1 != 0 {
			offset.X = quarter
		}
		if i&(1<<1) != 0 {
			offset.Y = quarter
		}
		if i&(1<<2) != 0 {
			offset.Z = quarter
		}
		n.children[i] = newLeafNode(n.center.Add(offset), half)
	}
}

// walk visits n and every descendant exactly once, depth first. It stops early when fn returns false
// and reports whether traversal ran to completion.
func (n *Node) walk(fn func(node *Node) bool) bool {
	stack := []*Node{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(node) {
			return false
		}
		for _, child := range node.children {
			if child != nil {
				stack = append(stack, child)
			}
		}
	}
	return true
}
