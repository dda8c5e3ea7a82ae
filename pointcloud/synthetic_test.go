package pointcloud

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestGenerateSparseWorld(t *testing.T) {
	cfg := SparseWorldConfig{Objects: 20, PointsPerObject: 50, WorldSize: 40, ObjectRadius: 0.2}

	world, err := GenerateSparseWorld(cfg, 42)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(world.Points), test.ShouldEqual, 1000)
	test.That(t, world.Center, test.ShouldResemble, r3.Vector{})
	test.That(t, world.Size, test.ShouldEqual, 40.)

	// clusters are tight: every point of a cluster stays close to the cluster's first point
	for obj := 0; obj < cfg.Objects; obj++ {
		first := world.Points[obj*cfg.PointsPerObject]
		for j := 1; j < cfg.PointsPerObject; j++ {
			p := world.Points[obj*cfg.PointsPerObject+j]
			test.That(t, p.Distance(first), test.ShouldBeLessThan, 20*cfg.ObjectRadius)
		}
	}
	for _, p := range world.Points {
		limit := cfg.WorldSize/2 + 10*cfg.ObjectRadius
		test.That(t, math.Abs(p.X), test.ShouldBeLessThan, limit)
		test.That(t, math.Abs(p.Y), test.ShouldBeLessThan, limit)
		test.That(t, math.Abs(p.Z), test.ShouldBeLessThan, limit)
	}

	again, err := GenerateSparseWorld(cfg, 42)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again.Points, test.ShouldResemble, world.Points)

	other, err := GenerateSparseWorld(cfg, 43)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, other.Points, test.ShouldNotResemble, world.Points)
}

func TestSparseWorldConfigValidate(t *testing.T) {
	test.That(t, DefaultSparseWorldConfig().Validate(), test.ShouldBeNil)

	err := SparseWorldConfig{}.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "objects must be positive")
	test.That(t, err.Error(), test.ShouldContainSubstring, "points_per_object must be positive")
	test.That(t, err.Error(), test.ShouldContainSubstring, "world_size must be positive")
	test.That(t, err.Error(), test.ShouldContainSubstring, "object_radius must be positive")

	_, err = GenerateSparseWorld(SparseWorldConfig{Objects: 1}, 1)
	test.That(t, err, test.ShouldNotBeNil)
}
