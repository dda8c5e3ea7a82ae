package pointcloud

import (
	"math/rand/v2"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/stat/distuv"
)

// SparseWorldConfig describes a large, mostly empty cubic world with small clusters of points, e.g.
// obstacles scattered over a site.
type SparseWorldConfig struct {
	Objects         int     `json:"objects"`
	PointsPerObject int     `json:"points_per_object"`
	WorldSize       float64 `json:"world_size"`
	ObjectRadius    float64 `json:"object_radius"`
}

// DefaultSparseWorldConfig returns 200 clusters of 300 points with a 0.3 spread in a 100 unit cube.
func DefaultSparseWorldConfig() SparseWorldConfig {
	return SparseWorldConfig{
		Objects:         200,
		PointsPerObject: 300,
		WorldSize:       100,
		ObjectRadius:    0.3,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg SparseWorldConfig) Validate() error {
	var err error
	if cfg.Objects <= 0 {
		err = multierr.Append(err, errors.Errorf("objects must be positive, got %d", cfg.Objects))
	}
	if cfg.PointsPerObject <= 0 {
		err = multierr.Append(err, errors.Errorf("points_per_object must be positive, got %d", cfg.PointsPerObject))
	}
	if !(cfg.WorldSize > 0) {
		err = multierr.Append(err, errors.Errorf("world_size must be positive, got %v", cfg.WorldSize))
	}
	if !(cfg.ObjectRadius > 0) {
		err = multierr.Append(err, errors.Errorf("object_radius must be positive, got %v", cfg.ObjectRadius))
	}
	return err
}

// SyntheticWorld is a generated point set together with the cube it was generated in.
type SyntheticWorld struct {
	Points []r3.Vector
	Center r3.Vector
	Size   float64
}

// GenerateSparseWorld places cfg.Objects cluster centers uniformly in the world cube and samples
// cfg.PointsPerObject normally distributed points around each. The same seed yields the same world.
func GenerateSparseWorld(cfg SparseWorldConfig, seed uint64) (*SyntheticWorld, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid sparse world config")
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	half := cfg.WorldSize / 2
	uniform := distuv.Uniform{Min: -half, Max: half, Src: src}
	spread := distuv.Normal{Mu: 0, Sigma: cfg.ObjectRadius, Src: src}

	points := make([]r3.Vector, 0, cfg.Objects*cfg.PointsPerObject)
	for i := 0; i < cfg.Objects; i++ {
		center := r3.Vector{X: uniform.Rand(), Y: uniform.Rand(), Z: uniform.Rand()}
		for j := 0; j < cfg.PointsPerObject; j++ {
			points = append(points, center.Add(r3.Vector{X: spread.Rand(), Y: spread.Rand(), Z: spread.Rand()}))
		}
	}
	return &SyntheticWorld{Points: points, Center: r3.Vector{}, Size: cfg.WorldSize}, nil
}
