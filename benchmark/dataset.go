// Package benchmark compares a dense voxel grid and an occupancy octree built over the same points.
package benchmark

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/occupancy/config"
	"go.viam.com/occupancy/metrics"
	"go.viam.com/occupancy/pointcloud"
)

// Dataset is a named point set and the cubic region both structures are built over.
type Dataset struct {
	Name   string
	Points []r3.Vector
	Center r3.Vector
	Size   float64
}

// DatasetFromPoints fits the region to the points: the bounding box midpoint and its largest extent.
// Points that all coincide fit no region; such datasets need explicit bounds.
func DatasetFromPoints(name string, points []r3.Vector) (Dataset, error) {
	bb, err := metrics.ComputeBoundingBox(points)
	if err != nil {
		return Dataset{}, errors.Wrapf(err, "cannot fit region for dataset %q", name)
	}
	size := bb.MaxExtent()
	if !(size > 0) {
		return Dataset{}, errors.Errorf(
			"cannot fit region for dataset %q: its %d points span no volume, configure explicit bounds", name, len(points))
	}
	return Dataset{Name: name, Points: points, Center: bb.Center(), Size: size}, nil
}

// LoadDataset reads or generates the points of a configured dataset. Configured bounds replace the
// fitted region.
func LoadDataset(cfg config.DatasetConfig, logger golog.Logger) (Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return Dataset{}, err
	}
	var ds Dataset
	if cfg.Synthetic != nil {
		world, err := pointcloud.GenerateSparseWorld(*cfg.Synthetic, cfg.Seed)
		if err != nil {
			return Dataset{}, err
		}
		ds = Dataset{Name: cfg.Name, Points: world.Points, Center: world.Center, Size: world.Size}
	} else {
		points, err := pointcloud.NewFromFile(cfg.File, logger)
		if err != nil {
			return Dataset{}, err
		}
		if cfg.Bounds != nil {
			ds = Dataset{Name: cfg.Name, Points: points}
		} else if ds, err = DatasetFromPoints(cfg.Name, points); err != nil {
			return Dataset{}, err
		}
	}
	if cfg.Bounds != nil {
		ds.Center, ds.Size = cfg.Bounds.Center, cfg.Bounds.Size
	}
	logger.Infow("loaded dataset", "name", ds.Name, "points", len(ds.Points), "center", ds.Center, "size", ds.Size)
	return ds, nil
}
