package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/occupancy/logging"
	"go.viam.com/occupancy/pointcloud"
)

func TestFromReaderDefaults(t *testing.T) {
	logger := logging.NewTestLogger(t)
	cfg, err := FromReader("inline", strings.NewReader(`{"datasets": [{"file": "scan.pcd"}]}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, "inline")
	test.That(t, cfg.VoxelSize, test.ShouldEqual, DefaultVoxelSize)
	test.That(t, cfg.DepthLimit(), test.ShouldEqual, DefaultDepth)
	test.That(t, cfg.SweepDepths, test.ShouldResemble, DefaultSweepDepths)
	test.That(t, cfg.Repeats, test.ShouldEqual, DefaultRepeats)
	test.That(t, cfg.OutputDir, test.ShouldEqual, DefaultOutputDir)
	test.That(t, cfg.HistogramBins, test.ShouldEqual, DefaultHistogramBins)
	test.That(t, cfg.Parallel, test.ShouldBeFalse)
	test.That(t, cfg.Datasets[0].Name, test.ShouldEqual, "dataset 0")
}

func TestFromReaderExplicit(t *testing.T) {
	logger := logging.NewTestLogger(t)
	raw := `{
	"datasets": [
		{"name": "sparse", "seed": 7, "synthetic": {"objects": 5, "points_per_object": 10, "world_size": 20, "object_radius": 0.1}},
		{"name": "scan", "file": "scan.las", "bounds": {"center": {"x": 1, "y": 2, "z": 3}, "size": 8}}
	],
	"voxel_size": 0.5,
	"depth": 0,
	"sweep_depths": [1, 2],
	"repeats": 3,
	"parallel": true,
	"output_dir": "out",
	"plots": true,
	"histogram_bins": 4
}`
	cfg, err := FromReader("inline", strings.NewReader(raw), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.VoxelSize, test.ShouldEqual, 0.5)
	test.That(t, cfg.DepthLimit(), test.ShouldEqual, 0)
	test.That(t, cfg.SweepDepths, test.ShouldResemble, []int{1, 2})
	test.That(t, cfg.Repeats, test.ShouldEqual, 3)
	test.That(t, cfg.Parallel, test.ShouldBeTrue)
	test.That(t, cfg.Plots, test.ShouldBeTrue)
	test.That(t, cfg.OutputDir, test.ShouldEqual, "out")
	test.That(t, cfg.HistogramBins, test.ShouldEqual, 4)

	test.That(t, cfg.Datasets, test.ShouldHaveLength, 2)
	test.That(t, cfg.Datasets[0].Seed, test.ShouldEqual, uint64(7))
	test.That(t, *cfg.Datasets[0].Synthetic, test.ShouldResemble, pointcloud.SparseWorldConfig{
		Objects: 5, PointsPerObject: 10, WorldSize: 20, ObjectRadius: 0.1,
	})
	test.That(t, *cfg.Datasets[1].Bounds, test.ShouldResemble, BoundsConfig{Center: r3.Vector{X: 1, Y: 2, Z: 3}, Size: 8})
}

func TestFromReaderErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := FromReader("inline", strings.NewReader(`{"datasets": [`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode Config from json")

	_, err = FromReader("inline", strings.NewReader(`{"datasets": [{"file": "a.pcd"}], "voxels": 1}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown field")

	_, err = FromReader("inline", strings.NewReader(`{"voxel_size": -1, "depth": -2, "repeats": -1}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "at least one dataset is required")
	test.That(t, err.Error(), test.ShouldContainSubstring, "voxel_size must be positive")
	test.That(t, err.Error(), test.ShouldContainSubstring, "depth must be non-negative")
	test.That(t, err.Error(), test.ShouldContainSubstring, "repeats must be at least 1")
}

func TestFromReaderExplicitZero(t *testing.T) {
	logger := logging.NewTestLogger(t)
	raw := `{"datasets": [{"file": "a.pcd"}], "voxel_size": 0, "repeats": 0, "histogram_bins": 0}`
	_, err := FromReader("inline", strings.NewReader(raw), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "voxel_size must be positive, got 0")
	test.That(t, err.Error(), test.ShouldContainSubstring, "repeats must be at least 1, got 0")
	test.That(t, err.Error(), test.ShouldContainSubstring, "histogram_bins must be at least 1, got 0")

	cfg := Default()
	cfg.Datasets = []DatasetConfig{{File: "a.pcd"}}
	cfg.VoxelSize = 0
	cfg.ApplyDefaults()
	test.That(t, cfg.VoxelSize, test.ShouldEqual, 0.)
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)
}

func TestDefault(t *testing.T) {
	a := Default()
	b := Default()
	*a.Depth = 1
	a.SweepDepths[0] = 1
	test.That(t, *b.Depth, test.ShouldEqual, DefaultDepth)
	test.That(t, b.SweepDepths, test.ShouldResemble, DefaultSweepDepths)
	test.That(t, DefaultSweepDepths[0], test.ShouldEqual, 3)
}

func TestDatasetValidate(t *testing.T) {
	synthetic := pointcloud.DefaultSparseWorldConfig()

	test.That(t, DatasetConfig{Name: "a", File: "a.pcd"}.Validate(), test.ShouldBeNil)
	test.That(t, DatasetConfig{Name: "a", Synthetic: &synthetic}.Validate(), test.ShouldBeNil)

	err := DatasetConfig{Name: "a"}.Validate()
	test.That(t, err, test.ShouldBeError, `dataset "a" needs a file or a synthetic world`)

	err = DatasetConfig{Name: "a", File: "a.pcd", Synthetic: &synthetic}.Validate()
	test.That(t, err, test.ShouldBeError, `dataset "a" cannot have both a file and a synthetic world`)

	err = DatasetConfig{Name: "a", Synthetic: &pointcloud.SparseWorldConfig{}}.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "objects must be positive")

	err = DatasetConfig{Name: "a", File: "a.pcd", Bounds: &BoundsConfig{}}.Validate()
	test.That(t, err, test.ShouldBeError, `dataset "a" bounds size must be positive, got 0`)
}

func TestRead(t *testing.T) {
	logger := logging.NewTestLogger(t)
	fn := filepath.Join(t.TempDir(), "bench.json")
	raw := `{"datasets": [{"name": "scan", "file": "${SCAN_DIR}/scan.pcd"}], "output_dir": "${SCAN_DIR}/out"}`
	test.That(t, os.WriteFile(fn, []byte(raw), 0o600), test.ShouldBeNil)
	t.Setenv("SCAN_DIR", "/data")

	cfg, err := Read(fn, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, fn)
	test.That(t, cfg.Datasets[0].File, test.ShouldEqual, "/data/scan.pcd")
	test.That(t, cfg.OutputDir, test.ShouldEqual, "/data/out")

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSchema(t *testing.T) {
	schema, err := Schema()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(schema), test.ShouldContainSubstring, `"voxel_size"`)
	test.That(t, string(schema), test.ShouldContainSubstring, `"points_per_object"`)
	test.That(t, string(schema), test.ShouldNotContainSubstring, "ConfigFilePath")
}
