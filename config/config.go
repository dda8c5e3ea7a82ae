// Package config defines and reads the JSON configuration of an occupancy benchmark run.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/a8m/envsubst"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/occupancy/pointcloud"
)

// Defaults used for any field a config leaves out.
const (
	DefaultVoxelSize     = 0.1
	DefaultDepth         = 6
	DefaultRepeats       = 1
	DefaultHistogramBins = 10
	DefaultOutputDir     = "results"
)

// DefaultSweepDepths are the octree depths compared when none are configured.
var DefaultSweepDepths = []int{3, 4, 5, 6, 7}

// Config describes one benchmark run.
type Config struct {
	Datasets []DatasetConfig `json:"datasets"`

	VoxelSize float64 `json:"voxel_size,omitempty"`
	// Depth is a pointer so an explicit zero is distinguishable from unset.
	Depth       *int  `json:"depth,omitempty"`
	SweepDepths []int `json:"sweep_depths,omitempty"`
	Repeats     int   `json:"repeats,omitempty"`
	Parallel    bool  `json:"parallel,omitempty"`

	OutputDir     string `json:"output_dir,omitempty"`
	Plots         bool   `json:"plots,omitempty"`
	HistogramBins int    `json:"histogram_bins,omitempty"`

	ConfigFilePath string `json:"-"`
}

// DatasetConfig names a point source: either a file or a synthetic sparse world.
type DatasetConfig struct {
	Name      string                        `json:"name"`
	File      string                        `json:"file,omitempty"`
	Synthetic *pointcloud.SparseWorldConfig `json:"synthetic,omitempty"`
	Seed      uint64                        `json:"seed,omitempty"`
	// Bounds overrides the region both structures are built over. Files default to their bounding
	// cube and synthetic worlds to the world cube.
	Bounds *BoundsConfig `json:"bounds,omitempty"`
}

// BoundsConfig is a cubic region.
type BoundsConfig struct {
	Center r3.Vector `json:"center"`
	Size   float64   `json:"size"`
}

// Read reads a config from the given file, substituting environment variables first.
func Read(filePath string, logger golog.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger golog.Logger) (*Config, error) {
	cfg := Default()
	cfg.ConfigFilePath = originalPath
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %q", originalPath)
	}
	logger.Debugw("read config", "path", originalPath, "datasets", len(cfg.Datasets))
	return &cfg, nil
}

// Default returns a config with every default set and no datasets. Decoding over it keeps the
// defaults of omitted fields, while explicit values, zero included, replace them.
func Default() Config {
	depth := DefaultDepth
	return Config{
		VoxelSize:     DefaultVoxelSize,
		Depth:         &depth,
		SweepDepths:   append([]int(nil), DefaultSweepDepths...),
		Repeats:       DefaultRepeats,
		OutputDir:     DefaultOutputDir,
		HistogramBins: DefaultHistogramBins,
	}
}

// ApplyDefaults fills the fields whose empty value means "use the default": a missing depth,
// no sweep depths, no output directory and unnamed datasets. Numeric settings are left alone so
// an explicit zero still fails validation.
func (c *Config) ApplyDefaults() {
	if c.Depth == nil {
		depth := DefaultDepth
		c.Depth = &depth
	}
	if len(c.SweepDepths) == 0 {
		c.SweepDepths = append([]int(nil), DefaultSweepDepths...)
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	for i := range c.Datasets {
		if c.Datasets[i].Name == "" {
			c.Datasets[i].Name = fmt.Sprintf("dataset %d", i)
		}
	}
}

// DepthLimit returns the configured octree depth, or the default when unset.
func (c *Config) DepthLimit() int {
	if c.Depth == nil {
		return DefaultDepth
	}
	return *c.Depth
}

// Validate ensures all parts of the config are valid, reporting every problem at once.
func (c *Config) Validate() error {
	var err error
	if len(c.Datasets) == 0 {
		err = multierr.Append(err, errors.New("at least one dataset is required"))
	}
	if !(c.VoxelSize > 0) {
		err = multierr.Append(err, errors.Errorf("voxel_size must be positive, got %v", c.VoxelSize))
	}
	if c.Depth != nil && *c.Depth < 0 {
		err = multierr.Append(err, errors.Errorf("depth must be non-negative, got %d", *c.Depth))
	}
	for _, d := range c.SweepDepths {
		if d < 0 {
			err = multierr.Append(err, errors.Errorf("sweep_depths must be non-negative, got %d", d))
		}
	}
	if c.Repeats < 1 {
		err = multierr.Append(err, errors.Errorf("repeats must be at least 1, got %d", c.Repeats))
	}
	if c.HistogramBins < 1 {
		err = multierr.Append(err, errors.Errorf("histogram_bins must be at least 1, got %d", c.HistogramBins))
	}
	for i, ds := range c.Datasets {
		err = multierr.Append(err, errors.Wrapf(ds.Validate(), "datasets.%d", i))
	}
	return err
}

// Validate ensures the dataset names exactly one point source and a usable region.
func (ds DatasetConfig) Validate() error {
	var err error
	switch {
	case ds.File == "" && ds.Synthetic == nil:
		err = multierr.Append(err, errors.Errorf("dataset %q needs a file or a synthetic world", ds.Name))
	case ds.File != "" && ds.Synthetic != nil:
		err = multierr.Append(err, errors.Errorf("dataset %q cannot have both a file and a synthetic world", ds.Name))
	case ds.Synthetic != nil:
		err = multierr.Append(err, ds.Synthetic.Validate())
	}
	if ds.Bounds != nil && !(ds.Bounds.Size > 0) {
		err = multierr.Append(err, errors.Errorf("dataset %q bounds size must be positive, got %v", ds.Name, ds.Bounds.Size))
	}
	return err
}

// Schema returns the JSON schema of a benchmark config file.
func Schema() ([]byte, error) {
	return json.MarshalIndent(jsonschema.Reflect(&Config{}), "", "  ")
}
