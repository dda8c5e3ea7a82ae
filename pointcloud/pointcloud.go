// Package pointcloud provides the point sources occupancy structures are built from: readers for PCD
// and LAS files, a PCD writer, and a generator for synthetic sparse worlds. Points are plain
// coordinates; colors, intensities and other per-point fields are dropped on read.
package pointcloud

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/edaniels/golog"
	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// NewFromFile returns the points read in from the given file.
func NewFromFile(fn string, logger golog.Logger) ([]r3.Vector, error) {
	var (
		points []r3.Vector
		err    error
	)
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".pcd":
		points, err = NewFromPCDFile(fn)
	case ".las":
		points, err = NewFromLASFile(fn)
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read point cloud %q", fn)
	}
	if len(points) == 0 {
		logger.Warnw("point cloud file holds no points", "file", fn)
	}
	logger.Debugw("read point cloud", "file", fn, "points", len(points))
	return points, nil
}

// NewFromPCDFile returns the points of a PCD file.
func NewFromPCDFile(fn string) ([]r3.Vector, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return ReadPCD(bufio.NewReader(f))
}

// NewFromLASFile returns the points of a LAS file.
func NewFromLASFile(fn string) ([]r3.Vector, error) {
	lf, err := lidario.NewLasFile(fn, "r")
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	points := make([]r3.Vector, 0, lf.Header.NumberPoints)
	for i := 0; i < lf.Header.NumberPoints; i++ {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, err
		}
		data := p.PointData()
		points = append(points, r3.Vector{X: data.X, Y: data.Y, Z: data.Z})
	}
	return points, nil
}

// WriteToLASFile writes the points out to a LAS file using point format 0.
func WriteToLASFile(points []r3.Vector, fn string) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return
	}
	defer func() {
		cerr := lf.Close()
		err = multierr.Combine(err, cerr)
	}()

	if err = lf.AddHeader(lidario.LasHeader{PointFormatID: 0}); err != nil {
		return
	}
	for _, pos := range points {
		pr0 := &lidario.PointRecord0{
			X: pos.X,
			Y: pos.Y,
			Z: pos.Z,
			BitField: lidario.PointBitField{
				Value: (1) | (1 << 3) | (0 << 6) | (0 << 7),
			},
			ClassBitField: lidario.ClassificationBitField{
				Value: 0,
			},
			PointSourceID: 1,
		}
		if err = lf.AddLasPoint(pr0); err != nil {
			return
		}
	}
	return
}

// WriteToPCDFile writes the points out to a PCD file of the given data type.
func WriteToPCDFile(points []r3.Vector, fn string, outputType PCDType) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return
	}
	w := bufio.NewWriter(f)
	defer func() {
		err = multierr.Combine(err, w.Flush(), f.Close())
	}()
	return ToPCD(points, w, outputType)
}
