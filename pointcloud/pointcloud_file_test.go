package pointcloud

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/occupancy/logging"
)

func testPoints() []r3.Vector {
	return []r3.Vector{
		NewVector(0, 0, 0),
		NewVector(1, -2, 3),
		NewVector(-0.5, 0.25, 100),
		NewVector(12, 13, -14),
	}
}

func TestPCDRoundTrip(t *testing.T) {
	for _, typ := range []PCDType{PCDAscii, PCDBinary} {
		var buf bytes.Buffer
		test.That(t, ToPCD(testPoints(), &buf, typ), test.ShouldBeNil)

		got, err := ReadPCD(&buf)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldResemble, testPoints())
	}

	var buf bytes.Buffer
	test.That(t, ToPCD(testPoints(), &buf, PCDCompressed), test.ShouldNotBeNil)
}

func TestReadPCDAsciiExtraFields(t *testing.T) {
	pcd := `# .PCD v0.7 - Point Cloud Data file format
VERSION 0.7
FIELDS rgb x y z normal
SIZE 4 4 4 4 4
TYPE F F F F F
COUNT 1 1 1 1 3
WIDTH 2
HEIGHT 1
VIEWPOINT 0 0 0 1 0 0 0
POINTS 2
DATA ascii
4.2108e+06 1 2 3 0 0 1
4.2108e+06 -1 -2 -3.5 0 1 0`
	got, err := ReadPCD(strings.NewReader(pcd))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, []r3.Vector{NewVector(1, 2, 3), NewVector(-1, -2, -3.5)})
}

func TestReadPCDBinaryMixedSizes(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("VERSION .7\nFIELDS x y z intensity\nSIZE 8 8 4 2\nTYPE F F F U\nCOUNT 1 1 1 1\n" +
		"WIDTH 1\nHEIGHT 1\nVIEWPOINT 0 0 0 1 0 0 0\nPOINTS 1\nDATA binary\n")
	record := make([]byte, 22)
	binary.LittleEndian.PutUint64(record, math.Float64bits(0.1))
	binary.LittleEndian.PutUint64(record[8:], math.Float64bits(-7.25))
	binary.LittleEndian.PutUint32(record[16:], math.Float32bits(2.5))
	binary.LittleEndian.PutUint16(record[20:], 900)
	buf.Write(record)

	got, err := ReadPCD(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, []r3.Vector{NewVector(0.1, -7.25, 2.5)})
}

func TestReadPCDErrors(t *testing.T) {
	header := func(fields, data string) string {
		return "VERSION .7\nFIELDS " + fields + "\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\nWIDTH 1\nHEIGHT 1\n" +
			"VIEWPOINT 0 0 0 1 0 0 0\nPOINTS 1\nDATA " + data + "\n"
	}

	_, err := ReadPCD(strings.NewReader(strings.Replace(header("x y z", "ascii"), ".7", "0.6", 1)))
	test.That(t, err, test.ShouldBeError, "unsupported pcd version 0.6")

	_, err = ReadPCD(strings.NewReader(header("x y w", "ascii")))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing z")

	_, err = ReadPCD(strings.NewReader(header("x y z", "binary_compressed")))
	test.That(t, err, test.ShouldBeError, "compressed pcd not yet supported")

	_, err = ReadPCD(strings.NewReader(header("x y z", "ascii") + "1 2\n"))
	test.That(t, err, test.ShouldBeError, "unexpected number of fields in point 0")

	_, err = ReadPCD(strings.NewReader(header("x y z", "binary") + "\x00\x00"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ReadPCD(strings.NewReader("VERSION .7\nSIZE 4 4 4\n"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "supposed to start with FIELDS")

	bad := strings.Replace(header("x y z", "ascii"), "POINTS 1", "POINTS 2", 1)
	_, err = ReadPCD(strings.NewReader(bad))
	test.That(t, err, test.ShouldBeError, "POINTS field 2 does not match WIDTH*HEIGHT 1")

	// a huge point count with no data behind it fails on the missing data
	for _, data := range []string{"ascii", "binary"} {
		huge := strings.NewReplacer("WIDTH 1", "WIDTH 1000000000000", "POINTS 1", "POINTS 1000000000000").
			Replace(header("x y z", data))
		_, err = ReadPCD(strings.NewReader(huge))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "error reading point 0")
	}
}

func TestReadPCDBeyondPrealloc(t *testing.T) {
	points := make([]r3.Vector, maxPreallocPoints+3)
	for i := range points {
		points[i] = r3.Vector{X: float64(i)}
	}
	var buf bytes.Buffer
	test.That(t, ToPCD(points, &buf, PCDBinary), test.ShouldBeNil)
	got, err := ReadPCD(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldHaveLength, len(points))
	test.That(t, got[len(got)-1], test.ShouldResemble, points[len(points)-1])
}

func TestNewFromFile(t *testing.T) {
	logger := logging.NewTestLogger(t)
	dir := t.TempDir()

	t.Run("pcd", func(t *testing.T) {
		fn := filepath.Join(dir, "cloud.pcd")
		f, err := os.Create(fn)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ToPCD(testPoints(), f, PCDBinary), test.ShouldBeNil)
		test.That(t, f.Close(), test.ShouldBeNil)

		got, err := NewFromFile(fn, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldResemble, testPoints())
	})

	t.Run("las", func(t *testing.T) {
		fn := filepath.Join(dir, "cloud.las")
		points := []r3.Vector{NewVector(0, 0, 0), NewVector(1, 2, 3), NewVector(-4, 5, -6)}
		test.That(t, WriteToLASFile(points, fn), test.ShouldBeNil)

		got, err := NewFromFile(fn, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(got), test.ShouldEqual, len(points))
		for i, p := range points {
			test.That(t, got[i].X, test.ShouldAlmostEqual, p.X, 1e-3)
			test.That(t, got[i].Y, test.ShouldAlmostEqual, p.Y, 1e-3)
			test.That(t, got[i].Z, test.ShouldAlmostEqual, p.Z, 1e-3)
		}
	})

	t.Run("unknown extension", func(t *testing.T) {
		_, err := NewFromFile(filepath.Join(dir, "cloud.ply"), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "do not know how to read file")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFromFile(filepath.Join(dir, "missing.pcd"), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "failed to read point cloud")
	})
}
