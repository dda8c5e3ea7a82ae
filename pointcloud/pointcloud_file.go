package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
	// PCDCompressed binary format for pcd.
	PCDCompressed PCDType = 2
)

const pcdCommentChar = "#"

// maxPreallocPoints bounds the capacity reserved from an untrusted POINTS header; larger clouds grow
// as they are read.
const maxPreallocPoints = 1 << 20

var pcdHeaderFields = []string{"VERSION", "FIELDS", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT", "POINTS", "DATA"}

type pcdValType string

const (
	pcdValFloat pcdValType = "F"
	pcdValInt   pcdValType = "I"
	pcdValUInt  pcdValType = "U"
)

type pcdHeader struct {
	fields []string
	size   []uint64
	type_  []pcdValType
	count  []uint64
	width  uint64
	height uint64
	points uint64
	data   PCDType
}

// axis returns the position of the x, y or z field.
func (h *pcdHeader) axis(name string) int {
	for i, f := range h.fields {
		if f == name {
			return i
		}
	}
	return -1
}

// ToPCD writes the points out as a PCD v0.7 file holding x y z float fields.
func ToPCD(points []r3.Vector, out io.Writer, outputType PCDType) error {
	var data string
	switch outputType {
	case PCDAscii:
		data = "ascii"
	case PCDBinary:
		data = "binary"
	case PCDCompressed:
		return errors.New("compressed PCD not yet implemented")
	default:
		return errors.Errorf("unsupported pcd data type %v", outputType)
	}

	if _, err := fmt.Fprintf(out, "VERSION .7\n"+
		"FIELDS x y z\n"+
		"SIZE 4 4 4\n"+
		"TYPE F F F\n"+
		"COUNT 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT %d\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n"+
		"DATA %s\n",
		len(points), 1, len(points), data); err != nil {
		return err
	}

	buf := make([]byte, 12)
	for _, pos := range points {
		var err error
		switch outputType {
		case PCDBinary:
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(pos.X)))
			binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(pos.Y)))
			binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(pos.Z)))
			_, err = out.Write(buf)
		case PCDAscii:
			_, err = fmt.Fprintf(out, "%f %f %f\n", pos.X, pos.Y, pos.Z)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func parsePCDHeaderLine(line string, index int, header *pcdHeader) error {
	var err error
	name := pcdHeaderFields[index]
	field, value, _ := strings.Cut(line, " ")
	value = strings.TrimSpace(value)
	tokens := strings.Fields(value)
	if field != name {
		return errors.Errorf("line is supposed to start with %s but is %s", name, line)
	}

	switch name {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return errors.Errorf("unsupported pcd version %s", value)
		}
	case "FIELDS":
		header.fields = tokens
		for _, axis := range []string{"x", "y", "z"} {
			if header.axis(axis) < 0 {
				return errors.Errorf("pcd fields %q are missing %s", value, axis)
			}
		}
	case "SIZE":
		if len(tokens) != len(header.fields) {
			return errors.New("unexpected number of fields in SIZE line")
		}
		header.size = make([]uint64, len(tokens))
		for i, token := range tokens {
			header.size[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return errors.Errorf("invalid SIZE field %s", token)
			}
		}
	case "TYPE":
		if len(tokens) != len(header.fields) {
			return errors.New("unexpected number of fields in TYPE line")
		}
		header.type_ = make([]pcdValType, len(tokens))
		for i, token := range tokens {
			switch t := pcdValType(token); t {
			case pcdValFloat, pcdValInt, pcdValUInt:
				header.type_[i] = t
			default:
				return errors.Errorf("invalid TYPE field %s", token)
			}
		}
	case "COUNT":
		if len(tokens) != len(header.fields) {
			return errors.New("unexpected number of fields in COUNT line")
		}
		header.count = make([]uint64, len(tokens))
		for i, token := range tokens {
			header.count[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return errors.Errorf("invalid COUNT field %s: %s", token, err)
			}
		}
	case "WIDTH":
		header.width, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Errorf("invalid WIDTH field %s: %s", value, err)
		}
	case "HEIGHT":
		header.height, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Errorf("invalid HEIGHT field %s: %s", value, err)
		}
	case "VIEWPOINT":
		if len(tokens) != 7 {
			return errors.Errorf("unexpected number of fields in VIEWPOINT line. Expected 7, got %d", len(tokens))
		}
		for _, token := range tokens {
			if _, err = strconv.ParseFloat(token, 64); err != nil {
				return errors.Errorf("invalid VIEWPOINT field %s: %s", token, err)
			}
		}
	case "POINTS":
		var points uint64
		points, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Errorf("invalid POINTS field %s: %s", value, err)
		}
		if points != header.width*header.height {
			return errors.Errorf("POINTS field %d does not match WIDTH*HEIGHT %d", points, header.width*header.height)
		}
		header.points = points
	case "DATA":
		switch value {
		case "ascii":
			header.data = PCDAscii
		case "binary":
			header.data = PCDBinary
		case "binary_compressed":
			header.data = PCDCompressed
		default:
			return errors.Errorf("unsupported pcd data type %s", value)
		}
	}

	return nil
}

// ReadPCD reads the x, y and z fields of every point in a PCD v0.7 stream. Other fields are skipped.
func ReadPCD(inRaw io.Reader) ([]r3.Vector, error) {
	header := pcdHeader{}
	in := bufio.NewReader(inRaw)
	headerLineCount := 0
	for headerLineCount < len(pcdHeaderFields) {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Errorf("error reading header line %d: %s", headerLineCount, err)
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parsePCDHeaderLine(line, headerLineCount, &header); err != nil {
			return nil, err
		}
		headerLineCount++
	}
	switch header.data {
	case PCDAscii:
		return readPCDAscii(in, header)
	case PCDBinary:
		return readPCDBinary(in, header)
	case PCDCompressed:
		return nil, errors.New("compressed pcd not yet supported")
	default:
		return nil, errors.Errorf("unsupported pcd data type %v", header.data)
	}
}

func readPCDAscii(in *bufio.Reader, header pcdHeader) ([]r3.Vector, error) {
	// token position of each field's first element
	offsets := make([]int, len(header.fields))
	tokensPerPoint := 0
	for i, c := range header.count {
		offsets[i] = tokensPerPoint
		tokensPerPoint += int(c)
	}
	ix, iy, iz := offsets[header.axis("x")], offsets[header.axis("y")], offsets[header.axis("z")]

	points := make([]r3.Vector, 0, min(header.points, maxPreallocPoints))
	for i := uint64(0); i < header.points; i++ {
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, errors.Wrapf(err, "error reading point %d", i)
		}
		tokens := strings.Fields(line)
		if len(tokens) != tokensPerPoint {
			return nil, errors.Errorf("unexpected number of fields in point %d", i)
		}
		var pos [3]float64
		for j, idx := range []int{ix, iy, iz} {
			pos[j], err = strconv.ParseFloat(tokens[idx], 64)
			if err != nil {
				return nil, errors.Errorf("invalid point %d field %s: %s", i, tokens[idx], err)
			}
		}
		points = append(points, r3.Vector{X: pos[0], Y: pos[1], Z: pos[2]})
	}
	return points, nil
}

func readPCDBinary(in *bufio.Reader, header pcdHeader) ([]r3.Vector, error) {
	// byte position of each field's first element
	offsets := make([]int, len(header.fields))
	recordSize := 0
	for i := range header.fields {
		offsets[i] = recordSize
		recordSize += int(header.size[i] * header.count[i])
	}

	readers := make([]func([]byte) float64, 3)
	for j, axis := range []string{"x", "y", "z"} {
		idx := header.axis(axis)
		if header.type_[idx] != pcdValFloat {
			return nil, errors.Errorf("unsupported pcd type %s for field %s", header.type_[idx], axis)
		}
		offset := offsets[idx]
		switch header.size[idx] {
		case 4:
			readers[j] = func(record []byte) float64 {
				return float64(math.Float32frombits(binary.LittleEndian.Uint32(record[offset:])))
			}
		case 8:
			readers[j] = func(record []byte) float64 {
				return math.Float64frombits(binary.LittleEndian.Uint64(record[offset:]))
			}
		default:
			return nil, errors.Errorf("unsupported pcd size %d for field %s", header.size[idx], axis)
		}
	}

	points := make([]r3.Vector, 0, min(header.points, maxPreallocPoints))
	record := make([]byte, recordSize)
	for i := uint64(0); i < header.points; i++ {
		if _, err := io.ReadFull(in, record); err != nil {
			return nil, errors.Wrapf(err, "error reading point %d", i)
		}
		points = append(points, r3.Vector{X: readers[0](record), Y: readers[1](record), Z: readers[2](record)})
	}
	return points, nil
}
