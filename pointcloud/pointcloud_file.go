package pointcloud

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.viam.com/utils"
	"golang.org/x/exp/mmap"

	"go.viam.com/pointview/logging"
)

// maxLineLength bounds a single record. Anything longer is certainly not three numbers.
const maxLineLength = 1 << 20

// ParseError reports a record that is not three comma separated fields.
type ParseError struct {
	// Line is the 1-based line number of the record.
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed point on line %d (%s): %q", e.Line, e.Reason, e.Text)
}

// Source is something points can be (re)loaded from.
type Source interface {
	// Load reads the full point list from the source. Every call returns a fresh list.
	Load() (*PointList, error)
	// Name identifies the source in logs.
	Name() string
}

type fileSource struct {
	path   string
	logger logging.Logger
}

// NewFileSource returns a Source that re-reads the points file at path on every Load.
func NewFileSource(path string, logger logging.Logger) Source {
	return &fileSource{path: path, logger: logger}
}

func (fs *fileSource) Load() (*PointList, error) {
	return NewFromFile(fs.path, fs.logger)
}

func (fs *fileSource) Name() string {
	return fs.path
}

type bytesSource struct {
	name   string
	data   []byte
	logger logging.Logger
}

// NewBytesSource returns a Source backed by an in-memory copy of the point text.
func NewBytesSource(name string, data []byte, logger logging.Logger) Source {
	return &bytesSource{name: name, data: bytes.Clone(data), logger: logger}
}

func (bs *bytesSource) Load() (*PointList, error) {
	return ReadPoints(bytes.NewReader(bs.data), int64(len(bs.data)), bs.logger)
}

func (bs *bytesSource) Name() string {
	return bs.name
}

// NewFromFile memory maps the file at path and reads the point list from it.
func NewFromFile(path string, logger logging.Logger) (*PointList, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open point file %q", path)
	}
	defer utils.UncheckedErrorFunc(reader.Close)

	pl, err := ReadPoints(reader, int64(reader.Len()), logger)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read point file %q", path)
	}
	logger.Debugw("read points", "file", path, "count", pl.Size())
	return pl, nil
}

// ReadPoints parses one "x,y,z" record per line. The input is scanned twice: once to count the
// records so the list is allocated exactly once, and again to fill it. A final record that is not
// newline terminated still counts. Fields that do not parse as finite numbers are read as 0 and
// logged.
func ReadPoints(ra io.ReaderAt, size int64, logger logging.Logger) (*PointList, error) {
	count, err := countRecords(ra, size)
	if err != nil {
		return nil, errors.Wrap(err, "error counting point records")
	}

	pl := NewPointList(make([]r3.Vector, count))
	scanner := bufio.NewScanner(io.NewSectionReader(ra, 0, size))
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	read := 0
	for ; read < count && scanner.Scan(); read++ {
		p, err := parseRecord(scanner.Text(), read+1, logger)
		if err != nil {
			return nil, err
		}
		pl.Set(read, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "error reading record %d", read+1)
	}
	if read != count {
		return nil, errors.Errorf("source changed while reading: counted %d records, read %d", count, read)
	}

	return pl, nil
}

func countRecords(ra io.ReaderAt, size int64) (int, error) {
	buf := make([]byte, 32*1024)
	var count int
	var last byte
	for off := int64(0); off < size; {
		n, err := ra.ReadAt(buf[:min(int64(len(buf)), size-off)], off)
		count += bytes.Count(buf[:n], []byte{'\n'})
		if n > 0 {
			last = buf[n-1]
		}
		off += int64(n)
		if err != nil && !(errors.Is(err, io.EOF) && off == size) {
			return 0, err
		}
	}
	if size > 0 && last != '\n' {
		count++
	}
	return count, nil
}

func parseRecord(text string, lineNum int, logger logging.Logger) (r3.Vector, error) {
	fields := strings.SplitN(text, ",", 3)
	switch len(fields) {
	case 1:
		return r3.Vector{}, &ParseError{Line: lineNum, Text: text, Reason: "no first comma"}
	case 2:
		return r3.Vector{}, &ParseError{Line: lineNum, Text: text, Reason: "no second comma"}
	}

	return r3.Vector{
		X: parseField(fields[0], lineNum, logger),
		Y: parseField(fields[1], lineNum, logger),
		Z: parseField(fields[2], lineNum, logger),
	}, nil
}

func parseField(field string, lineNum int, logger logging.Logger) float64 {
	value, err := cast.ToFloat64E(strings.TrimSpace(field))
	if err != nil {
		logger.Warnw("non-numeric point field read as 0", "line", lineNum, "field", field)
		return 0
	}
	// cast accepts "nan" and "inf", which no point may hold
	if math.IsNaN(value) || math.IsInf(value, 0) {
		logger.Warnw("non-finite point field read as 0", "line", lineNum, "field", field)
		return 0
	}
	return value
}
