package trial

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column names expected in a trial CSV header.
const (
	ColumnTimestamp = "timestamp_us"
	ColumnX         = "x"
	ColumnY         = "y"
	ColumnValidity  = "validity"
)

// ValidityInvalid marks a row the tracker could not resolve.
const ValidityInvalid = "Invalid"

// RawSample is one row of a trial export before preprocessing.
type RawSample struct {
	TimestampMicros float64
	X               float64
	Y               float64
	Validity        string
}

// ReadCSV parses a trial export. The header must name timestamp_us, x and
// y; validity is optional and other columns, including the leading row
// index, are ignored.
func ReadCSV(r io.Reader) ([]RawSample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{ColumnTimestamp, ColumnX, ColumnY} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	validityCol, hasValidity := cols[ColumnValidity]

	var out []RawSample
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var s RawSample
		if s.TimestampMicros, err = parseField(rec, cols[ColumnTimestamp]); err != nil {
			return nil, fmt.Errorf("line %d %s: %w", line, ColumnTimestamp, err)
		}
		if s.X, err = parseField(rec, cols[ColumnX]); err != nil {
			return nil, fmt.Errorf("line %d %s: %w", line, ColumnX, err)
		}
		if s.Y, err = parseField(rec, cols[ColumnY]); err != nil {
			return nil, fmt.Errorf("line %d %s: %w", line, ColumnY, err)
		}
		if hasValidity && validityCol < len(rec) {
			s.Validity = strings.TrimSpace(rec[validityCol])
		}
		out = append(out, s)
	}
	return out, nil
}

func parseField(rec []string, col int) (float64, error) {
	if col >= len(rec) {
		return 0, fmt.Errorf("missing field")
	}
	return strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
}
