package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"teststand/internal/config"
	"teststand/internal/store"
)

// ReadHitsFile parses a CSV hit table. Columns are matched to hit fields by
// header name; columns not named in cols are ignored.
func ReadHitsFile(path string, cols config.Columns) ([]store.HitRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadHits(f, cols)
}

func ReadHits(r io.Reader, cols config.Columns) ([]store.HitRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, err
	}
	index, err := columnIndex(header, cols)
	if err != nil {
		return nil, err
	}

	var hits []store.HitRecord
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		hit, err := parseHit(record, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// columnIndex returns, in hit field order, the position of each configured
// column in header.
func columnIndex(header []string, cols config.Columns) ([6]int, error) {
	var index [6]int
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		positions[name] = i
	}
	for i, name := range cols.Names() {
		pos, ok := positions[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return index, fmt.Errorf("missing column %q", name)
		}
		index[i] = pos
	}
	return index, nil
}

func parseHit(record []string, index [6]int) (store.HitRecord, error) {
	var hit store.HitRecord
	var err error
	if hit.EventID, err = parseInt(record[index[0]]); err != nil {
		return hit, fmt.Errorf("event id: %w", err)
	}
	values := [4]*float64{&hit.Energy, &hit.X, &hit.Y, &hit.Z}
	for i, dst := range values {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[index[i+1]]), 64)
		if err != nil {
			return hit, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return hit, fmt.Errorf("non-finite value %q", record[index[i+1]])
		}
		*dst = v
	}
	channel, err := parseInt(record[index[5]])
	if err != nil {
		return hit, fmt.Errorf("channel: %w", err)
	}
	hit.Channel = int(channel)
	return hit, nil
}

// parseInt also accepts integral floats such as "12.0", which is how some
// writers emit integer columns.
func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int64(f), nil
}
