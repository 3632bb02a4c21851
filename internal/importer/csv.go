// Package importer reads stage tests from CSV files and FIT lap data
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"lactest/internal/analysis"
)

// ErrNoIntensityColumn is returned when a CSV header has none of speed,
// power or pace
var ErrNoIntensityColumn = errors.New("csv needs a speed, power or pace column")

// column aliases accepted in the header, lower-cased
var columnAliases = map[string]string{
	"stage":      "stage",
	"seq":        "stage",
	"hr":         "hr",
	"heart_rate": "hr",
	"heartrate":  "hr",
	"lactate":    "lactate",
	"la":         "lactate",
	"speed":      "speed",
	"power":      "power",
	"pace":       "pace",
}

// ReadCSV parses a header row followed by one row per stage. Required
// columns are hr and lactate plus at least one of speed (km/h), power (W)
// or pace (min/km, decimal or m:ss). The stage column is optional and
// defaults to row order. Blank cells are left unset so the engine can drop
// incomplete stages.
func ReadCSV(r io.Reader) ([]analysis.RawStage, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int)
	for i, name := range header {
		key, ok := columnAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	for _, required := range []string{"hr", "lactate"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv header is missing the %s column", required)
		}
	}
	_, hasSpeed := cols["speed"]
	_, hasPower := cols["power"]
	_, hasPace := cols["pace"]
	if !hasSpeed && !hasPower && !hasPace {
		return nil, ErrNoIntensityColumn
	}

	var stages []analysis.RawStage
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		s := analysis.RawStage{Seq: len(stages) + 1}
		if v, ok, err := cell(record, cols, "stage", strconv.Atoi); err != nil {
			return nil, fmt.Errorf("line %d: stage: %w", line, err)
		} else if ok {
			s.Seq = v
		}
		if v, ok, err := cell(record, cols, "hr", parseFloat); err != nil {
			return nil, fmt.Errorf("line %d: hr: %w", line, err)
		} else if ok {
			s.HeartRate = v
		}
		if v, ok, err := cell(record, cols, "lactate", parseFloat); err != nil {
			return nil, fmt.Errorf("line %d: lactate: %w", line, err)
		} else if ok {
			s.Lactate = v
		}
		if s.Speed, err = optional(record, cols, "speed", parseFloat); err != nil {
			return nil, fmt.Errorf("line %d: speed: %w", line, err)
		}
		if s.Power, err = optional(record, cols, "power", parseFloat); err != nil {
			return nil, fmt.Errorf("line %d: power: %w", line, err)
		}
		if s.Pace, err = optional(record, cols, "pace", ParsePace); err != nil {
			return nil, fmt.Errorf("line %d: pace: %w", line, err)
		}
		stages = append(stages, s)
	}

	if len(stages) == 0 {
		return nil, errors.New("csv has no stage rows")
	}
	return stages, nil
}

// ParsePace reads "5:17" or "5.28" as minutes per km
func ParsePace(s string) (float64, error) {
	if mins, secs, ok := strings.Cut(s, ":"); ok {
		m, err := strconv.Atoi(mins)
		if err != nil {
			return 0, fmt.Errorf("invalid pace %q", s)
		}
		sec, err := strconv.ParseFloat(secs, 64)
		if err != nil || sec < 0 || sec >= 60 {
			return 0, fmt.Errorf("invalid pace %q", s)
		}
		return float64(m) + sec/60, nil
	}
	return parseFloat(s)
}

func parseFloat(s string) (float64, error) {
	// Decimal commas are common in lab exports
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

func cell[T any](record []string, cols map[string]int, key string, parse func(string) (T, error)) (T, bool, error) {
	var zero T
	i, ok := cols[key]
	if !ok || i >= len(record) {
		return zero, false, nil
	}
	raw := strings.TrimSpace(record[i])
	if raw == "" {
		return zero, false, nil
	}
	v, err := parse(raw)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func optional(record []string, cols map[string]int, key string, parse func(string) (float64, error)) (*float64, error) {
	v, ok, err := cell(record, cols, key, parse)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}
