package timeline

import (
	"fmt"
	"math"
	"time"
)

const (
	matrixRows = 6
	matrixCols = 7

	// Intensity curve exponent; <1 keeps low-count days visually distinct.
	intensityExponent = 0.5
)

// Cell is one day slot of the month matrix.
type Cell struct {
	DateKey   string  `json:"date_key"`
	Day       int     `json:"day"`
	InMonth   bool    `json:"in_month"`
	Count     int     `json:"count"`
	Intensity float64 `json:"intensity"`
}

// ParseMonth parses a YYYY-MM anchor into its year and month.
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return t.Year(), t.Month(), nil
}

// MatrixBounds returns the half-open local time window covered by the grid
// for an anchor month: the Sunday on or before the 1st through 42 days later.
func MatrixBounds(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	return start, start.AddDate(0, 0, matrixRows*matrixCols)
}

// MonthMatrix builds the fixed 6x7 grid for an anchor month, starting from
// the Sunday on or before the 1st. counts maps date keys to per-day entry
// counts; intensity is normalized against the month's maximum count and
// compressed so that sparse days remain visible.
func MonthMatrix(year int, month time.Month, counts map[string]int, loc *time.Location) [][]Cell {
	if loc == nil {
		loc = time.UTC
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	maxCount := 0
	cursor := start
	for i := 0; i < matrixRows*matrixCols; i++ {
		if cursor.Month() == month {
			if c := counts[DateKey(cursor, loc)]; c > maxCount {
				maxCount = c
			}
		}
		cursor = cursor.AddDate(0, 0, 1)
	}

	grid := make([][]Cell, matrixRows)
	cursor = start
	for r := 0; r < matrixRows; r++ {
		row := make([]Cell, matrixCols)
		for c := 0; c < matrixCols; c++ {
			key := DateKey(cursor, loc)
			count := counts[key]
			row[c] = Cell{
				DateKey:   key,
				Day:       cursor.Day(),
				InMonth:   cursor.Month() == month,
				Count:     count,
				Intensity: intensity(count, maxCount),
			}
			cursor = cursor.AddDate(0, 0, 1)
		}
		grid[r] = row
	}
	return grid
}

func intensity(count, maxCount int) float64 {
	if count <= 0 || maxCount <= 0 {
		return 0
	}
	// maxCount only considers in-month days, so a busy spill cell can
	// exceed it; cap the ratio to keep intensity within [0, 1].
	ratio := float64(count) / float64(maxCount)
	if ratio > 1 {
		ratio = 1
	}
	return math.Pow(ratio, intensityExponent)
}
