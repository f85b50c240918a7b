// Package timeline buckets journal entries by local calendar day and builds
// the month matrix used for heat-map rendering. Everything here is pure: no
// storage, no clock reads except through the caller-supplied instants.
package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/seedlog/seedlog/models"
)

const dateKeyLayout = "2006-01-02"

// DateKey maps an instant to its YYYY-MM-DD key in the given timezone.
// Calendar-day semantics: two instants on the same local day share a key
// regardless of DST shifts or which side of UTC midnight they fall on.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateKeyLayout)
}

// TodayKey returns the date key for the current instant in loc.
func TodayKey(loc *time.Location) string {
	return DateKey(time.Now(), loc)
}

// ParseDateKey parses a YYYY-MM-DD key as local midnight in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(dateKeyLayout, key, loc)
}

// FormatHeader renders a long-form day label for a date key,
// e.g. "October 4, 2025, Saturday".
func FormatHeader(key string) (string, error) {
	t, err := ParseDateKey(key, time.UTC)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %d, %d, %s", t.Month().String(), t.Day(), t.Year(), t.Weekday().String()), nil
}

// Day is one calendar day's worth of entries, newest entry first.
type Day struct {
	Key     string
	Entries []models.Entry
}

// GroupByDay partitions entries into calendar days in loc. Days come back
// newest first, entries within a day newest first. Every input entry lands
// in exactly one day.
func GroupByDay(entries []models.Entry, loc *time.Location) []Day {
	byKey := make(map[string][]models.Entry)
	for _, e := range entries {
		k := DateKey(e.CreatedAt, loc)
		byKey[k] = append(byKey[k], e)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	days := make([]Day, 0, len(keys))
	for _, k := range keys {
		group := byKey[k]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].CreatedAt.After(group[j].CreatedAt)
		})
		days = append(days, Day{Key: k, Entries: group})
	}
	return days
}
