package dates

import (
	"fmt"
	"strings"
)

// Granularity is the calendar size of a reporting bucket.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	if !g.IsValid() {
		return "", fmt.Errorf("unknown granularity: %s", s)
	}
	return g, nil
}

func (g Granularity) String() string {
	return string(g)
}

func (g Granularity) IsValid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return true
	default:
		return false
	}
}

// BucketStart returns the first day of the bucket containing d.
func (g Granularity) BucketStart(d Date) Date {
	switch g {
	case GranularityWeek:
		return d.WeekStart()
	case GranularityMonth:
		return d.MonthStart()
	default:
		return d
	}
}

// BucketEnd returns the last (inclusive) day of the bucket starting at start.
func (g Granularity) BucketEnd(start Date) Date {
	switch g {
	case GranularityWeek:
		return start.AddDays(6)
	case GranularityMonth:
		return start.MonthEnd()
	default:
		return start
	}
}

func (g Granularity) Next(start Date) Date {
	return g.BucketEnd(start).AddDays(1)
}

// BucketKey is a human readable bucket label: 2026-01-06, 2026-W02, 2026-01.
func (g Granularity) BucketKey(start Date) string {
	switch g {
	case GranularityWeek:
		return start.ISOWeek().String()
	case GranularityMonth:
		return start.Time().Format("2006-01")
	default:
		return start.String()
	}
}

// BucketStarts lists, in order, the start of every bucket overlapping r.
func (g Granularity) BucketStarts(r Range) []Date {
	if !r.IsValid() || !g.IsValid() {
		return []Date{}
	}

	var starts []Date
	for start := g.BucketStart(r.Start); !start.After(r.End); start = g.Next(start) {
		starts = append(starts, start)
	}
	return starts
}

// BucketCount is len(g.BucketStarts(r)) without building the list.
func (g Granularity) BucketCount(r Range) int {
	if !r.IsValid() || !g.IsValid() {
		return 0
	}

	switch g {
	case GranularityWeek:
		return r.Start.WeekStart().DaysUntil(r.End.WeekStart())/7 + 1
	case GranularityMonth:
		months := (r.End.Year()-r.Start.Year())*12 + int(r.End.Month()) - int(r.Start.Month())
		return months + 1
	default:
		return r.Days()
	}
}
