package dates

import (
	"errors"
	"fmt"
)

var ErrUnknownPreset = errors.New("unknown range preset")

// Range is an inclusive span of calendar days.
type Range struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

func NewRange(start, end Date) Range {
	return Range{Start: start, End: end}
}

// IsValid reports whether both ends are set and End is not before Start.
func (r Range) IsValid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start)
}

func (r Range) Contains(d Date) bool {
	if d.IsZero() || !r.IsValid() {
		return false
	}
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r Range) Days() int {
	if !r.IsValid() {
		return 0
	}
	return r.Start.DaysUntil(r.End) + 1
}

// OverlapDays counts the days shared by r and other.
func (r Range) OverlapDays(other Range) int {
	if !r.IsValid() || !other.IsValid() {
		return 0
	}
	start := r.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := r.End
	if other.End.Before(end) {
		end = other.End
	}
	return NewRange(start, end).Days()
}

func (r Range) String() string {
	return fmt.Sprintf("%s..%s", r.Start, r.End)
}

// Preset names a range relative to "today".
type Preset string

const (
	PresetWeek        Preset = "week"
	PresetMonth       Preset = "month"
	PresetFourWeeks   Preset = "4w"
	PresetTwelveWeeks Preset = "12w"
	PresetSixMonths   Preset = "6m"
	PresetYear        Preset = "year"
	PresetYearToDate  Preset = "ytd"
)

// ResolveRange turns a preset into a concrete range ending today.
// Week based presets start on a Monday, month based ones on the 1st.
func ResolveRange(preset Preset, today Date) (Range, error) {
	if today.IsZero() {
		return Range{}, errors.New("today not set")
	}

	weekStart := today.WeekStart()
	monthStart := today.MonthStart()

	switch preset {
	case PresetWeek:
		return NewRange(weekStart, today), nil
	case PresetMonth:
		return NewRange(monthStart, today), nil
	case PresetFourWeeks:
		return NewRange(weekStart.AddDays(-3*7), today), nil
	case PresetTwelveWeeks:
		return NewRange(weekStart.AddDays(-11*7), today), nil
	case PresetSixMonths:
		return NewRange(Date{t: monthStart.t.AddDate(0, -5, 0)}, today), nil
	case PresetYear:
		return NewRange(weekStart.AddDays(-51*7), today), nil
	case PresetYearToDate:
		return NewRange(New(today.Year(), 1, 1), today), nil
	default:
		return Range{}, fmt.Errorf("%w: %s", ErrUnknownPreset, preset)
	}
}

// ParseRange builds a range out of two YYYY-MM-DD strings.
// Validity (end >= start) is left to the caller.
func ParseRange(from, to string) (Range, error) {
	start, err := Parse(from)
	if err != nil {
		return Range{}, fmt.Errorf("range start: %w", err)
	}
	end, err := Parse(to)
	if err != nil {
		return Range{}, fmt.Errorf("range end: %w", err)
	}
	return NewRange(start, end), nil
}
