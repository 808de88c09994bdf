package dates

import (
	"bytes"
	"errors"
	"fmt"
	"time"
)

var ErrDateOutOfRange = errors.New("date out of range")

const (
	Layout        = "2006-01-02"
	secondsPerDay = 24 * 60 * 60
	minYear       = 2
)

// Date is a timezone-naive calendar date (year, month, day).
// The zero value represents "no date".
type Date struct {
	t time.Time // always midnight UTC
}

func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime takes the calendar date of t in t's own location.
func FromTime(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return New(y, m, d)
}

func Today() Date {
	return FromTime(time.Now())
}

func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date [%s]: %w", s, err)
	}
	// year 1 collides with the zero Date
	if t.Year() < minYear {
		return Date{}, fmt.Errorf("parse date [%s]: %w", s, ErrDateOutOfRange)
	}
	return FromTime(t), nil
}

func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Time returns the date as midnight UTC.
func (d Date) Time() time.Time {
	return d.t
}

func (d Date) Year() int {
	return d.t.Year()
}

func (d Date) Month() time.Month {
	return d.t.Month()
}

func (d Date) Day() int {
	return d.t.Day()
}

func (d Date) Weekday() time.Weekday {
	return d.t.Weekday()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

func (d Date) Compare(other Date) int {
	return d.t.Compare(other.t)
}

// DaysUntil returns the number of days from d to other (negative if other is earlier).
func (d Date) DaysUntil(other Date) int {
	// Unix seconds, time.Duration saturates past ~292 years
	return int((other.t.Unix() - d.t.Unix()) / secondsPerDay)
}

// WeekStart returns the Monday of the ISO week containing d.
func (d Date) WeekStart() Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

func (d Date) MonthStart() Date {
	return New(d.Year(), d.Month(), 1)
}

// MonthEnd returns the last calendar day of d's month.
func (d Date) MonthEnd() Date {
	return Date{t: d.MonthStart().t.AddDate(0, 1, -1)}
}

func (d Date) ISOWeek() WeekKey {
	year, week := d.t.ISOWeek()
	return WeekKey{Year: year, Week: week}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*d = Date{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid date json: %s", data)
	}

	raw := string(data[1 : len(data)-1])
	// accept full timestamps too, the calendar date is what matters
	if len(raw) > len(Layout) {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("parse date [%s]: %w", raw, err)
		}
		if t.Year() < minYear {
			return fmt.Errorf("parse date [%s]: %w", raw, ErrDateOutOfRange)
		}
		*d = FromTime(t)
		return nil
	}

	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// WeekKey identifies an ISO week (Monday start).
type WeekKey struct {
	Year int
	Week int
}

func (k WeekKey) String() string {
	return fmt.Sprintf("%04d-W%02d", k.Year, k.Week)
}

func (k WeekKey) Less(other WeekKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Week < other.Week
}
