// Package calendar handles the date encodings found in the workout sheets and
// buckets dates into ISO-8601 weeks.
package calendar

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// ParseDate reads a sheet date. Values containing "/" are day/month/year;
// values containing "-" are year-month-day, optionally followed by a time
// portion which is ignored. ok is false for anything else, including
// impossible dates such as 31/02/2025.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	switch {
	case strings.Contains(s, "/"):
		parts := strings.Split(s, "/")
		if len(parts) != 3 {
			return time.Time{}, false
		}
		return civil(parts[2], parts[1], parts[0])
	case strings.Contains(s, "-"):
		if i := strings.IndexAny(s, "T "); i >= 0 {
			s = s[:i]
		}
		parts := strings.Split(s, "-")
		if len(parts) != 3 {
			return time.Time{}, false
		}
		return civil(parts[0], parts[1], parts[2])
	}
	return time.Time{}, false
}

func civil(year, month, dom string) (time.Time, bool) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y < 1 {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(strings.TrimSpace(dom))
	if err != nil || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalises overflow; a changed month means the day was invalid.
	if t.Month() != time.Month(m) {
		return time.Time{}, false
	}
	return t, true
}

// Date returns the civil date of t (in t's own location) as UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is Date(now).
func Today(now time.Time) time.Time { return Date(now) }

// DaysBetween returns the number of whole calendar days from a to b.
// The result is negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)) / day)
}

// FormatISO renders a civil date as YYYY-MM-DD.
func FormatISO(t time.Time) string { return t.Format(time.DateOnly) }

// WeekKey identifies an ISO-8601 week.
type WeekKey struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

func (k WeekKey) String() string { return fmt.Sprintf("%04d-W%02d", k.Year, k.Week) }

// Before orders keys chronologically.
func (k WeekKey) Before(o WeekKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Week < o.Week
}

// ISOWeekKey computes the ISO week of t's civil date: move to the Thursday of
// its Monday-based week, then count weeks from January 1st of that
// Thursday's year.
func ISOWeekKey(t time.Time) WeekKey {
	d := Date(t)
	wd := int(d.Weekday())
	if wd == 0 {
		wd = 7
	}
	thursday := d.AddDate(0, 0, 4-wd)
	yearStart := time.Date(thursday.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := float64(thursday.Sub(yearStart) / day)
	return WeekKey{
		Year: thursday.Year(),
		Week: int(math.Ceil((days + 1) / 7)),
	}
}
