// Package volume aggregates lifted weight over completed sessions: per-week
// volume per group, lifetime session counts, weekly goal progress and
// average sessions per week.
package volume

import (
	"cmp"
	"slices"
	"time"

	"github.com/claude/repcycle/internal/calendar"
	"github.com/claude/repcycle/internal/models"
)

// DefaultWeeklyGoalKg is the weekly volume target used when none is configured.
const DefaultWeeklyGoalKg = 12000.0

// weeksPerMonth approximates the weeks in an elapsed month of the current year.
const weeksPerMonth = 4.345

// Summary is the aggregate over all qualifying sessions.
type Summary struct {
	Weekly       map[models.Group]map[calendar.WeekKey]float64
	Counts       map[models.Group]int
	FirstSession map[models.Group]time.Time
}

// qualifies reports whether s counts towards any aggregate: completed with a
// readable date.
func qualifies(s models.Session) bool {
	return s.Completed && s.Date != nil
}

// Aggregate builds the weekly volume index, session counts and first session
// dates. Sessions with zero volume are counted but do not appear in the
// weekly index. The result does not depend on input order.
func Aggregate(sessions []models.Session) Summary {
	sum := Summary{
		Weekly:       make(map[models.Group]map[calendar.WeekKey]float64),
		Counts:       make(map[models.Group]int),
		FirstSession: make(map[models.Group]time.Time),
	}
	for _, s := range sessions {
		if !qualifies(s) {
			continue
		}
		date := calendar.Date(*s.Date)
		sum.Counts[s.Group]++
		if first, ok := sum.FirstSession[s.Group]; !ok || date.Before(first) {
			sum.FirstSession[s.Group] = date
		}
		if s.TotalVolumeKg <= 0 {
			continue
		}
		weeks, ok := sum.Weekly[s.Group]
		if !ok {
			weeks = make(map[calendar.WeekKey]float64)
			sum.Weekly[s.Group] = weeks
		}
		weeks[calendar.ISOWeekKey(date)] += s.TotalVolumeKg
	}
	return sum
}

// Weeks returns every week present in the index across groups, ascending.
func (s Summary) Weeks() []calendar.WeekKey {
	seen := make(map[calendar.WeekKey]struct{})
	for _, weeks := range s.Weekly {
		for k := range weeks {
			seen[k] = struct{}{}
		}
	}
	keys := make([]calendar.WeekKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b calendar.WeekKey) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Week, b.Week)
	})
	return keys
}

// Progress is the volume lifted in the current week against the goal.
type Progress struct {
	VolumeKg float64 `json:"volume_kg"`
	GoalKg   float64 `json:"goal_kg"`
	Percent  float64 `json:"percent"`
}

// WeeklyProgress sums the volume of sessions completed in the ISO week of now
// that also fall in now's calendar year. justCompleted, when set, is added on
// top; any copy of the same row already in sessions is skipped so a locally
// patched snapshot is not counted twice. Percent is capped at 100.
func WeeklyProgress(sessions []models.Session, justCompleted *models.Session, now time.Time, goalKg float64) Progress {
	if goalKg <= 0 {
		goalKg = DefaultWeeklyGoalKg
	}
	today := calendar.Today(now)
	week := calendar.ISOWeekKey(today)

	var total float64
	for _, s := range sessions {
		if !qualifies(s) {
			continue
		}
		if justCompleted != nil && s.Key() == justCompleted.Key() {
			continue
		}
		date := calendar.Date(*s.Date)
		if date.Year() != today.Year() || calendar.ISOWeekKey(date) != week {
			continue
		}
		total += s.TotalVolumeKg
	}
	if justCompleted != nil {
		total += justCompleted.TotalVolumeKg
	}

	return Progress{
		VolumeKg: total,
		GoalKg:   goalKg,
		Percent:  min(total/goalKg*100, 100),
	}
}

// GroupAverage is the average number of sessions per week for one group.
type GroupAverage struct {
	Group    models.Group `json:"group"`
	Sessions int          `json:"sessions"`
	PerWeek  float64      `json:"per_week"`
}

// YearAverages holds the averages of every group trained in one calendar year.
type YearAverages struct {
	Year   int            `json:"year"`
	Weeks  float64        `json:"weeks"`
	Groups []GroupAverage `json:"groups"`
}

// WeeksElapsed returns the divisor for a year's averages. Years before now
// count as 52 weeks. The current year counts completed months at 4.345 weeks
// each; in January, with no completed month, elapsed days / 7 is used
// instead, never less than one week. A year after now, which only a mistyped
// date produces, is treated like the current year.
func WeeksElapsed(year int, now time.Time) float64 {
	if year < now.Year() {
		return 52
	}
	if months := int(now.Month()) - 1; months > 0 {
		return float64(months) * weeksPerMonth
	}
	return max(float64(now.YearDay())/7, 1)
}

// AverageSessionsPerWeek computes per-year, per-group session averages.
// Years are returned newest first, groups in Chest, Back, Legs order; only
// groups with sessions in a year are included.
func AverageSessionsPerWeek(sessions []models.Session, now time.Time) []YearAverages {
	counts := make(map[int]*[len(models.Groups)]int)
	for _, s := range sessions {
		if !qualifies(s) || !s.Group.Valid() {
			continue
		}
		y := s.Date.Year()
		c, ok := counts[y]
		if !ok {
			c = new([len(models.Groups)]int)
			counts[y] = c
		}
		c[s.Group]++
	}

	years := make([]int, 0, len(counts))
	for y := range counts {
		years = append(years, y)
	}
	slices.Sort(years)
	slices.Reverse(years)

	out := make([]YearAverages, 0, len(years))
	for _, y := range years {
		ya := YearAverages{Year: y, Weeks: WeeksElapsed(y, now)}
		for _, g := range models.Groups {
			n := counts[y][g]
			if n == 0 {
				continue
			}
			ya.Groups = append(ya.Groups, GroupAverage{
				Group:    g,
				Sessions: n,
				PerWeek:  float64(n) / ya.Weeks,
			})
		}
		out = append(out, ya)
	}
	return out
}
