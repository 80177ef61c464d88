package volume

import (
	"time"

	"github.com/claude/repcycle/internal/models"
)

var groupColors = [...]string{
	models.Chest: "green",
	models.Back:  "red",
	models.Legs:  "blue",
}

// Dataset is one series of a chart.
type Dataset struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
	Color  string    `json:"color,omitempty"`
}

// LineChart plots weekly volume per group.
type LineChart struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// BarChart plots lifetime sessions per group.
type BarChart struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// DoughnutChart shows goal progress as completed and remaining shares.
type DoughnutChart struct {
	Labels   []string  `json:"labels"`
	Values   []float64 `json:"values"`
	VolumeKg float64   `json:"volume_kg"`
	Percent  float64   `json:"percent"`
}

// Dashboard is everything the history view renders.
type Dashboard struct {
	Volume       LineChart         `json:"volume"`
	Sessions     BarChart          `json:"sessions"`
	Averages     []YearAverages    `json:"averages"`
	FirstSession map[string]string `json:"first_session,omitempty"`
}

// BuildDashboard aggregates sessions into chart payloads.
func BuildDashboard(sessions []models.Session, now time.Time) Dashboard {
	sum := Aggregate(sessions)
	weeks := sum.Weeks()

	d := Dashboard{
		Volume:       LineChart{Labels: make([]string, len(weeks)), Datasets: []Dataset{}},
		Sessions:     BarChart{Labels: []string{}, Values: []int{}},
		Averages:     AverageSessionsPerWeek(sessions, now),
		FirstSession: make(map[string]string),
	}
	for i, w := range weeks {
		d.Volume.Labels[i] = w.String()
	}

	for _, g := range models.Groups {
		if byWeek, ok := sum.Weekly[g]; ok {
			values := make([]float64, len(weeks))
			for i, w := range weeks {
				values[i] = byWeek[w]
			}
			d.Volume.Datasets = append(d.Volume.Datasets, Dataset{
				Label:  g.String() + " Volume (KG)",
				Values: values,
				Color:  groupColors[g],
			})
		}
		if n := sum.Counts[g]; n > 0 {
			d.Sessions.Labels = append(d.Sessions.Labels, g.String())
			d.Sessions.Values = append(d.Sessions.Values, n)
		}
		if first, ok := sum.FirstSession[g]; ok {
			d.FirstSession[g.String()] = first.Format(time.DateOnly)
		}
	}
	return d
}

// ProgressChart renders p as a doughnut of completed and remaining percent.
func ProgressChart(p Progress) DoughnutChart {
	return DoughnutChart{
		Labels:   []string{"Completed", "Remaining"},
		Values:   []float64{p.Percent, 100 - p.Percent},
		VolumeKg: p.VolumeKg,
		Percent:  p.Percent,
	}
}
