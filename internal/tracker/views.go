package tracker

import (
	"fmt"
	"time"

	"github.com/claude/repcycle/internal/calendar"
	"github.com/claude/repcycle/internal/completion"
	"github.com/claude/repcycle/internal/ingest"
	"github.com/claude/repcycle/internal/models"
	"github.com/claude/repcycle/internal/rotation"
	"github.com/claude/repcycle/internal/volume"
)

// nudgeAfterDays is the gap after which the reminder gets pushier.
const nudgeAfterDays = 9

// WorkoutView is what the workout screen shows for the cursor's group.
type WorkoutView struct {
	Group         models.Group    `json:"group"`
	Next          *models.Session `json:"next,omitempty"`
	AllCompleted  bool            `json:"all_completed"`
	LastCompleted *models.Session `json:"last_completed,omitempty"`
	DaysSinceLast int             `json:"days_since_last"`
	Message       string          `json:"message,omitempty"`
}

func newWorkoutView(snap *models.Snapshot, cursor rotation.Cursor, now time.Time) *WorkoutView {
	g := cursor.Group()
	v := &WorkoutView{Group: g}
	if next, ok := cursor.Next(snap); ok {
		v.Next = &next
	} else {
		v.AllCompleted = true
	}
	if last, ok := rotation.LastCompletedSession(snap.Sessions(g)); ok {
		v.LastCompleted = &last
		v.DaysSinceLast = max(calendar.DaysBetween(*last.Date, now), 0)
		v.Message = reminder(v.DaysSinceLast)
	}
	return v
}

func reminder(days int) string {
	switch {
	case days <= 0:
		return ""
	case days > nudgeAfterDays:
		return fmt.Sprintf("It has been %d days since your last workout. Time to get back to the gym!", days)
	case days == 1:
		return "It has been 1 day since your last workout."
	}
	return fmt.Sprintf("It has been %d days since your last workout.", days)
}

// CompletionView is returned once a completion is confirmed.
type CompletionView struct {
	Request  completion.Request   `json:"request"`
	Session  models.Session       `json:"session"`
	Progress volume.Progress      `json:"progress"`
	Chart    volume.DoughnutChart `json:"chart"`
}

// NextView is one entry of the global next-workout list.
type NextView struct {
	Offset    int             `json:"offset"`
	Session   *models.Session `json:"session,omitempty"`
	Remaining int             `json:"remaining"`
}

// DashboardView bundles the history charts and this week's goal progress.
type DashboardView struct {
	LoadID    string               `json:"load_id"`
	LoadedAt  time.Time            `json:"loaded_at"`
	Charts    volume.Dashboard     `json:"charts"`
	Progress  volume.Progress      `json:"progress"`
	GoalChart volume.DoughnutChart `json:"goal_chart"`
}

// StatusView describes the loaded snapshot and the cursor position.
type StatusView struct {
	LoadID   string                `json:"load_id"`
	LoadedAt time.Time             `json:"loaded_at"`
	Result   *ingest.Result        `json:"result,omitempty"`
	Group    models.Group          `json:"group"`
	Offset   int                   `json:"offset"`
	Groups   []rotation.GroupState `json:"groups"`
}

// RetrainView is the difficulty job's report and the reload that followed it.
type RetrainView struct {
	Report string         `json:"report"`
	Result *ingest.Result `json:"result"`
}
