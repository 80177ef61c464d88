package sheets

import (
	"strings"

	"github.com/claude/repcycle/internal/calendar"
	"github.com/claude/repcycle/internal/models"
)

// Column names and per-exercise suffixes used by the workout sheets.
const (
	ColCompleted = "Completed_workout"
	ColDate      = "Datum"
	// ColPredictedDifficulty is filled in by the difficulty retrain job.
	ColPredictedDifficulty = "ML_Predicted_Difficulty"

	SuffixWeight     = "_KG"
	SuffixReps       = "_reps"
	SuffixSets       = "_set"
	SuffixVolume     = "_volym"
	SuffixDifficulty = "_difficulty"

	completedYes = "ja"
)

// Normalize turns a raw sheet row into a session. It never fails: blank or
// unreadable cells become absent dates or unknown amounts.
func Normalize(row RawRow, group models.Group, rowIndex int) models.Session {
	s := models.Session{
		Group:     group,
		RowIndex:  rowIndex,
		Completed: strings.ToLower(row.Get(ColCompleted)) == completedYes,

		PredictedDifficulty: models.ParseAmount(row.Get(ColPredictedDifficulty)),
	}

	if s.Completed {
		if d, ok := calendar.ParseDate(row.Get(ColDate)); ok {
			s.Date = &d
		}
	}

	for _, key := range row.Keys() {
		switch {
		case strings.HasSuffix(key, SuffixWeight):
			weight := row.Get(key)
			if weight == "" {
				continue
			}
			base := strings.TrimSuffix(key, SuffixWeight)
			s.Exercises = append(s.Exercises, models.Exercise{
				Name:     strings.ReplaceAll(base, "_", " "),
				WeightKg: models.ParseAmount(weight),
				Reps:     models.ParseAmount(row.Get(base + SuffixReps)),
				Sets:     models.ParseAmount(row.Get(base + SuffixSets)),
				VolumeKg: models.ParseAmount(row.Get(base + SuffixVolume)),

				Difficulty: models.ParseAmount(row.Get(base + SuffixDifficulty)),
			})
		case strings.HasSuffix(key, SuffixVolume):
			if v := models.ParseAmount(row.Get(key)); v.Known {
				s.TotalVolumeKg += v.Value
			}
		}
	}
	return s
}

// Sessions normalizes every row of a table.
func Sessions(t *Table, group models.Group) []models.Session {
	sessions := make([]models.Session, 0, len(t.Rows))
	for _, row := range t.Rows {
		sessions = append(sessions, Normalize(row, group, row.Index))
	}
	return sessions
}
