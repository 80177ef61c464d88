// Package tracker holds the current workout snapshot and rotation cursor and
// exposes the operations the HTTP API and MCP tools are built on.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/repcycle/internal/calendar"
	"github.com/claude/repcycle/internal/completion"
	"github.com/claude/repcycle/internal/ingest"
	"github.com/claude/repcycle/internal/journal"
	"github.com/claude/repcycle/internal/models"
	"github.com/claude/repcycle/internal/observability"
	"github.com/claude/repcycle/internal/rotation"
	"github.com/claude/repcycle/internal/volume"
)

var (
	// ErrNotLoaded is returned by every read before the first successful load.
	ErrNotLoaded = errors.New("workouts have not been loaded yet")
	// ErrGroupCompleted is returned when completing in a group with no open session.
	ErrGroupCompleted = errors.New("all workouts in this group are completed")
	// ErrRetrainDisabled is returned by Retrain when no retrain job is configured.
	ErrRetrainDisabled = errors.New("difficulty retrain is not configured")
)

// Loader fetches a complete snapshot of all groups.
type Loader interface {
	FetchAll(ctx context.Context) (*models.Snapshot, *ingest.Result, error)
}

// Recorder confirms a completion and returns the patched snapshot.
type Recorder interface {
	Record(ctx context.Context, snap *models.Snapshot, session models.Session, now time.Time) (*models.Snapshot, completion.Request, error)
}

// Journal is the audit trail the tracker writes to. It is optional.
type Journal interface {
	RecordLoad(ctx context.Context, result *ingest.Result, loadErr error) error
	RecordCompletion(ctx context.Context, c journal.Completion) error
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Retrainer runs the difficulty model job and returns its report.
type Retrainer interface {
	Retrain(ctx context.Context) (string, error)
}

// Tracker is safe for concurrent use.
type Tracker struct {
	loader   Loader
	recorder Recorder
	journal  Journal
	retrain  Retrainer
	log      *slog.Logger
	goalKg   float64
	now      func() time.Time

	mu     sync.RWMutex
	snap   *models.Snapshot
	cursor rotation.Cursor
	result *ingest.Result
}

// New creates a Tracker. jrnl may be nil.
func New(loader Loader, recorder Recorder, jrnl Journal, goalKg float64, log *slog.Logger) *Tracker {
	if goalKg <= 0 {
		goalKg = volume.DefaultWeeklyGoalKg
	}
	return &Tracker{
		loader:   loader,
		recorder: recorder,
		journal:  jrnl,
		log:      log,
		goalKg:   goalKg,
		now:      time.Now,
	}
}

// SetRetrainer enables Retrain.
func (t *Tracker) SetRetrainer(r Retrainer) {
	t.retrain = r
}

// Load fetches all sheets. On success the snapshot is replaced wholesale and
// the cursor is reset to the initial group; on failure the previous snapshot
// stays in place.
func (t *Tracker) Load(ctx context.Context) (*ingest.Result, error) {
	snap, result, err := t.loader.FetchAll(ctx)
	t.journalLoad(ctx, result, err)
	if err != nil {
		t.log.Error("loading workouts", "error", err)
		return nil, fmt.Errorf("loading workouts: %w", err)
	}

	cursor := rotation.NewCursor(snap)

	t.mu.Lock()
	t.snap = snap
	t.cursor = cursor
	t.result = result
	t.mu.Unlock()

	observability.RecordLoad(snap.LoadedAt)
	t.log.Info("workouts loaded",
		"load_id", result.LoadID,
		"sessions", result.Sessions(),
		"dropped", result.Dropped(),
		"initial_group", cursor.Group(),
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

func (t *Tracker) journalLoad(ctx context.Context, result *ingest.Result, loadErr error) {
	if t.journal == nil {
		return
	}
	if err := t.journal.RecordLoad(ctx, result, loadErr); err != nil {
		t.log.Warn("journal write failed", "error", err)
	}
}

func (t *Tracker) state() (*models.Snapshot, rotation.Cursor, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.snap == nil {
		return nil, rotation.Cursor{}, ErrNotLoaded
	}
	return t.snap, t.cursor, nil
}

// Current returns the session proposed for the cursor's group.
func (t *Tracker) Current(ctx context.Context) (*WorkoutView, error) {
	snap, cursor, err := t.state()
	if err != nil {
		return nil, err
	}
	return newWorkoutView(snap, cursor, t.now()), nil
}

// Skip advances the cursor to the next group. Sessions are not modified.
func (t *Tracker) Skip(ctx context.Context) (*WorkoutView, error) {
	t.mu.Lock()
	if t.snap == nil {
		t.mu.Unlock()
		return nil, ErrNotLoaded
	}
	t.cursor = t.cursor.Skip()
	snap, cursor := t.snap, t.cursor
	t.mu.Unlock()

	t.log.Debug("skipped to group", "group", cursor.Group())
	return newWorkoutView(snap, cursor, t.now()), nil
}

// Complete records the proposed session as done today. The lock is not
// held during the write-back; a reload that lands meanwhile is patched
// instead of overwritten.
func (t *Tracker) Complete(ctx context.Context) (*CompletionView, error) {
	snap, cursor, err := t.state()
	if err != nil {
		return nil, err
	}
	session, ok := cursor.Next(snap)
	if !ok {
		return nil, fmt.Errorf("%s: %w", cursor.Group(), ErrGroupCompleted)
	}

	now := t.now()
	patched, req, err := t.recorder.Record(ctx, snap, session, now)
	t.journalCompletion(ctx, snap, req, err)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	if t.snap == snap {
		t.snap = patched
	} else if p, ok := t.snap.WithCompleted(req.Key(), calendar.Today(now)); ok {
		t.snap = p
	}
	t.cursor = rotation.NewCursor(t.snap)
	current := t.snap
	t.mu.Unlock()

	done, ok := current.Find(req.Key())
	if !ok {
		// A reload during the write-back dropped the row.
		today := calendar.Today(now)
		done = session
		done.Completed = true
		done.Date = &today
	}
	progress := volume.WeeklyProgress(current.All(), &done, now, t.goalKg)
	t.log.Info("workout completed",
		"group", req.Group,
		"row", req.RowIndex,
		"week_volume_kg", progress.VolumeKg,
		"goal_percent", progress.Percent,
	)
	return &CompletionView{
		Request:  req,
		Session:  done,
		Progress: progress,
		Chart:    volume.ProgressChart(progress),
	}, nil
}

func (t *Tracker) journalCompletion(ctx context.Context, snap *models.Snapshot, req completion.Request, sendErr error) {
	if t.journal == nil {
		return
	}
	err := t.journal.RecordCompletion(ctx, journal.Completion{
		LoadID:   snap.LoadID.String(),
		Group:    req.Group.String(),
		RowIndex: req.RowIndex,
		Date:     req.Date,
		Err:      sendErr,
	})
	if err != nil {
		t.log.Warn("journal write failed", "error", err)
	}
}

// FindNext returns the open session at offset in the global priority order,
// or nil when there is none. The offset is kept on the cursor.
func (t *Tracker) FindNext(ctx context.Context, offset int) (*NextView, error) {
	t.mu.Lock()
	if t.snap == nil {
		t.mu.Unlock()
		return nil, ErrNotLoaded
	}
	t.cursor = t.cursor.WithOffset(offset)
	snap, cursor := t.snap, t.cursor
	t.mu.Unlock()

	view := &NextView{Offset: cursor.Offset, Remaining: countOpen(snap)}
	if s, ok := rotation.FindNext(snap, cursor.Offset); ok {
		view.Session = &s
	}
	return view, nil
}

// Dashboard aggregates the current snapshot into chart payloads and the
// current week's goal progress.
func (t *Tracker) Dashboard(ctx context.Context) (*DashboardView, error) {
	snap, _, err := t.state()
	if err != nil {
		return nil, err
	}
	now := t.now()
	sessions := snap.All()
	progress := volume.WeeklyProgress(sessions, nil, now, t.goalKg)
	return &DashboardView{
		LoadID:    snap.LoadID.String(),
		LoadedAt:  snap.LoadedAt,
		Charts:    volume.BuildDashboard(sessions, now),
		Progress:  progress,
		GoalChart: volume.ProgressChart(progress),
	}, nil
}

// Status describes the current load and cursor.
func (t *Tracker) Status(ctx context.Context) (*StatusView, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.snap == nil {
		return nil, ErrNotLoaded
	}
	states := rotation.States(t.snap)
	return &StatusView{
		LoadID:   t.snap.LoadID.String(),
		LoadedAt: t.snap.LoadedAt,
		Result:   t.result,
		Group:    t.cursor.Group(),
		Offset:   t.cursor.Offset,
		Groups:   states[:],
	}, nil
}

// Retrain runs the difficulty job, then reloads the sheets so the new
// predictions show up in the sessions.
func (t *Tracker) Retrain(ctx context.Context) (*RetrainView, error) {
	if t.retrain == nil {
		return nil, ErrRetrainDisabled
	}
	report, err := t.retrain.Retrain(ctx)
	observability.RecordRetrain(err)
	if err != nil {
		t.log.Error("difficulty retrain", "error", err)
		return nil, err
	}
	t.log.Info("difficulty model retrained", "report", report)

	result, err := t.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("reloading after retrain: %w", err)
	}
	return &RetrainView{Report: report, Result: result}, nil
}

// Journal returns the most recent journal entries. Without a journal the
// list is empty.
func (t *Tracker) Journal(ctx context.Context, limit int) ([]journal.Entry, error) {
	if t.journal == nil {
		return []journal.Entry{}, nil
	}
	return t.journal.Recent(ctx, limit)
}

func countOpen(snap *models.Snapshot) int {
	var n int
	for _, s := range snap.All() {
		if !s.Completed {
			n++
		}
	}
	return n
}
