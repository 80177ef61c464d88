package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/claude/repcycle/internal/completion"
	"github.com/claude/repcycle/internal/ingest"
	"github.com/claude/repcycle/internal/journal"
	"github.com/claude/repcycle/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// fakeLoader serves a fresh snapshot built from sessions on every call.
type fakeLoader struct {
	sessions []models.Session
	err      error
	calls    int
}

func (f *fakeLoader) FetchAll(ctx context.Context) (*models.Snapshot, *ingest.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	byGroup := map[models.Group][]models.Session{}
	for _, s := range f.sessions {
		byGroup[s.Group] = append(byGroup[s.Group], s)
	}
	snap := models.NewSnapshot(time.Now(), byGroup)
	return snap, &ingest.Result{LoadID: snap.LoadID.String()}, nil
}

type fakeSender struct {
	err    error
	sent   []completion.Request
	onSend func()
}

func (f *fakeSender) Send(ctx context.Context, req completion.Request) error {
	f.sent = append(f.sent, req)
	if f.onSend != nil {
		f.onSend()
	}
	return f.err
}

type fakeRetrainer struct {
	report string
	err    error
	calls  int
}

func (f *fakeRetrainer) Retrain(ctx context.Context) (string, error) {
	f.calls++
	return f.report, f.err
}

func history() []models.Session {
	return []models.Session{
		{Group: models.Chest, RowIndex: 2, Completed: true, Date: day(2025, time.May, 10), TotalVolumeKg: 5000},
		{Group: models.Chest, RowIndex: 3, TotalVolumeKg: 5200},
		{Group: models.Back, RowIndex: 2, Completed: true, Date: day(2025, time.May, 1), TotalVolumeKg: 4000},
		{Group: models.Back, RowIndex: 3, TotalVolumeKg: 4100},
		{Group: models.Legs, RowIndex: 2, Completed: true, Date: day(2025, time.May, 8), TotalVolumeKg: 6000},
		{Group: models.Legs, RowIndex: 3, TotalVolumeKg: 1000},
	}
}

func newTestTracker(t *testing.T, loader *fakeLoader, sender *fakeSender, jrnl Journal) *Tracker {
	t.Helper()
	log := discardLogger()
	tr := New(loader, completion.NewRecorder(sender, log), jrnl, 12000, log)
	tr.now = func() time.Time { return time.Date(2025, time.May, 14, 18, 0, 0, 0, time.UTC) }
	return tr
}

// TestNotLoaded verifies every read fails before the first load.
func TestNotLoaded(t *testing.T) {
	tr := newTestTracker(t, &fakeLoader{}, &fakeSender{}, nil)
	ctx := context.Background()

	if _, err := tr.Current(ctx); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Current error = %v", err)
	}
	if _, err := tr.Skip(ctx); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Skip error = %v", err)
	}
	if _, err := tr.Complete(ctx); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Complete error = %v", err)
	}
	if _, err := tr.FindNext(ctx, 0); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("FindNext error = %v", err)
	}
	if _, err := tr.Dashboard(ctx); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Dashboard error = %v", err)
	}
	if _, err := tr.Status(ctx); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Status error = %v", err)
	}
}

// TestLoadAndCurrent verifies the initial group is the least recently trained.
func TestLoadAndCurrent(t *testing.T) {
	tr := newTestTracker(t, &fakeLoader{sessions: history()}, &fakeSender{}, nil)
	ctx := context.Background()
	if _, err := tr.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	v, err := tr.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.Group != models.Back {
		t.Errorf("group = %v, want Back", v.Group)
	}
	if v.Next == nil || v.Next.RowIndex != 3 {
		t.Errorf("next = %+v, want Back row 3", v.Next)
	}
	if v.DaysSinceLast != 13 {
		t.Errorf("days since last = %d, want 13", v.DaysSinceLast)
	}
	if !strings.Contains(v.Message, "13 days") || !strings.Contains(v.Message, "gym") {
		t.Errorf("message = %q, want a nudge", v.Message)
	}
}

// TestLoadFailureKeepsSnapshot verifies a failed reload leaves the previous data.
func TestLoadFailureKeepsSnapshot(t *testing.T) {
	loader := &fakeLoader{sessions: history()}
	tr := newTestTracker(t, loader, &fakeSender{}, nil)
	ctx := context.Background()
	if _, err := tr.Load(ctx); err != nil {
		t.Fatal(err)
	}
	before, _ := tr.Status(ctx)

	loader.err = errors.New("failed to fetch Legs sheet: status 500")
	if _, err := tr.Load(ctx); err == nil {
		t.Fatal("expected load error")
	}
	after, err := tr.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if after.LoadID != before.LoadID {
		t.Errorf("load id changed to %s after failed reload", after.LoadID)
	}
}

// TestSkipCycles verifies skip walks the groups and wraps.
func TestSkipCycles(t *testing.T) {
	tr := newTestTracker(t, &fakeLoader{sessions: history()}, &fakeSender{}, nil)
	ctx := context.Background()
	if _, err := tr.Load(ctx); err != nil {
		t.Fatal(err)
	}

	want := []models.Group{models.Legs, models.Chest, models.Back}
	for i, g := range want {
		v, err := tr.Skip(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if v.Group != g {
			t.Errorf("skip %d group = %v, want %v", i+1, v.Group, g)
		}
	}
}

// TestComplete verifies a confirmed completion patches state, resets the
// cursor and reports weekly progress.
func TestComplete(t *testing.T) {
	sender := &fakeSender{}
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	tr := newTestTracker(t, &fakeLoader{sessions: history()}, sender, j)
	ctx := context.Background()
	if _, err := tr.Load(ctx); err != nil {
		t.Fatal(err)
	}

	cv, err := tr.Complete(ctx)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].Group != models.Back || sender.sent[0].RowIndex != 3 {
		t.Errorf("sent = %+v", sender.sent)
	}
	if cv.Request.Date != "2025-05-14" {
		t.Errorf("date = %q", cv.Request.Date)
	}
	if !cv.Session.Completed {
		t.Error("returned session not completed")
	}
	// Only the just-completed Back session falls in the week of 2025-05-14.
	if cv.Progress.VolumeKg != 4100 {
		t.Errorf("week volume = %v, want 4100", cv.Progress.VolumeKg)
	}

	// Legs (May 8) is now the least recently trained group.
	v, err := tr.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.Group != models.Legs {
		t.Errorf("group after completion = %v, want Legs", v.Group)
	}

	entries, err := tr.Journal(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Kind != journal.KindCompletion || !entries[0].OK {
		t.Errorf("journal = %+v", entries)
	}
}

// TestCompleteFailure verifies a rejected write-back leaves the candidate open.
func TestCompleteFailure(t *testing.T) {
	sender := &fakeSender{err: &completion.WriteBackError{Message: "Sheet not found"}}
	tr := newTestTracker(t, &fakeLoader{sessions: history()}, sender, nil)
	ctx := context.Background()
	if _, err := tr.Load(ctx); err != nil {
		t.Fatal(err)
	}

	_, err := tr.Complete(ctx)
	var wbe *completion.WriteBackError
	if !errors.As(err, &wbe) {
		t.Fatalf("error = %v, want *WriteBackError", err)
	}

	v, _ := tr.Current(ctx)
	if v.Group != models.Back || v.Next == nil || v.Next.RowIndex != 3 || v.Next.Completed {
		t.Errorf("state changed after failure: %+v", v)
	}
}

// TestCompleteAllDone verifies completing a finished group is refused.
func TestCompleteAllDone(t *testing.T) {
	sessions := []models.Session{
		{Group: models.Chest, RowIndex: 2, Completed: true, Date: day(2025, time.May, 1)},
	}
	sender := &fakeSender{}
	tr := newTestTracker(t, &fakeLoader{sessions: sessions}, sender, nil)
	ctx := context.Background()
	if _, err := tr.Load(ctx); err != nil {
		t.Fatal(err)
	}

	// Back has never been completed and has no rows.
	v, _ := tr.Current(ctx)
	if !v.AllCompleted || v.Next != nil {
		t.Errorf("view = %+v, want all completed", v)
	}
	if _, err := tr.Complete(ctx); !errors.Is(err, ErrGroupCompleted) {
		t.Errorf("error = %v, want ErrGroupCompleted", err)
	}
	if len(sender.sent) != 0 {
		t.Error("nothing should be sent")
	}

	next, err := tr.FindNext(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if next.Session != nil || next.Remaining != 0 {
		t.Errorf("FindNext = %+v, want none", next)
	}
}

// TestFindNextPaging verifies offsets page through the global order.
func TestFindNextPaging(t *testing.T) {
	tr := newTestTracker(t, &fakeLoader{sessions: history()}, &fakeSender{}, nil)
	ctx := context.Background()
	if _, err := tr.Load(ctx); err != nil {
		t.Fatal(err)
	}

	want := []models.Group{models.Back, models.Legs, models.Chest}
	for offset, g := range want {
		v, err := tr.FindNext(ctx, offset)
		if err != nil {
			t.Fatal(err)
		}
		if v.Session == nil || v.Session.Group != g {
			t.Errorf("offset %d = %+v, want %v", offset, v.Session, g)
		}
		if v.Remaining != 3 {
			t.Errorf("remaining = %d, want 3", v.Remaining)
		}
	}
	st, _ := tr.Status(ctx)
	if st.Offset != 2 {
		t.Errorf("cursor offset = %d, want 2", st.Offset)
	}
}

// TestDashboard verifies the dashboard is built from the current snapshot.
func TestDashboard(t *testing.T) {
	tr := newTestTracker(t, &fakeLoader{sessions: history()}, &fakeSender{}, nil)
	ctx := context.Background()
	if _, err := tr.Load(ctx); err != nil {
		t.Fatal(err)
	}
	d, err := tr.Dashboard(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Charts.Volume.Datasets) != 3 {
		t.Errorf("datasets = %d, want 3", len(d.Charts.Volume.Datasets))
	}
	if d.Progress.VolumeKg != 0 || d.Progress.GoalKg != 12000 {
		t.Errorf("progress = %+v", d.Progress)
	}
}

// TestReminder verifies the reminder wording thresholds.
func TestReminder(t *testing.T) {
	if got := reminder(0); got != "" {
		t.Errorf("reminder(0) = %q, want empty", got)
	}
	if got := reminder(9); strings.Contains(got, "gym") {
		t.Errorf("reminder(9) = %q, want plain reminder", got)
	}
	if got := reminder(10); !strings.Contains(got, "gym") {
		t.Errorf("reminder(10) = %q, want nudge", got)
	}
}

// TestCompleteRowGoneAfterReload verifies that when a reload during the
// write-back drops the completed row, the view still reports that session
// and counts its volume.
func TestCompleteRowGoneAfterReload(t *testing.T) {
	loader := &fakeLoader{sessions: history()}
	sender := &fakeSender{}
	tr := newTestTracker(t, loader, sender, nil)
	ctx := context.Background()
	if _, err := tr.Load(ctx); err != nil {
		t.Fatal(err)
	}

	sender.onSend = func() {
		var kept []models.Session
		for _, s := range history() {
			if s.Group != models.Back || s.RowIndex != 3 {
				kept = append(kept, s)
			}
		}
		loader.sessions = kept
		if _, err := tr.Load(ctx); err != nil {
			t.Errorf("reload: %v", err)
		}
	}

	cv, err := tr.Complete(ctx)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if cv.Session.Group != models.Back || cv.Session.RowIndex != 3 {
		t.Errorf("session = %v/%d, want Back/3", cv.Session.Group, cv.Session.RowIndex)
	}
	if !cv.Session.Completed || cv.Session.Date == nil || !cv.Session.Date.Equal(*day(2025, time.May, 14)) {
		t.Errorf("session completion = %v %v", cv.Session.Completed, cv.Session.Date)
	}
	if cv.Progress.VolumeKg != 4100 {
		t.Errorf("week volume = %v, want 4100", cv.Progress.VolumeKg)
	}
}

// TestRetrain verifies the report is returned and the sheets are reloaded.
func TestRetrain(t *testing.T) {
	loader := &fakeLoader{sessions: history()}
	tr := newTestTracker(t, loader, &fakeSender{}, nil)
	ctx := context.Background()

	if _, err := tr.Retrain(ctx); !errors.Is(err, ErrRetrainDisabled) {
		t.Errorf("error without retrainer = %v, want ErrRetrainDisabled", err)
	}

	rt := &fakeRetrainer{report: "Success: Chest"}
	tr.SetRetrainer(rt)
	v, err := tr.Retrain(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.Report != "Success: Chest" || v.Result == nil {
		t.Errorf("view = %+v", v)
	}
	if loader.calls != 1 {
		t.Errorf("loads = %d, want 1", loader.calls)
	}
	if _, err := tr.Current(ctx); err != nil {
		t.Errorf("Current after retrain: %v", err)
	}
}

// TestRetrainFailureSkipsReload verifies a failed job leaves the sheets alone.
func TestRetrainFailureSkipsReload(t *testing.T) {
	loader := &fakeLoader{sessions: history()}
	tr := newTestTracker(t, loader, &fakeSender{}, nil)
	tr.SetRetrainer(&fakeRetrainer{err: errors.New("job down")})

	if _, err := tr.Retrain(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if loader.calls != 0 {
		t.Errorf("loads = %d, want 0", loader.calls)
	}
}

// TestCurrentCarriesDifficulty verifies the workout view exposes the
// predicted and logged difficulty of the proposed session.
func TestCurrentCarriesDifficulty(t *testing.T) {
	sessions := history()
	for i := range sessions {
		if sessions[i].Group == models.Back && sessions[i].RowIndex == 3 {
			sessions[i].PredictedDifficulty = models.KnownAmount(6.5)
			sessions[i].Exercises = []models.Exercise{{Name: "Row", WeightKg: models.KnownAmount(60), Difficulty: models.KnownAmount(7)}}
		}
	}
	tr := newTestTracker(t, &fakeLoader{sessions: sessions}, &fakeSender{}, nil)
	ctx := context.Background()
	if _, err := tr.Load(ctx); err != nil {
		t.Fatal(err)
	}
	v, err := tr.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.Next == nil || v.Next.PredictedDifficulty != models.KnownAmount(6.5) {
		t.Fatalf("next = %+v", v.Next)
	}
	if got := v.Next.Exercises[0].Difficulty; got != models.KnownAmount(7) {
		t.Errorf("exercise difficulty = %v, want 7", got)
	}
}
