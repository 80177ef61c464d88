package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/claude/repcycle/internal/ingest"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })

	base := time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC)
	var n int
	j.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return j
}

// TestRecordAndRecent verifies entries come back newest first with their fields.
func TestRecordAndRecent(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()

	result := &ingest.Result{
		LoadID:     "load-1",
		DurationMs: 120,
		Groups:     []ingest.GroupResult{{Group: "Chest", RowsRead: 4, RowsDropped: 1}},
	}
	if err := j.RecordLoad(ctx, result, nil); err != nil {
		t.Fatalf("RecordLoad: %v", err)
	}
	if err := j.RecordCompletion(ctx, Completion{LoadID: "load-1", Group: "Legs", RowIndex: 3, Date: "2025-05-01"}); err != nil {
		t.Fatalf("RecordCompletion: %v", err)
	}
	if err := j.RecordCompletion(ctx, Completion{LoadID: "load-1", Group: "Legs", RowIndex: 4, Err: errors.New("Sheet not found")}); err != nil {
		t.Fatalf("RecordCompletion: %v", err)
	}

	entries, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	failed := entries[0]
	if failed.Kind != KindCompletion || failed.OK || failed.Detail != "Sheet not found" || failed.RowIndex != 4 {
		t.Errorf("newest entry = %+v", failed)
	}
	ok := entries[1]
	if !ok.OK || ok.Group != "Legs" || ok.Date != "2025-05-01" {
		t.Errorf("completion entry = %+v", ok)
	}
	load := entries[2]
	if load.Kind != KindLoad || load.LoadID != "load-1" || load.Detail != "4 sessions, 1 dropped rows, 120 ms" {
		t.Errorf("load entry = %+v", load)
	}
	if !load.CreatedAt.Before(ok.CreatedAt) {
		t.Errorf("created_at not ordered: %v >= %v", load.CreatedAt, ok.CreatedAt)
	}
}

// TestRecordFailedLoad verifies failed loads are kept with their error.
func TestRecordFailedLoad(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()

	if err := j.RecordLoad(ctx, nil, errors.New("failed to fetch Back sheet: status 500")); err != nil {
		t.Fatalf("RecordLoad: %v", err)
	}
	entries, err := j.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].OK || entries[0].LoadID != "" {
		t.Errorf("entries = %+v", entries)
	}
}

// TestRecentLimit verifies the limit is applied.
func TestRecentLimit(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	for i := range 5 {
		if err := j.RecordCompletion(ctx, Completion{Group: "Chest", RowIndex: i + 2}); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].RowIndex != 6 {
		t.Errorf("entries = %+v", entries)
	}
}

// TestReopenKeepsEntries verifies the journal survives a restart.
func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.RecordCompletion(context.Background(), Completion{Group: "Back", RowIndex: 2}); err != nil {
		t.Fatal(err)
	}
	j.Close()

	j, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	entries, err := j.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("entries = %d, want 1", len(entries))
	}
}
