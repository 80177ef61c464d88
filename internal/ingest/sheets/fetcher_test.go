package sheets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claude/repcycle/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newSheetServer serves CSV bodies keyed by path. Paths missing from the map
// answer with the given status.
func newSheetServer(t *testing.T, bodies map[string]string, status map[string]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("_") == "" {
			t.Errorf("%s: missing cache-busting parameter", r.URL.Path)
		}
		if code, ok := status[r.URL.Path]; ok {
			w.WriteHeader(code)
			return
		}
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, body)
	}))
}

func sheetURLs(base string) map[models.Group]string {
	return map[models.Group]string{
		models.Chest: base + "/chest?output=csv",
		models.Back:  base + "/back?output=csv",
		models.Legs:  base + "/legs?output=csv",
	}
}

// TestFetchAll verifies that all three sheets are fetched and assembled into one snapshot.
func TestFetchAll(t *testing.T) {
	ts := newSheetServer(t, map[string]string{
		"/chest": chestCSV,
		"/back":  "Datum,Completed_workout,Row_KG\n01/03/2025,ja,40\n,nej,42\n",
		"/legs":  "Datum,Completed_workout,Squat_KG\n,nej,100\nbroken\n",
	}, nil)
	defer ts.Close()

	f := NewFetcher(sheetURLs(ts.URL), discardLogger())
	snap, result, err := f.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if got := len(snap.Sessions(models.Chest)); got != 4 {
		t.Errorf("chest sessions = %d, want 4", got)
	}
	if got := len(snap.Sessions(models.Back)); got != 2 {
		t.Errorf("back sessions = %d, want 2", got)
	}
	if got := len(snap.Sessions(models.Legs)); got != 1 {
		t.Errorf("legs sessions = %d, want 1", got)
	}
	if result.Sessions() != 7 {
		t.Errorf("result sessions = %d, want 7", result.Sessions())
	}
	if result.Dropped() != 1 {
		t.Errorf("result dropped = %d, want 1", result.Dropped())
	}
	if result.LoadID != snap.LoadID.String() {
		t.Errorf("result load id = %q, want %q", result.LoadID, snap.LoadID)
	}
	if result.Groups[0].Completed != 2 || result.Groups[0].Remaining != 2 {
		t.Errorf("chest counts = %+v, want 2 completed / 2 remaining", result.Groups[0])
	}
}

// TestFetchAllAbortsOnFailure verifies that a single failing sheet fails the
// whole load with a FetchError naming the group.
func TestFetchAllAbortsOnFailure(t *testing.T) {
	ts := newSheetServer(t, map[string]string{
		"/chest": chestCSV,
		"/legs":  "Datum,Completed_workout\n",
	}, map[string]int{"/back": http.StatusInternalServerError})
	defer ts.Close()

	f := NewFetcher(sheetURLs(ts.URL), discardLogger())
	snap, _, err := f.FetchAll(context.Background())
	if err == nil {
		t.Fatal("expected error for failing sheet")
	}
	if snap != nil {
		t.Error("snapshot should be nil on failure")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %T, want *FetchError", err)
	}
	if fe.Group != models.Back {
		t.Errorf("failed group = %v, want Back", fe.Group)
	}
	if fe.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", fe.StatusCode)
	}
}

// TestFetchTableUnreachable verifies transport failures are reported as FetchError.
func TestFetchTableUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	f := NewFetcher(map[models.Group]string{models.Legs: url + "/legs"}, discardLogger())
	_, err := f.FetchTable(context.Background(), models.Legs)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fe.Err == nil {
		t.Error("expected wrapped transport error")
	}
}

// TestFetchTableMissingURL verifies a group without a configured URL fails the fetch.
func TestFetchTableMissingURL(t *testing.T) {
	f := NewFetcher(map[models.Group]string{}, discardLogger())
	if _, err := f.FetchTable(context.Background(), models.Chest); err == nil {
		t.Fatal("expected error for missing URL")
	}
}
