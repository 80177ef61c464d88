package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/repcycle/internal/calendar"
	"github.com/claude/repcycle/internal/models"
	"github.com/claude/repcycle/internal/observability"
)

// ErrInFlight is returned while another completion is waiting for confirmation.
var ErrInFlight = errors.New("a completion is already in progress")

// Sender delivers a completion request to the sheet owner.
type Sender interface {
	Send(ctx context.Context, req Request) error
}

// Recorder turns a confirmed write-back into a patched snapshot. At most one
// write-back is in flight at a time.
type Recorder struct {
	sender Sender
	log    *slog.Logger
	busy   sync.Mutex
}

// NewRecorder creates a Recorder sending through sender.
func NewRecorder(sender Sender, log *slog.Logger) *Recorder {
	return &Recorder{sender: sender, log: log}
}

// Record marks session completed today. On success it returns snap patched
// with the completion; on failure snap is left as it was and the error is
// returned unchanged.
func (r *Recorder) Record(ctx context.Context, snap *models.Snapshot, session models.Session, now time.Time) (*models.Snapshot, Request, error) {
	req := NewRequest(session, now)
	if _, ok := snap.Find(session.Key()); !ok {
		return snap, req, fmt.Errorf("session %s row %d is not part of the current load", session.Group, session.RowIndex)
	}
	if session.Completed {
		return snap, req, fmt.Errorf("session %s row %d is already completed", session.Group, session.RowIndex)
	}

	if !r.busy.TryLock() {
		return snap, req, ErrInFlight
	}
	defer r.busy.Unlock()

	r.log.Info("recording completion", "group", req.Group, "row", req.RowIndex, "date", req.Date)
	err := r.sender.Send(ctx, req)
	observability.RecordWriteBack(req.Group.String(), err)
	if err != nil {
		r.log.Warn("write-back failed", "group", req.Group, "row", req.RowIndex, "error", err)
		return snap, req, err
	}

	patched, _ := snap.WithCompleted(session.Key(), calendar.Today(now))
	return patched, req, nil
}
