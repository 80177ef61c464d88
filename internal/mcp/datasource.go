package mcp

import (
	"context"

	"github.com/claude/repcycle/internal/ingest"
	"github.com/claude/repcycle/internal/journal"
	"github.com/claude/repcycle/internal/tracker"
)

// DataSource abstracts the workout state for MCP tools. Both *tracker.Tracker
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	Load(ctx context.Context) (*ingest.Result, error)
	Current(ctx context.Context) (*tracker.WorkoutView, error)
	Skip(ctx context.Context) (*tracker.WorkoutView, error)
	Complete(ctx context.Context) (*tracker.CompletionView, error)
	FindNext(ctx context.Context, offset int) (*tracker.NextView, error)
	Dashboard(ctx context.Context) (*tracker.DashboardView, error)
	Status(ctx context.Context) (*tracker.StatusView, error)
	Journal(ctx context.Context, limit int) ([]journal.Entry, error)
	Retrain(ctx context.Context) (*tracker.RetrainView, error)
}

// Compile-time check: *tracker.Tracker satisfies DataSource.
var _ DataSource = (*tracker.Tracker)(nil)
