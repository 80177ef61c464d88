package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGetCurrentWorkout = mcp.NewTool("get_current_workout",
	mcp.WithDescription("Show the next session of the current group: exercises with weight, reps, sets and volume, the last completed session of the group and days since it."),
)

var toolSkipWorkout = mcp.NewTool("skip_workout",
	mcp.WithDescription("Move to the next group in Chest, Back, Legs order without completing anything. Returns the new group's next session."),
)

var toolCompleteWorkout = mcp.NewTool("complete_workout",
	mcp.WithDescription("Mark the current session as completed today in its sheet. Returns the write-back request and the week's volume against the goal."),
)

var toolFindNextWorkout = mcp.NewTool("find_next_workout",
	mcp.WithDescription("List open sessions across all groups, least recently trained group first. Use offset to page through alternatives."),
	mcp.WithNumber("offset", mcp.Description("Position in the priority order, starting at 0. Defaults to 0.")),
)

var toolGetDashboard = mcp.NewTool("get_dashboard",
	mcp.WithDescription("Weekly volume per group, lifetime session counts, average sessions per week per year and this week's goal progress."),
)

var toolReloadWorkouts = mcp.NewTool("reload_workouts",
	mcp.WithDescription("Fetch all three sheets again and reset the rotation to the least recently trained group."),
)

var toolGetJournal = mcp.NewTool("get_journal",
	mcp.WithDescription("Recent sheet loads and completion attempts, newest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of entries. Defaults to 20.")),
)

var toolRetrainDifficulty = mcp.NewTool("retrain_difficulty",
	mcp.WithDescription("Retrain the per-group difficulty model from logged difficulty ratings, write new predictions into the sheets and reload. Returns the training report."),
)

// --- Tool handlers ---

func toolError(action string, err error) *mcp.CallToolResult {
	if IsNotLoaded(err) {
		return mcp.NewToolResultError("workouts are not loaded yet; call reload_workouts first")
	}
	if IsRetrainDisabled(err) {
		return mcp.NewToolResultError("no difficulty retrain job is configured on the server")
	}
	return mcp.NewToolResultError(action + " failed: " + err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getCurrentWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.ds.Current(ctx)
	if err != nil {
		h.log.Error("mcp get_current_workout", "error", err)
		return toolError("query", err), nil
	}
	return jsonResult(v)
}

func (h *handlers) skipWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.ds.Skip(ctx)
	if err != nil {
		h.log.Error("mcp skip_workout", "error", err)
		return toolError("skip", err), nil
	}
	return jsonResult(v)
}

func (h *handlers) completeWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.ds.Complete(ctx)
	if err != nil {
		h.log.Error("mcp complete_workout", "error", err)
		return toolError("completion", err), nil
	}
	return jsonResult(v)
}

func (h *handlers) findNextWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	offset := req.GetInt("offset", 0)
	if offset < 0 {
		return mcp.NewToolResultError("offset must not be negative"), nil
	}
	v, err := h.ds.FindNext(ctx, offset)
	if err != nil {
		h.log.Error("mcp find_next_workout", "error", err)
		return toolError("query", err), nil
	}
	return jsonResult(v)
}

func (h *handlers) getDashboard(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := h.ds.Dashboard(ctx)
	if err != nil {
		h.log.Error("mcp get_dashboard", "error", err)
		return toolError("query", err), nil
	}
	return jsonResult(d)
}

func (h *handlers) reloadWorkouts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.ds.Load(ctx)
	if err != nil {
		h.log.Error("mcp reload_workouts", "error", err)
		return toolError("reload", err), nil
	}
	return jsonResult(result)
}

func (h *handlers) getJournal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}
	entries, err := h.ds.Journal(ctx, limit)
	if err != nil {
		h.log.Error("mcp get_journal", "error", err)
		return toolError("query", err), nil
	}
	return jsonResult(entries)
}

func (h *handlers) retrainDifficulty(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.ds.Retrain(ctx)
	if err != nil {
		h.log.Error("mcp retrain_difficulty", "error", err)
		return toolError("retrain", err), nil
	}
	return jsonResult(v)
}
