package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("repcycle", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("repcycle workout rotation server. Shows the next strength session in the Chest, Back, Legs rotation, skips or completes it, and reports weekly volume against the goal."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetCurrentWorkout, Handler: h.getCurrentWorkout},
		server.ServerTool{Tool: toolSkipWorkout, Handler: h.skipWorkout},
		server.ServerTool{Tool: toolCompleteWorkout, Handler: h.completeWorkout},
		server.ServerTool{Tool: toolFindNextWorkout, Handler: h.findNextWorkout},
		server.ServerTool{Tool: toolGetDashboard, Handler: h.getDashboard},
		server.ServerTool{Tool: toolReloadWorkouts, Handler: h.reloadWorkouts},
		server.ServerTool{Tool: toolGetJournal, Handler: h.getJournal},
		server.ServerTool{Tool: toolRetrainDifficulty, Handler: h.retrainDifficulty},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resStatus, Handler: h.status},
		server.ServerResource{Resource: resCurrentWorkout, Handler: h.currentWorkout},
		server.ServerResource{Resource: resWeeklyProgress, Handler: h.weeklyProgress},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resStatus = mcp.NewResource(
	"repcycle://status",
	"Load Status",
	mcp.WithResourceDescription("Current sheet load, per-group last completed dates and rotation cursor"),
	mcp.WithMIMEType("application/json"),
)

var resCurrentWorkout = mcp.NewResource(
	"repcycle://current_workout",
	"Current Workout",
	mcp.WithResourceDescription("The session proposed for the current group, with days since the group was last trained"),
	mcp.WithMIMEType("application/json"),
)

var resWeeklyProgress = mcp.NewResource(
	"repcycle://weekly_progress",
	"Weekly Progress",
	mcp.WithResourceDescription("Volume lifted in the current ISO week against the weekly goal"),
	mcp.WithMIMEType("application/json"),
)
