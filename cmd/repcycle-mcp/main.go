package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/repcycle/internal/completion"
	"github.com/claude/repcycle/internal/config"
	"github.com/claude/repcycle/internal/difficulty"
	"github.com/claude/repcycle/internal/ingest/sheets"
	"github.com/claude/repcycle/internal/journal"
	"github.com/claude/repcycle/internal/mcp"
	"github.com/claude/repcycle/internal/tracker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "base URL of a running repcycle server (remote mode)")
	apiKey := flag.String("api-key", "", "API key for mutating requests in remote mode")
	configPath := flag.String("config", "config.yaml", "path to config file (local mode)")
	flag.Parse()

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource
	if *serverURL != "" {
		ds = mcp.NewHTTPClient(*serverURL, *apiKey)
		log.Info("repcycle-mcp remote mode", "server", *serverURL)
	} else {
		t, closeFn, err := localTracker(*configPath, log)
		if err != nil {
			log.Error("local mode setup failed", "error", err)
			os.Exit(1)
		}
		defer closeFn()
		ds = t
		log.Info("repcycle-mcp local mode", "config", *configPath)
	}

	if err := mcpserver.ServeStdio(mcp.New(ds, Version, log)); err != nil {
		log.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}

// localTracker builds an in-process tracker from the config file and runs
// the first load. A failed load is logged; reload_workouts can retry it.
func localTracker(path string, log *slog.Logger) (*tracker.Tracker, func(), error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	closeFn := func() {}
	var jrnl tracker.Journal
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open journal: %w", err)
		}
		closeFn = func() { _ = j.Close() }
		jrnl = j
	}

	fetcher := sheets.NewFetcher(cfg.Sheets.URLs(), log)
	recorder := completion.NewRecorder(completion.NewClient(cfg.WriteBack.URL, cfg.WriteBack.Timeout), log)
	t := tracker.New(fetcher, recorder, jrnl, cfg.Goals.WeeklyVolumeKg, log)
	if cfg.Difficulty.RetrainURL != "" {
		t.SetRetrainer(difficulty.NewClient(cfg.Difficulty.RetrainURL, cfg.Difficulty.Timeout))
	}

	if _, err := t.Load(context.Background()); err != nil {
		log.Warn("initial load failed", "error", err)
	}
	return t, closeFn, nil
}
