package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/claude/repcycle/internal/completion"
	"github.com/claude/repcycle/internal/config"
	"github.com/claude/repcycle/internal/difficulty"
	"github.com/claude/repcycle/internal/ingest/sheets"
	"github.com/claude/repcycle/internal/journal"
	"github.com/claude/repcycle/internal/mcp"
	"github.com/claude/repcycle/internal/server"
	"github.com/claude/repcycle/internal/tracker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("repcycle starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Open journal
	var jrnl tracker.Journal
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			log.Error("failed to open journal", "path", cfg.Journal.Path, "error", err)
			os.Exit(1)
		}
		defer j.Close()
		jrnl = j
		log.Info("journal opened", "path", cfg.Journal.Path)
	}

	fetcher := sheets.NewFetcher(cfg.Sheets.URLs(), log)
	recorder := completion.NewRecorder(completion.NewClient(cfg.WriteBack.URL, cfg.WriteBack.Timeout), log)
	t := tracker.New(fetcher, recorder, jrnl, cfg.Goals.WeeklyVolumeKg, log)
	if cfg.Difficulty.RetrainURL != "" {
		t.SetRetrainer(difficulty.NewClient(cfg.Difficulty.RetrainURL, cfg.Difficulty.Timeout))
	}

	// Initial load. A failure leaves the API answering 503 until a reload succeeds.
	ctx := context.Background()
	if result, err := t.Load(ctx); err != nil {
		log.Error("initial load failed", "error", err)
	} else {
		log.Info("workouts loaded", "load_id", result.LoadID, "sessions", result.Sessions())
	}

	// Create server
	srv := server.New(t, cfg.Auth.APIKey, log)
	srv.Mount("/mcp", mcpserver.NewStreamableHTTPServer(mcp.New(t, Version, log)))

	// Listen on the tailnet or plain TCP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
