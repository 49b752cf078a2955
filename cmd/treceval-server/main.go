// Command treceval-server runs the HTTP evaluation service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/terrierteam/treceval/internal/bus"
	"github.com/terrierteam/treceval/internal/config"
	"github.com/terrierteam/treceval/internal/leaderboard"
	"github.com/terrierteam/treceval/internal/pkg/logger"
	"github.com/terrierteam/treceval/internal/server"
	"github.com/terrierteam/treceval/internal/watch"
)

// Build information, set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "treceval-server",
	Short: "HTTP evaluation service",
	Long: `treceval-server exposes run evaluation, qrel management and a
leaderboard over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServer,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("treceval-server %s (commit %s, built %s)\n", version, commit, date)
		},
	})
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info("Starting treceval-server",
		"version", version,
		"engine", cfg.Engine.Name,
		"bus", cfg.Bus.Type,
		"leaderboard", cfg.Leaderboard.Backend,
	)

	eventBus, err := bus.New(cfg.Bus)
	if err != nil {
		return fmt.Errorf("creating event bus: %w", err)
	}
	defer eventBus.Close()

	board, err := leaderboard.New(cfg.Leaderboard)
	if err != nil {
		return fmt.Errorf("creating leaderboard store: %w", err)
	}
	defer board.Close()

	srv, err := server.New(cfg, log, eventBus, board, version)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if cfg.Qrels.Dir != "" {
		watcher, err := watch.New(cfg.Qrels.Dir, srv, log)
		if err != nil {
			return fmt.Errorf("creating qrels watcher: %w", err)
		}
		if err := watcher.LoadAll(); err != nil {
			return fmt.Errorf("loading qrels: %w", err)
		}
		if cfg.Qrels.Watch {
			watchCtx, stopWatch := context.WithCancel(context.Background())
			defer stopWatch()
			watcher.Start(watchCtx)
		} else {
			watcher.Close()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigCh:
		log.Info("Received signal, shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
