// Command piju is the self-hosted music server's entry point: it parses
// -c/-d flags, loads the JSON5 config file, opens the catalog database,
// wires the worker/player/HTTP layers together, and serves until it
// receives SIGINT/SIGTERM.
//
// Grounded on oshokin-zvuk-grabber/cmd/root.go for the cobra root-command +
// signal.NotifyContext shutdown shape, and on
// arung-agamani-denpa-radio/main.go for the structured-logging setup this
// repo's ambient stack carries forward unchanged.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pijudev/piju/internal/catalog"
	"github.com/pijudev/piju/internal/config"
	"github.com/pijudev/piju/internal/download"
	"github.com/pijudev/piju/internal/httpapi"
	"github.com/pijudev/piju/internal/player"
	"github.com/pijudev/piju/internal/scanner"
	"github.com/pijudev/piju/internal/snapshot"
	"github.com/pijudev/piju/internal/tidy"
	"github.com/pijudev/piju/internal/worker"
)

var (
	configFlag   string
	databaseFlag string
)

var rootCmd = &cobra.Command{
	Use:   "piju",
	Short: "Self-hosted music server: library indexing, playback and worker control plane.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configFlag, "config", "c", "", "path to JSON5 config file (default $PIJU_CONFIG or $HOME/.pijudrc)")
	rootCmd.Flags().StringVarP(&databaseFlag, "database", "d", "", "path to the sqlite catalog database (must exist)")
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// .env is optional local-dev convenience layered under the JSON5 config
	// file, never required (§6 "[NEW] CLI & config").
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Debug("no .env file loaded", "error", err)
	}

	signals := []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("piju exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(config.Flags{ConfigPath: configFlag, DatabasePath: databaseFlag})
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	slog.Info("piju starting",
		"config", cfg.ConfigPath,
		"database", cfg.DatabasePath,
		"music_dir", cfg.MusicDir,
		"download_dir", cfg.DownloadDir,
	)

	store, err := catalog.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing catalog store", "error", err)
		}
	}()

	registry := download.NewRegistry()
	downloader := download.New(download.NewExternalFetcher(), registry)

	tagReader := scanner.NewDefaultTagReader()
	libraryScanner := scanner.New(store, tagReader)
	tidySweeps := tidy.New(store)

	// srv and snapshotBuilder are filled in below; the callbacks close over
	// these variables rather than their (not-yet-constructed) values, since
	// the coordinator/worker/snapshot builder form a cycle of callbacks.
	var srv *httpapi.Server
	var snapshotBuilder *snapshot.Builder

	onStateChange := func() {
		if srv != nil {
			srv.Broadcast()
		}
	}

	poller := player.NewPoller()
	filePlayer := player.NewFilePlayer(nil)
	streamPlayer := player.NewStreamPlayer(poller, nil)

	jobQueue := worker.New(libraryScanner, tidySweeps, downloader, registry, func(status string) {
		if snapshotBuilder != nil {
			snapshotBuilder.SetWorkerStatus(status)
		}
		onStateChange()
	})

	coordinator := player.NewCoordinator(filePlayer, streamPlayer, store, jobQueue, registry, cfg.DownloadDir, onStateChange)
	snapshotBuilder = snapshot.NewBuilder(store, coordinator)

	srv = httpapi.NewServer(store, coordinator, snapshotBuilder, jobQueue, registry, cfg.MusicDir)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	go poller.Start(runCtx)
	go jobQueue.Run(runCtx)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler: srv.Router(),
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-serveErr:
		cancelRun()
		return err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown", "error", err)
	}
	cancelRun()

	return nil
}
