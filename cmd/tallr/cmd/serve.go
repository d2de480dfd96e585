package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tallr-app/tallr/internal/api"
	"github.com/tallr-app/tallr/internal/auth"
	"github.com/tallr-app/tallr/internal/events"
	"github.com/tallr-app/tallr/internal/persist"
	"github.com/tallr-app/tallr/internal/setup"
	"github.com/tallr-app/tallr/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the session tracking daemon",
	Long: `Start the loopback daemon that wrappers and hooks report to.

The daemon owns the session snapshot: it persists every change to the data
directory, streams updates over /events, and sweeps finished sessions on a
schedule.

Examples:
  # Start with defaults (127.0.0.1:4317)
  tallr serve

  # Start on another loopback port
  tallr serve --port 5050`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1",
		"loopback address to bind to")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 4317,
		"port to listen on")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// Resolve the shared secret up front so the token file exists before
	// the watcher starts, and so the log sanitizer knows what to redact.
	gate := auth.NewGate(tokenFilePath(cfg), logger, auth.WithResolveHook(func(token string) {
		logger.Sanitizer().AddSecret(token)
	}))
	if _, err := gate.Token(); err != nil {
		return fmt.Errorf("resolving auth token: %w", err)
	}

	bus := events.NewBus(cfg.Events.Buffer)
	defer bus.Close()
	publisher := events.NewPublisher(bus, nil, logger)

	persister := persist.New(filepath.Join(cfg.Data.Dir, persist.SnapshotFileName), logger)

	st := store.New(persister,
		store.WithPusher(publisher),
		store.WithLogger(logger),
	)
	st.Load()

	sweeper, err := store.NewSweeper(store.SweeperConfig{
		Store:      st,
		Logger:     logger,
		Schedule:   cfg.Cleanup.Schedule,
		DoneGrace:  cfg.Cleanup.DoneGrace,
		IdleMax:    cfg.Cleanup.IdleMax,
		RemoveIdle: cfg.Cleanup.IdleEnabled,
	})
	if err != nil {
		return fmt.Errorf("creating sweeper: %w", err)
	}

	server := api.NewServer(st, gate, publisher, setup.NewManager(cfg.Data.Dir),
		api.WithLogger(logger.WithComponent("api")),
		api.WithDebug(cfg.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper.Start(ctx)
	defer sweeper.Stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(ctx, cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Pick up out-of-band token rotation without a restart.
	watcher, err := auth.NewWatcher(gate, logger)
	if err != nil {
		logger.Warn("token watcher unavailable", slog.String("error", err.Error()))
	} else {
		defer watcher.Close()
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	logger.Info("daemon ready",
		slog.String("addr", cfg.Server.Addr()),
		slog.String("data_dir", cfg.Data.Dir),
		slog.Bool("debug", cfg.Debug),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("daemon stopped")
	return nil
}
