package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ticketboard-server/internal/config"
	"github.com/vovakirdan/ticketboard-server/internal/core"
	"github.com/vovakirdan/ticketboard-server/internal/service/tickets"
	"github.com/vovakirdan/ticketboard-server/internal/store"
	"github.com/vovakirdan/ticketboard-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/ticketboard-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	opts := []core.Option{
		core.WithCapacity(cfg.WindowCapacity),
		core.WithSnapshotOnConnect(cfg.PushSnapshotOnConnect),
		core.WithCommandQueue(cfg.HubQueue),
		core.WithLogger(logger),
	}

	// Persistence is optional; an empty path keeps the window in memory only.
	var st store.Store
	if cfg.DatabasePath != "" {
		sqliteStore, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		st = sqliteStore
		opts = append(opts, core.WithWindowStore(st))
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")
	}

	hub := core.NewHub(opts...)
	desk := tickets.New(hub)
	server := transporthttp.NewServer(hub, desk, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Int("window", a.hub.Capacity()).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		stopHub()
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup waits for the hub to stop, then closes database and other resources.
func (a *App) cleanup() {
	select {
	case <-a.hub.Done():
	case <-time.After(a.shutdownTimeout):
		a.log.Warn().Msg("hub did not stop in time")
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
