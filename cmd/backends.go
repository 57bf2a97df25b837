package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kozaktomas/names-to-faces/internal/app"
	"github.com/kozaktomas/names-to-faces/internal/auth"
	"github.com/kozaktomas/names-to-faces/internal/config"
	"github.com/kozaktomas/names-to-faces/internal/constants"
	"github.com/kozaktomas/names-to-faces/internal/imaging"
	"github.com/kozaktomas/names-to-faces/internal/loop"
	"github.com/kozaktomas/names-to-faces/internal/persistence"
	"github.com/kozaktomas/names-to-faces/internal/storage"
	"github.com/kozaktomas/names-to-faces/internal/storage/files"
	"github.com/kozaktomas/names-to-faces/internal/storage/mariadb"
	"github.com/kozaktomas/names-to-faces/internal/storage/postgres"
	"github.com/kozaktomas/names-to-faces/internal/storage/sqlite"
)

// errSuperseded is returned when another lifecycle event replaced a pending unlock.
var errSuperseded = errors.New("authentication superseded")

// openBackend opens the slot and secret backend named in cfg.Backend.
// The files backend reuses the image store.
func openBackend(ctx context.Context, cfg *config.Config, images *files.Store) (storage.Backend, error) {
	switch cfg.Backend {
	case config.BackendFiles:
		return images, nil
	case config.BackendSQLite:
		return sqlite.New(cfg.SQLite.Path)
	case config.BackendPostgres:
		if cfg.Database.URL == "" {
			return nil, errors.New("DATABASE_URL environment variable is required for the postgres backend")
		}
		return postgres.Open(ctx, &cfg.Database)
	case config.BackendMariaDB:
		return mariadb.New(cfg.MariaDB.DSN)
	default:
		return nil, fmt.Errorf("unknown backend %q (want files, sqlite, postgres or mariadb)", cfg.Backend)
	}
}

// appRuntime is the app core running on its own main loop.
type appRuntime struct {
	cfg     *config.Config
	backend storage.Backend
	loop    *loop.Loop
	app     *app.App
	logger  *slog.Logger
	stop    context.CancelFunc
}

// newRuntime opens storage, builds the app core and starts the main loop.
func newRuntime(ctx context.Context, cfg *config.Config, presenter app.Presenter) (*appRuntime, error) {
	logger := slog.Default()

	images, err := files.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening data directory: %w", err)
	}
	backend, err := openBackend(ctx, cfg, images)
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", cfg.Backend, err)
	}
	logger.Debug("storage ready", "backend", cfg.Backend, "data_dir", cfg.DataDir)

	l := loop.New(constants.LoopQueueSize)
	loopCtx, stop := context.WithCancel(context.Background())
	go l.Run(loopCtx)

	adapter := persistence.New(backend, images, persistence.Options{
		Slot: cfg.Defaults.Slots.People,
		Image: imaging.Options{
			Quality: cfg.Defaults.Image.Quality,
			MaxSize: cfg.Defaults.Image.MaxSize,
		},
		PlaceholderSize: cfg.Defaults.Image.PlaceholderSize,
		Logger:          logger,
	})
	gate := auth.NewGate(auth.NewBiometric(cfg.Biometric.Command), backend, l, auth.Options{
		Slot:   cfg.Defaults.Slots.Password,
		Reason: cfg.Defaults.Auth.Reason,
		Logger: logger,
	})

	return &appRuntime{
		cfg:     cfg,
		backend: backend,
		loop:    l,
		app:     app.New(adapter, gate, presenter, logger),
		logger:  logger,
		stop:    stop,
	}, nil
}

// do runs fn on the main loop.
func (rt *appRuntime) do(ctx context.Context, fn func(a *app.App)) error {
	return rt.loop.Do(ctx, func() { fn(rt.app) })
}

// unlock sends a foreground event and waits for the gate.
func (rt *appRuntime) unlock(ctx context.Context, p auth.Prompter) (auth.Outcome, error) {
	var outcomes <-chan auth.Outcome
	if err := rt.do(ctx, func(a *app.App) { outcomes = a.OnAppForeground(ctx, p) }); err != nil {
		return auth.Outcome{}, err
	}
	select {
	case o, ok := <-outcomes:
		if !ok {
			return auth.Outcome{}, errSuperseded
		}
		if !o.Unlocked() {
			return o, fmt.Errorf("still locked: %w", o.Err)
		}
		return o, nil
	case <-ctx.Done():
		return auth.Outcome{}, ctx.Err()
	}
}

// Close sends a background event, stops the loop and closes storage.
func (rt *appRuntime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := rt.do(ctx, func(a *app.App) { a.OnAppBackground(ctx) }); err != nil {
		rt.logger.Warn("background on close failed", "error", err)
	}
	rt.stop()
	<-rt.loop.Done()
	if err := rt.backend.Close(); err != nil {
		rt.logger.Warn("closing storage failed", "error", err)
	}
}
