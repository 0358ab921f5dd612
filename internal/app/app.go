// Package app assembles the dependencies of one annotext invocation from the
// loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"

	"github.com/heartmarshall/annotext/internal/adapter/postgres"
	"github.com/heartmarshall/annotext/internal/adapter/postgres/document"
	"github.com/heartmarshall/annotext/internal/adapter/sheets/google"
	"github.com/heartmarshall/annotext/internal/adapter/sheets/workbook"
	"github.com/heartmarshall/annotext/internal/app/migrator"
	"github.com/heartmarshall/annotext/internal/config"
	"github.com/heartmarshall/annotext/internal/ratelimit"
)

// ErrLocked is returned by Lock when another run holds the lock file.
var ErrLocked = errors.New("another annotext run holds the lock")

// App holds the configuration and the resources opened for one command.
type App struct {
	cfg  *config.Config
	log  *slog.Logger
	pool *pgxpool.Pool
	lock *flock.Flock
}

// New creates an App. Resources are opened on demand and released by Close.
func New(cfg *config.Config, log *slog.Logger) *App {
	return &App{cfg: cfg, log: log}
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config { return a.cfg }

// SheetSource returns the workbook source when a workbook directory is
// configured, otherwise the Sheets API client.
func (a *App) SheetSource() migrator.SheetSource {
	s := a.cfg.Sheets
	if s.Offline() {
		return workbook.NewSource(s.WorkbookDir, a.log)
	}
	return google.NewClientWithURL(s.BaseURL, s.APIKey, s.Timeout, a.log)
}

// Migrator builds a migrator over the configured sheet source. store may be
// nil for validation runs.
func (a *App) Migrator(store migrator.Store) *migrator.Migrator {
	m := a.cfg.Migration
	return migrator.NewMigrator(a.log, a.SheetSource(), store,
		ratelimit.NewInterval(m.FetchInterval),
		migrator.Config{
			KeepGlottalStops: m.KeepGlottalStops,
			IndexFile:        m.IndexFile,
			IndexSheetID:     a.cfg.Sheets.IndexSheetID,
		},
	)
}

// OpenStore connects to the database and returns the document repository.
func (a *App) OpenStore(ctx context.Context) (*document.Repo, error) {
	if err := a.cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	if a.pool == nil {
		pool, err := postgres.NewPool(ctx, a.cfg.Database)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		a.log.Debug("database connected", slog.Int("max_conns", int(a.cfg.Database.MaxConns)))
	}
	return document.New(a.pool, postgres.NewTxManager(a.pool), a.cfg.Migration.RelationBatchSize), nil
}

// MigrateSchema applies the embedded schema migrations.
func (a *App) MigrateSchema(ctx context.Context) ([]*goose.MigrationResult, error) {
	if err := a.cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	return postgres.MigrateUp(ctx, a.cfg.Database.DSN)
}

// Lock takes the process-level run lock so that two runs never fetch
// concurrently. Returns ErrLocked when it is already held.
func (a *App) Lock() error {
	if a.lock != nil {
		return nil
	}
	l := flock.New(a.cfg.Migration.LockPath)
	ok, err := l.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", a.cfg.Migration.LockPath, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, a.cfg.Migration.LockPath)
	}
	a.lock = l
	a.log.Debug("run lock acquired", slog.String("lock", a.cfg.Migration.LockPath))
	return nil
}

// Close releases the lock and the database pool.
func (a *App) Close() {
	if a.lock != nil {
		if err := a.lock.Unlock(); err != nil {
			a.log.Warn("failed to release run lock", slog.String("error", err.Error()))
		}
		a.lock = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
