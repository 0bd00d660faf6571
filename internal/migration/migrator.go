package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/frostline/internal/config"
	"github.com/Additional-Code/frostline/internal/database"
)

//go:embed sql
var migrations embed.FS

// goose keeps dialect and base FS in package state.
var gooseMu sync.Mutex

// Module provides the migrator to Fx.
var Module = fx.Provide(New)

// Migrator applies the audit schema with goose.
type Migrator struct {
	db      *bun.DB
	dialect string
	dir     string
	logger  *zap.Logger
}

// New constructs a goose-backed migrator for the configured driver.
func New(cfg config.Config, conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	dialect, err := gooseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	dir := "sql/" + dialect
	if _, err := fs.Stat(migrations, dir); err != nil {
		return nil, fmt.Errorf("no migrations for dialect %s: %w", dialect, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Migrator{
		db:      conns.Writer,
		dialect: dialect,
		dir:     dir,
		logger:  logger.Named("migration"),
	}, nil
}

func (m *Migrator) with(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(m.dialect); err != nil {
		return err
	}
	return fn()
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	err := m.with(func() error {
		return goose.UpContext(ctx, m.db.DB, m.dir)
	})
	if err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info("no migrations to apply")
			return nil
		}
		return err
	}

	m.logger.Info("migrations applied")
	return nil
}

// Down rolls back migrations. Steps <=0 defaults to 1; all=true rolls everything back.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if steps <= 0 {
		steps = 1
	}
	err := m.with(func() error {
		if all {
			return goose.DownToContext(ctx, m.db.DB, m.dir, 0)
		}
		for i := 0; i < steps; i++ {
			if err := goose.DownContext(ctx, m.db.DB, m.dir); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info("no migrations to rollback")
			return nil
		}
		return err
	}

	if all {
		m.logger.Info("migrations rolled back", zap.String("mode", "all"))
	} else {
		m.logger.Info("migrations rolled back", zap.Int("steps", steps))
	}
	return nil
}

// Version reports the current schema version.
func (m *Migrator) Version() (int64, error) {
	var version int64
	err := m.with(func() error {
		v, err := goose.GetDBVersion(m.db.DB)
		version = v
		return err
	})
	return version, err
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case "postgres", "pg":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}

	return strings.Contains(err.Error(), "no migrations")
}
