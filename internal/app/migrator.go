package app

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embeddedMigrations embed.FS

// Migrator обёртка над goose
type Migrator struct {
	db       *sql.DB
	provider *goose.Provider
	ownsDB   bool
	logger   *zap.Logger
}

// NewPostgresMigrator создаёт мигратор для PostgreSQL
func NewPostgresMigrator(pool *pgxpool.Pool, logger *zap.Logger) (*Migrator, error) {
	// Goose работает с *sql.DB, поэтому создаём его из конфига пула
	db := stdlib.OpenDBFromPool(pool)

	mg, err := newMigrator(db, goose.DialectPostgres, "migrations/postgres", logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	mg.ownsDB = true
	return mg, nil
}

// NewSQLiteMigrator создаёт мигратор для локального SQLite. Соединение не закрывает.
func NewSQLiteMigrator(db *sql.DB, logger *zap.Logger) (*Migrator, error) {
	return newMigrator(db, goose.DialectSQLite3, "migrations/sqlite", logger)
}

func newMigrator(db *sql.DB, dialect goose.Dialect, dir string, logger *zap.Logger) (*Migrator, error) {
	fsys, err := fs.Sub(embeddedMigrations, dir)
	if err != nil {
		return nil, fmt.Errorf("open migrations %s: %w", dir, err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("create goose provider: %w", err)
	}

	return &Migrator{
		db:       db,
		provider: provider,
		logger:   logger,
	}, nil
}

// Run применяет все pending миграции
func (mg *Migrator) Run(ctx context.Context) error {
	mg.logger.Info("Applying database migrations")

	results, err := mg.provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	mg.logger.Info("Migrations applied", zap.Int("applied", len(results)))
	return nil
}

// Version показывает текущую версию миграций
func (mg *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := mg.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Close закрывает соединение мигратора, если оно было создано им самим
func (mg *Migrator) Close() error {
	// Пул и внешнее соединение управляются в main
	if mg.ownsDB {
		return mg.provider.Close()
	}
	return nil
}
