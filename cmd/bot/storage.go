package main

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/attendance_bot/internal/app"
	"github.com/Freeeeeet/attendance_bot/internal/config"
	"github.com/Freeeeeet/attendance_bot/internal/repository"
	"github.com/Freeeeeet/attendance_bot/internal/repository/localstorage"
	"github.com/Freeeeeet/attendance_bot/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// storage хранилище, выбранное STORAGE_DRIVER, с уже применёнными миграциями
type storage struct {
	persister service.Persister
	close     func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case config.StorageDriverSQLite:
		return openSQLite(ctx, cfg, logger)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	migrator, err := app.NewPostgresMigrator(pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("✅ Connected to PostgreSQL")

	return &storage{
		persister: repository.NewPostgresStore(pool),
		close:     pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	local, err := localstorage.Open(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	migrator, err := app.NewSQLiteMigrator(local.DB(), logger)
	if err != nil {
		local.Close()
		return nil, err
	}
	if err := migrator.Run(ctx); err != nil {
		local.Close()
		return nil, err
	}

	logger.Info("✅ Opened local storage", zap.String("path", cfg.SQLitePath))

	return &storage{
		persister: local,
		close: func() {
			if err := local.Close(); err != nil {
				logger.Error("Failed to close local storage", zap.Error(err))
			}
		},
	}, nil
}
