package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/attendance_bot/internal/app"
	"github.com/Freeeeeet/attendance_bot/internal/checkin"
	"github.com/Freeeeeet/attendance_bot/internal/config"
	"github.com/Freeeeeet/attendance_bot/internal/controller"
	"github.com/Freeeeeet/attendance_bot/internal/service"
	"github.com/Freeeeeet/attendance_bot/internal/store"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type ServeCmd struct{}

func (c *ServeCmd) Run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	snapshot, err := st.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	state := store.New(snapshot)

	clk := clock.New()
	scheduler := app.NewScheduler(clk, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	rotation := checkin.RotationConfig{
		Period: cfg.RotationPeriod,
		Grace:  cfg.RotationGrace,
		Step:   cfg.TickInterval,
	}

	sessionService := service.NewSessionService(state, st.persister, scheduler, clk, rotation, logger)
	courseService := service.NewCourseService(state, st.persister, sessionService, logger)
	userService := service.NewUserService(state, st.persister, courseService, clk, logger)
	attendanceService := service.NewAttendanceService(state, st.persister, sessionService, clk, logger)

	if _, err := sessionService.CloseOrphaned(ctx); err != nil {
		return fmt.Errorf("close orphaned sessions: %w", err)
	}

	bot, err := controller.NewBotController(
		cfg.TelegramToken,
		userService,
		courseService,
		sessionService,
		attendanceService,
		cfg,
		logger,
	)
	if err != nil {
		return err
	}
	if err := bot.RegisterHandlers(ctx); err != nil {
		return err
	}

	logger.Info("✅ Bot is ready",
		zap.Int("users", len(snapshot.Users)),
		zap.Int("courses", len(snapshot.Courses)),
		zap.Duration("rotation_period", rotation.Period),
		zap.Duration("rotation_grace", rotation.Grace),
	)

	if err := bot.Start(ctx); err != nil {
		return err
	}

	// Контекст уже отменён, закрываем сессии с отдельным таймаутом
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("Shutting down...")
	if err := sessionService.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to close open sessions", zap.Error(err))
	}
	return nil
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(cfg *config.Config, logger *zap.Logger) error {
	// Миграции применяются при открытии хранилища
	st, err := openStorage(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	st.close()
	return nil
}

type ReportCmd struct {
	Course string `help:"Only this course code." short:"c"`
}

func (c *ReportCmd) Run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	snapshot, err := st.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	return writeReport(os.Stdout, store.New(snapshot), c.Course)
}
