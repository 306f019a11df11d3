package main

import (
	"log"

	"github.com/Freeeeeet/attendance_bot/internal/app"
	"github.com/Freeeeeet/attendance_bot/internal/config"
	"github.com/alecthomas/kong"
)

type CLI struct {
	Serve   ServeCmd   `cmd:"" default:"1" help:"Run the Telegram bot."`
	Migrate MigrateCmd `cmd:"" help:"Apply database migrations and exit."`
	Report  ReportCmd  `cmd:"" help:"Print attendance per course."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("attendance_bot"),
		kong.Description("Telegram bot for check-in by rotating codes."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Sugar().Infow("Starting attendance bot",
		"command", kctx.Command(),
		"environment", cfg.Environment,
		"storage", cfg.StorageDriver,
	)

	kctx.FatalIfErrorf(kctx.Run(cfg, logger))
}
