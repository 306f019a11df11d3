package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
)

type Config struct {
	TelegramToken  string        `mapstructure:"TELEGRAM_TOKEN"`
	DBDSN          string        `mapstructure:"DB_DSN"`
	Environment    string        `mapstructure:"ENV"`
	StorageDriver  string        `mapstructure:"STORAGE_DRIVER"`
	SQLitePath     string        `mapstructure:"SQLITE_PATH"`
	RotationPeriod time.Duration `mapstructure:"ROTATION_PERIOD"`
	RotationGrace  time.Duration `mapstructure:"ROTATION_GRACE"`
	TickInterval   time.Duration `mapstructure:"TICK_INTERVAL"`
	AdminUsernames []string      `mapstructure:"ADMIN_USERNAMES"`
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}

	return FromEnv()
}

// FromEnv собирает конфигурацию только из переменных окружения
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDSN:         os.Getenv("DB_DSN"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		Environment:   os.Getenv("ENV"),
		StorageDriver: strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_DRIVER"))),
		SQLitePath:    os.Getenv("SQLITE_PATH"),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.StorageDriver == "" {
		cfg.StorageDriver = StorageDriverSQLite
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "./data/attendance.db"
	}

	var err error
	if cfg.RotationPeriod, err = durationEnv("ROTATION_PERIOD", 60*time.Second, false); err != nil {
		return nil, err
	}
	if cfg.RotationGrace, err = durationEnv("ROTATION_GRACE", 5*time.Second, true); err != nil {
		return nil, err
	}
	if cfg.TickInterval, err = durationEnv("TICK_INTERVAL", time.Second, false); err != nil {
		return nil, err
	}

	for _, name := range strings.Split(os.Getenv("ADMIN_USERNAMES"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			cfg.AdminUsernames = append(cfg.AdminUsernames, name)
		}
	}

	// Проверяем обязательные поля
	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required for postgres storage")
		}
	case StorageDriverSQLite:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.TickInterval > cfg.RotationPeriod {
		return nil, fmt.Errorf("TICK_INTERVAL (%s) must not exceed ROTATION_PERIOD (%s)", cfg.TickInterval, cfg.RotationPeriod)
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

// IsAdminUsername входит ли имя в список администраторов
func (c *Config) IsAdminUsername(username string) bool {
	for _, name := range c.AdminUsernames {
		if strings.EqualFold(name, username) {
			return true
		}
	}
	return false
}

func durationEnv(key string, def time.Duration, allowZero bool) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
