// Package localstorage локальное хранилище ключ-значение поверх SQLite.
// Каждая коллекция хранится целиком одним JSON-документом под своим ключом.
package localstorage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Freeeeeet/attendance_bot/internal/model"

	_ "modernc.org/sqlite"
)

// Ключи коллекций
const (
	KeyAccounts = "attendance_accounts"
	KeyCourses  = "attendance_courses"
	KeySessions = "attendance_sessions"
	KeyRecords  = "attendance_records"
)

type Store struct {
	db *sql.DB
}

// Open открывает (или создаёт) файл базы. Миграции применяются отдельно.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open local storage: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping local storage: %w", err)
	}

	return &Store{db: db}, nil
}

// DB соединение, нужно мигратору
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GetItem значение по ключу; ok=false если ключа нет
func (s *Store) GetItem(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get item %s: %w", key, err)
	}
	return value, true, nil
}

// SetItem записывает значение по ключу
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_storage (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("set item %s: %w", key, err)
	}
	return nil
}

// RemoveItem удаляет ключ
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove item %s: %w", key, err)
	}
	return nil
}

// Load читает все коллекции. Отсутствующий ключ даёт пустую коллекцию.
func (s *Store) Load(ctx context.Context) (*model.Snapshot, error) {
	snapshot := &model.Snapshot{}

	if err := s.loadJSON(ctx, KeyAccounts, &snapshot.Users); err != nil {
		return nil, err
	}
	if err := s.loadJSON(ctx, KeyCourses, &snapshot.Courses); err != nil {
		return nil, err
	}
	if err := s.loadJSON(ctx, KeySessions, &snapshot.Sessions); err != nil {
		return nil, err
	}
	if err := s.loadJSON(ctx, KeyRecords, &snapshot.Records); err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (s *Store) SaveUsers(ctx context.Context, users []*model.User) error {
	return s.saveJSON(ctx, KeyAccounts, users)
}

func (s *Store) SaveCourses(ctx context.Context, courses []*model.Course) error {
	return s.saveJSON(ctx, KeyCourses, courses)
}

func (s *Store) SaveSessions(ctx context.Context, sessions []*model.Session) error {
	return s.saveJSON(ctx, KeySessions, sessions)
}

func (s *Store) SaveRecords(ctx context.Context, records []*model.AttendanceRecord) error {
	return s.saveJSON(ctx, KeyRecords, records)
}

func (s *Store) loadJSON(ctx context.Context, key string, dst any) error {
	raw, ok, err := s.GetItem(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) saveJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.SetItem(ctx, key, string(data))
}
