package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/Freeeeeet/attendance_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore сохраняет коллекции целиком в PostgreSQL
type PostgresStore struct {
	base     *base.Repository
	users    *UserRepository
	courses  *CourseRepository
	sessions *SessionRepository
	records  *AttendanceRepository
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		base:     base.NewRepository(pool),
		users:    NewUserRepository(pool),
		courses:  NewCourseRepository(pool),
		sessions: NewSessionRepository(pool),
		records:  NewAttendanceRepository(pool),
	}
}

// Load читает все коллекции
func (s *PostgresStore) Load(ctx context.Context) (*model.Snapshot, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}

	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	records, err := s.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	return &model.Snapshot{
		Users:    users,
		Courses:  courses,
		Sessions: sessions,
		Records:  records,
	}, nil
}

func (s *PostgresStore) SaveUsers(ctx context.Context, users []*model.User) error {
	return s.base.WithTx(ctx, func(tx pgx.Tx) error {
		return s.users.Replace(ctx, tx, users)
	})
}

func (s *PostgresStore) SaveCourses(ctx context.Context, courses []*model.Course) error {
	return s.base.WithTx(ctx, func(tx pgx.Tx) error {
		return s.courses.Replace(ctx, tx, courses)
	})
}

func (s *PostgresStore) SaveSessions(ctx context.Context, sessions []*model.Session) error {
	return s.base.WithTx(ctx, func(tx pgx.Tx) error {
		return s.sessions.Replace(ctx, tx, sessions)
	})
}

func (s *PostgresStore) SaveRecords(ctx context.Context, records []*model.AttendanceRecord) error {
	return s.base.WithTx(ctx, func(tx pgx.Tx) error {
		return s.records.Replace(ctx, tx, records)
	})
}
