package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/Freeeeeet/attendance_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	*base.Repository
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{Repository: base.NewRepository(pool)}
}

// List получает все сессии
func (r *SessionRepository) List(ctx context.Context) ([]*model.Session, error) {
	query := `
		SELECT id, course_id, instructor_username, opened_at, closed_at
		FROM attendance_sessions
		ORDER BY opened_at
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		var session model.Session
		err := rows.Scan(
			&session.ID,
			&session.CourseID,
			&session.InstructorUsername,
			&session.OpenedAt,
			&session.ClosedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// Replace приводит таблицу к переданному набору сессий
func (r *SessionRepository) Replace(ctx context.Context, q base.Querier, sessions []*model.Session) error {
	batch := &pgx.Batch{}
	ids := make([]string, 0, len(sessions))

	for _, session := range sessions {
		// изменяется только closed_at
		batch.Queue(`
			INSERT INTO attendance_sessions (id, course_id, instructor_username, opened_at, closed_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET closed_at = EXCLUDED.closed_at
		`, session.ID, session.CourseID, session.InstructorUsername, session.OpenedAt, session.ClosedAt)
		ids = append(ids, session.ID)
	}

	if _, err := q.Exec(ctx, `DELETE FROM attendance_sessions WHERE NOT (id = ANY($1))`, ids); err != nil {
		return fmt.Errorf("delete stale sessions: %w", err)
	}

	if err := base.ExecBatch(ctx, q, batch); err != nil {
		return fmt.Errorf("upsert sessions: %w", err)
	}

	return nil
}
