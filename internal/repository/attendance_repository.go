package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/Freeeeeet/attendance_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AttendanceRepository struct {
	*base.Repository
}

func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{Repository: base.NewRepository(pool)}
}

// List получает все отметки, новые первыми
func (r *AttendanceRepository) List(ctx context.Context) ([]*model.AttendanceRecord, error) {
	query := `
		SELECT id, subject_id, course_id, session_id, recorded_at
		FROM attendance_records
		ORDER BY recorded_at DESC
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	defer rows.Close()

	var records []*model.AttendanceRecord
	for rows.Next() {
		var record model.AttendanceRecord
		err := rows.Scan(
			&record.ID,
			&record.SubjectID,
			&record.CourseID,
			&record.SessionID,
			&record.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}

	return records, nil
}

// Replace приводит таблицу к переданному набору отметок. Отметки не изменяются,
// поэтому существующие строки пропускаются.
func (r *AttendanceRepository) Replace(ctx context.Context, q base.Querier, records []*model.AttendanceRecord) error {
	batch := &pgx.Batch{}
	ids := make([]string, 0, len(records))

	for _, record := range records {
		batch.Queue(`
			INSERT INTO attendance_records (id, subject_id, course_id, session_id, recorded_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT DO NOTHING
		`, record.ID, record.SubjectID, record.CourseID, record.SessionID, record.RecordedAt)
		ids = append(ids, record.ID)
	}

	if _, err := q.Exec(ctx, `DELETE FROM attendance_records WHERE NOT (id = ANY($1))`, ids); err != nil {
		return fmt.Errorf("delete stale attendance records: %w", err)
	}

	if err := base.ExecBatch(ctx, q, batch); err != nil {
		return fmt.Errorf("insert attendance records: %w", err)
	}

	return nil
}
