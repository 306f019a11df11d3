package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/Freeeeeet/attendance_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CourseRepository struct {
	*base.Repository
}

func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{Repository: base.NewRepository(pool)}
}

// List получает все курсы
func (r *CourseRepository) List(ctx context.Context) ([]*model.Course, error) {
	query := `
		SELECT id, name, code, instructor_username
		FROM courses
		ORDER BY code, id
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []*model.Course
	for rows.Next() {
		var course model.Course
		err := rows.Scan(
			&course.ID,
			&course.Name,
			&course.Code,
			&course.InstructorUsername,
		)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, &course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}

	return courses, nil
}

// Replace приводит таблицу к переданному набору курсов
func (r *CourseRepository) Replace(ctx context.Context, q base.Querier, courses []*model.Course) error {
	batch := &pgx.Batch{}
	ids := make([]string, 0, len(courses))

	for _, course := range courses {
		batch.Queue(`
			INSERT INTO courses (id, name, code, instructor_username)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				code = EXCLUDED.code,
				instructor_username = EXCLUDED.instructor_username
		`, course.ID, course.Name, course.Code, course.InstructorUsername)
		ids = append(ids, course.ID)
	}

	if _, err := q.Exec(ctx, `DELETE FROM courses WHERE NOT (id = ANY($1))`, ids); err != nil {
		return fmt.Errorf("delete stale courses: %w", err)
	}

	if err := base.ExecBatch(ctx, q, batch); err != nil {
		return fmt.Errorf("upsert courses: %w", err)
	}

	return nil
}
