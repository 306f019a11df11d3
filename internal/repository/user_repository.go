package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/Freeeeeet/attendance_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(pool)}
}

const userColumns = `username, password_hash, role, title, first_name, last_name, email, date_of_birth, major, department, telegram_id, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		user       model.User
		role       string
		title      string
		telegramID *int64
	)
	err := row.Scan(
		&user.Username,
		&user.PasswordHash,
		&role,
		&title,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.DateOfBirth,
		&user.Major,
		&user.Department,
		&telegramID,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = model.Role(role)
	user.Title = model.Title(title)
	if telegramID != nil {
		user.TelegramID = *telegramID
	}
	return &user, nil
}

// List получает всех пользователей
func (r *UserRepository) List(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, username`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Replace приводит таблицу к переданному набору: upsert всех и удаление отсутствующих
func (r *UserRepository) Replace(ctx context.Context, q base.Querier, users []*model.User) error {
	batch := &pgx.Batch{}
	usernames := make([]string, 0, len(users))

	for _, user := range users {
		var telegramID *int64
		if user.TelegramID != 0 {
			id := user.TelegramID
			telegramID = &id
		}

		batch.Queue(`
			INSERT INTO users (`+userColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (username) DO UPDATE SET
				password_hash = EXCLUDED.password_hash,
				role = EXCLUDED.role,
				title = EXCLUDED.title,
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				email = EXCLUDED.email,
				date_of_birth = EXCLUDED.date_of_birth,
				major = EXCLUDED.major,
				department = EXCLUDED.department,
				telegram_id = EXCLUDED.telegram_id
		`,
			user.Username,
			user.PasswordHash,
			string(user.Role),
			string(user.Title),
			user.FirstName,
			user.LastName,
			user.Email,
			user.DateOfBirth,
			user.Major,
			user.Department,
			telegramID,
			user.CreatedAt,
		)
		usernames = append(usernames, user.Username)
	}

	if _, err := q.Exec(ctx, `DELETE FROM users WHERE NOT (username = ANY($1))`, usernames); err != nil {
		return fmt.Errorf("delete stale users: %w", err)
	}

	if err := base.ExecBatch(ctx, q, batch); err != nil {
		return fmt.Errorf("upsert users: %w", err)
	}

	return nil
}
