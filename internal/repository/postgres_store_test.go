package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Freeeeeet/attendance_bot/internal/app"
	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Интеграционный тест, нужен TEST_DB_DSN с пустой базой
func newTestPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrator, err := app.NewPostgresMigrator(pool, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Run(ctx))
	require.NoError(t, migrator.Close())

	_, err = pool.Exec(ctx, `TRUNCATE users, courses, attendance_sessions, attendance_records`)
	require.NoError(t, err)

	return NewPostgresStore(pool)
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	st := newTestPostgresStore(t)
	ctx := context.Background()

	opened := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	closed := opened.Add(time.Hour)

	require.NoError(t, st.SaveUsers(ctx, []*model.User{
		{Username: "teacher", PasswordHash: "hashed_x", Role: model.RoleInstructor, TelegramID: 100, CreatedAt: opened},
		{Username: "alice", PasswordHash: "hashed_y", Role: model.RoleLearner, Major: "CS", CreatedAt: opened.Add(time.Second)},
	}))
	require.NoError(t, st.SaveCourses(ctx, []*model.Course{
		{ID: "c1", Name: "Networks", Code: "NET101", InstructorUsername: "teacher"},
	}))
	require.NoError(t, st.SaveSessions(ctx, []*model.Session{
		{ID: "s1", CourseID: "c1", InstructorUsername: "teacher", OpenedAt: opened, ClosedAt: &closed},
		{ID: "s2", CourseID: "c1", InstructorUsername: "teacher", OpenedAt: closed},
	}))
	require.NoError(t, st.SaveRecords(ctx, []*model.AttendanceRecord{
		{ID: "r1", SubjectID: "alice", CourseID: "c1", SessionID: "s1", RecordedAt: opened},
	}))

	snapshot, err := st.Load(ctx)
	require.NoError(t, err)

	require.Len(t, snapshot.Users, 2)
	assert.Equal(t, "teacher", snapshot.Users[0].Username)
	assert.Equal(t, int64(100), snapshot.Users[0].TelegramID)
	assert.Equal(t, int64(0), snapshot.Users[1].TelegramID)
	require.Len(t, snapshot.Courses, 1)
	require.Len(t, snapshot.Sessions, 2)
	require.Len(t, snapshot.Records, 1)

	// повторное сохранение заменяет набор целиком
	require.NoError(t, st.SaveUsers(ctx, []*model.User{
		{Username: "alice", PasswordHash: "hashed_y", Role: model.RoleInstructor, CreatedAt: opened},
	}))
	require.NoError(t, st.SaveRecords(ctx, nil))

	snapshot, err = st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.Users, 1)
	assert.Equal(t, model.RoleInstructor, snapshot.Users[0].Role)
	assert.Empty(t, snapshot.Records)
}
