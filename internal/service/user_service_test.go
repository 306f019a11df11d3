package service

import (
	"context"
	"testing"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	user, err := env.users.Register(ctx, RegisterInput{
		Username:  "alice",
		Password:  "pw",
		Role:      model.RoleLearner,
		FirstName: "Alice",
		Major:     "CS",
	})
	require.NoError(t, err)
	assert.Equal(t, "hashed_pw", user.PasswordHash)
	assert.True(t, env.clock.Now().Equal(user.CreatedAt))

	_, err = env.users.Register(ctx, RegisterInput{Username: "alice", Password: "x", Role: model.RoleLearner})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = env.users.Register(ctx, RegisterInput{Username: "bob", Password: "x", Role: model.Role("guest")})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = env.users.Register(ctx, RegisterInput{Username: " ", Password: "x", Role: model.RoleLearner})
	assert.ErrorIs(t, err, ErrBadRequest)

	logged, err := env.users.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "CS", logged.Major)

	_, err = env.users.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.users.Login(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.Len(t, env.persister.saved().Users, 1)
}

func TestRegisterTelegramUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	user, err := env.users.RegisterTelegramUser(ctx, 100, "alice", "Alice", "A", false)
	require.NoError(t, err)
	assert.Equal(t, model.RoleLearner, user.Role)
	assert.Equal(t, int64(100), user.TelegramID)

	// повторный /start обновляет имя и не меняет роль
	user, err = env.users.RegisterTelegramUser(ctx, 100, "alice", "Alicia", "A", true)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", user.FirstName)
	assert.Equal(t, model.RoleLearner, user.Role)

	admin, err := env.users.RegisterTelegramUser(ctx, 200, "root", "Root", "", true)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	anon, err := env.users.RegisterTelegramUser(ctx, 300, "", "Anon", "", false)
	require.NoError(t, err)
	assert.Equal(t, "tg_300", anon.Username)

	found, err := env.users.GetByTelegramID(200)
	require.NoError(t, err)
	assert.Equal(t, "root", found.Username)

	_, err = env.users.GetByTelegramID(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterTelegramUserLinksExistingAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "teacher", model.RoleInstructor)

	linked, err := env.users.RegisterTelegramUser(ctx, 100, "teacher", "T", "", false)
	require.NoError(t, err)
	assert.Equal(t, model.RoleInstructor, linked.Role)
	assert.Equal(t, int64(100), linked.TelegramID)

	_, err = env.users.RegisterTelegramUser(ctx, 200, "teacher", "T", "", false)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "alice", model.RoleLearner)

	email := " alice@example.com "
	title := model.Title("Ms.")
	password := "new"
	user, err := env.users.UpdateProfile(ctx, "alice", ProfileUpdate{
		Email:    &email,
		Title:    &title,
		Password: &password,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, title, user.Title)
	assert.Equal(t, model.RoleLearner, user.Role)

	_, err = env.users.Login(ctx, "alice", "new")
	require.NoError(t, err)

	empty := ""
	_, err = env.users.UpdateProfile(ctx, "alice", ProfileUpdate{Password: &empty})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = env.users.UpdateProfile(ctx, "nobody", ProfileUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangeRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.register(t, "admin", model.RoleAdmin)
	alice := env.register(t, "alice", model.RoleLearner)

	_, err := env.users.ChangeRole(ctx, alice, "alice", model.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.users.ChangeRole(ctx, admin, "alice", model.Role("guest"))
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = env.users.ChangeRole(ctx, admin, "nobody", model.RoleInstructor)
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := env.users.ChangeRole(ctx, admin, "alice", model.RoleInstructor)
	require.NoError(t, err)
	assert.Equal(t, model.RoleInstructor, updated.Role)

	stored, err := env.users.GetByUsername("alice")
	require.NoError(t, err)
	assert.True(t, stored.IsInstructor())
}

func TestDeleteUserCascadesCourses(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.register(t, "admin", model.RoleAdmin)
	teacher := env.register(t, "teacher", model.RoleInstructor)
	other := env.register(t, "other", model.RoleInstructor)
	alice := env.register(t, "alice", model.RoleLearner)
	course := env.addCourse(t, teacher, "NET101")
	kept := env.addCourse(t, other, "DB201")

	_, err := env.sessions.OpenSession(ctx, teacher, course.ID)
	require.NoError(t, err)
	_, err = env.attendance.CheckIn(ctx, alice, env.lastPayload(t))
	require.NoError(t, err)

	assert.ErrorIs(t, env.users.DeleteUser(ctx, alice, "teacher"), ErrForbidden)
	assert.ErrorIs(t, env.users.DeleteUser(ctx, admin, "admin"), ErrBadRequest)
	assert.ErrorIs(t, env.users.DeleteUser(ctx, admin, "nobody"), ErrNotFound)

	require.NoError(t, env.users.DeleteUser(ctx, admin, "teacher"))

	_, err = env.users.GetByUsername("teacher")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, env.scheduler.Len())
	assert.Empty(t, env.store.SessionsForCourses([]string{course.ID}))
	assert.Equal(t, 0, env.store.Ledger().Len())

	courses := env.store.Courses()
	require.Len(t, courses, 1)
	assert.Equal(t, kept.ID, courses[0].ID)

	users, err := env.users.ListUsers(admin)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	_, err = env.users.ListUsers(alice)
	assert.ErrorIs(t, err, ErrForbidden)
}
