package service

import (
	"context"
	"testing"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCourse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	teacher := env.register(t, "teacher", model.RoleInstructor)
	learner := env.register(t, "alice", model.RoleLearner)

	course, err := env.courses.AddCourse(ctx, teacher, " Networks ", " NET101 ")
	require.NoError(t, err)
	assert.Equal(t, "Networks", course.Name)
	assert.Equal(t, "NET101", course.Code)
	assert.Equal(t, "teacher", course.InstructorUsername)
	assert.Contains(t, course.ID, "sub_")

	_, err = env.courses.AddCourse(ctx, teacher, "Other", "net101")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = env.courses.AddCourse(ctx, teacher, "", "X1")
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = env.courses.AddCourse(ctx, learner, "Networks", "NET102")
	assert.ErrorIs(t, err, ErrForbidden)

	found, err := env.courses.GetByCode("net101")
	require.NoError(t, err)
	assert.Equal(t, course.ID, found.ID)

	_, err = env.courses.GetByCode("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, env.persister.saved().Courses, 1)
}

func TestVisibleCourses(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", model.RoleAdmin)
	a := env.register(t, "teacher_a", model.RoleInstructor)
	b := env.register(t, "teacher_b", model.RoleInstructor)
	learner := env.register(t, "alice", model.RoleLearner)
	env.addCourse(t, a, "A1")
	env.addCourse(t, a, "A2")
	env.addCourse(t, b, "B1")

	assert.Len(t, env.courses.VisibleCourses(admin), 3)
	assert.Len(t, env.courses.VisibleCourses(learner), 3)
	assert.Len(t, env.courses.VisibleCourses(a), 2)
	assert.Len(t, env.courses.VisibleCourses(b), 1)
	assert.Nil(t, env.courses.VisibleCourses(nil))
}

func TestDeleteCourseCascades(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.register(t, "admin", model.RoleAdmin)
	teacher := env.register(t, "teacher", model.RoleInstructor)
	other := env.register(t, "other", model.RoleInstructor)
	alice := env.register(t, "alice", model.RoleLearner)
	course := env.addCourse(t, teacher, "NET101")
	kept := env.addCourse(t, teacher, "NET102")

	// одна закрытая сессия с отметкой и одна открытая
	_, err := env.sessions.OpenSession(ctx, teacher, course.ID)
	require.NoError(t, err)
	_, err = env.attendance.CheckIn(ctx, alice, env.lastPayload(t))
	require.NoError(t, err)
	_, err = env.sessions.CloseSession(ctx, teacher)
	require.NoError(t, err)
	_, err = env.sessions.OpenSession(ctx, teacher, course.ID)
	require.NoError(t, err)

	err = env.courses.DeleteCourse(ctx, other, course.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.courses.DeleteCourse(ctx, teacher, course.ID))

	_, err = env.courses.GetByCode("NET101")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, env.store.SessionsForCourses([]string{course.ID}))
	assert.Equal(t, 0, env.store.Ledger().Len())
	assert.Equal(t, 0, env.scheduler.Len())

	_, err = env.sessions.ActiveSession(teacher)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	saved := env.persister.saved()
	require.Len(t, saved.Courses, 1)
	assert.Equal(t, kept.ID, saved.Courses[0].ID)
	assert.Empty(t, saved.Sessions)
	assert.Empty(t, saved.Records)

	// администратор может удалить чужой курс
	require.NoError(t, env.courses.DeleteCourse(ctx, admin, kept.ID))
	assert.ErrorIs(t, env.courses.DeleteCourse(ctx, admin, kept.ID), ErrNotFound)
}

func TestSessionHistory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	teacher := env.register(t, "teacher", model.RoleInstructor)
	other := env.register(t, "other", model.RoleInstructor)
	alice := env.register(t, "alice", model.RoleLearner)
	course := env.addCourse(t, teacher, "NET101")

	first, err := env.sessions.OpenSession(ctx, teacher, course.ID)
	require.NoError(t, err)
	_, err = env.attendance.CheckIn(ctx, alice, env.lastPayload(t))
	require.NoError(t, err)
	_, err = env.sessions.CloseSession(ctx, teacher)
	require.NoError(t, err)

	env.tick(10)
	second, err := env.sessions.OpenSession(ctx, teacher, course.ID)
	require.NoError(t, err)

	history, err := env.courses.SessionHistory(teacher, course.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].Session.ID)
	assert.True(t, history[0].Session.IsOpen())
	assert.Equal(t, 0, history[0].Attendees)
	assert.Equal(t, first.ID, history[1].Session.ID)
	assert.Equal(t, 1, history[1].Attendees)

	_, err = env.courses.SessionHistory(other, course.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.courses.SessionHistory(teacher, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
