package store

import (
	"testing"
	"time"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var opened = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testSnapshot() *model.Snapshot {
	closed := opened.Add(time.Hour)
	return &model.Snapshot{
		Users: []*model.User{
			{Username: "teacher", Role: model.RoleInstructor, TelegramID: 100},
			{Username: "alice", Role: model.RoleLearner, TelegramID: 200},
		},
		Courses: []*model.Course{
			{ID: "c1", Name: "Networks", Code: "NET101", InstructorUsername: "teacher"},
			{ID: "c2", Name: "Databases", Code: "DB201", InstructorUsername: "other"},
		},
		Sessions: []*model.Session{
			{ID: "s1", CourseID: "c1", InstructorUsername: "teacher", OpenedAt: opened, ClosedAt: &closed},
			{ID: "s2", CourseID: "c1", InstructorUsername: "teacher", OpenedAt: opened.Add(24 * time.Hour)},
			{ID: "s3", CourseID: "c2", InstructorUsername: "other", OpenedAt: opened},
		},
		Records: []*model.AttendanceRecord{
			{ID: "r1", SubjectID: "alice", CourseID: "c1", SessionID: "s1", RecordedAt: opened.Add(time.Minute)},
			{ID: "r2", SubjectID: "alice", CourseID: "c2", SessionID: "s3", RecordedAt: opened.Add(time.Minute)},
		},
	}
}

func TestNewFromNilSnapshot(t *testing.T) {
	s := New(nil)
	assert.Empty(t, s.Users())
	assert.Empty(t, s.Courses())
	assert.Empty(t, s.Sessions())
	assert.Equal(t, 0, s.Ledger().Len())
}

func TestUsers(t *testing.T) {
	s := New(testSnapshot())

	u, ok := s.User("alice")
	require.True(t, ok)
	assert.Equal(t, model.RoleLearner, u.Role)

	u, ok = s.UserByTelegramID(100)
	require.True(t, ok)
	assert.Equal(t, "teacher", u.Username)

	_, ok = s.UserByTelegramID(0)
	assert.False(t, ok)

	// изменения копии не попадают в состояние
	u.Role = model.RoleAdmin
	u, _ = s.User("teacher")
	assert.Equal(t, model.RoleInstructor, u.Role)

	u.Role = model.RoleAdmin
	s.PutUser(u)
	u, _ = s.User("teacher")
	assert.Equal(t, model.RoleAdmin, u.Role)

	s.PutUser(&model.User{Username: "bob", Role: model.RoleLearner})
	assert.Len(t, s.Users(), 3)

	assert.True(t, s.DeleteUser("bob"))
	assert.False(t, s.DeleteUser("bob"))
	assert.Len(t, s.Users(), 2)
}

func TestCourses(t *testing.T) {
	s := New(testSnapshot())

	c, ok := s.CourseByCode("net101")
	require.True(t, ok)
	assert.Equal(t, "c1", c.ID)

	assert.Len(t, s.CoursesByInstructor("teacher"), 1)
	assert.Len(t, s.CoursesByInstructor("nobody"), 0)

	c.Name = "Renamed"
	s.PutCourse(c)
	c, _ = s.Course("c1")
	assert.Equal(t, "Renamed", c.Name)
	assert.Len(t, s.Courses(), 2)
}

func TestRemoveCourseCascades(t *testing.T) {
	s := New(testSnapshot())

	sessions, records, ok := s.RemoveCourse("c1")
	require.True(t, ok)
	assert.Equal(t, 2, sessions)
	assert.Equal(t, 1, records)

	_, found := s.Course("c1")
	assert.False(t, found)
	assert.Empty(t, s.SessionsForCourses([]string{"c1"}))
	assert.False(t, s.Ledger().Has("s1", "alice"))

	// другой курс не затронут
	assert.Len(t, s.SessionsForCourses([]string{"c2"}), 1)
	assert.True(t, s.Ledger().Has("s3", "alice"))

	_, _, ok = s.RemoveCourse("c1")
	assert.False(t, ok)
}

func TestSessions(t *testing.T) {
	s := New(testSnapshot())

	history := s.SessionHistory("c1")
	require.Len(t, history, 2)
	assert.Equal(t, "s2", history[0].ID)
	assert.Equal(t, "s1", history[1].ID)

	sess, ok := s.Session("s2")
	require.True(t, ok)
	assert.True(t, sess.IsOpen())

	closedAt := opened.Add(25 * time.Hour)
	sess.ClosedAt = &closedAt
	s.PutSession(sess)

	sess, _ = s.Session("s2")
	assert.False(t, sess.IsOpen())

	// возвращённая копия не делит ClosedAt с состоянием
	*sess.ClosedAt = opened
	again, _ := s.Session("s2")
	assert.True(t, closedAt.Equal(*again.ClosedAt))
}

func TestLedgerUsesStoreSessions(t *testing.T) {
	s := New(testSnapshot())
	assert.InDelta(t, 0.5, s.Ledger().AttendanceRatio("alice", []string{"c1"}), 1e-9)
	assert.InDelta(t, 2.0/3.0, s.Ledger().AttendanceRatio("alice", []string{"c1", "c2"}), 1e-9)
}

func TestSnapshot(t *testing.T) {
	s := New(testSnapshot())
	snap := s.Snapshot()

	assert.Len(t, snap.Users, 2)
	assert.Len(t, snap.Courses, 2)
	assert.Len(t, snap.Sessions, 3)
	assert.Len(t, snap.Records, 2)
	assert.Len(t, s.Records(), 2)
}
