package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/Freeeeeet/attendance_bot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReport(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	st := store.New(&model.Snapshot{
		Courses: []*model.Course{
			{ID: "c2", Code: "DB201", Name: "Databases"},
			{ID: "c1", Code: "NET101", Name: "Networks"},
		},
		Sessions: []*model.Session{
			{ID: "s1", CourseID: "c1", OpenedAt: at},
			{ID: "s2", CourseID: "c1", OpenedAt: at.Add(time.Hour)},
		},
		Records: []*model.AttendanceRecord{
			{ID: "r1", SessionID: "s1", SubjectID: "alice", CourseID: "c1", RecordedAt: at},
			{ID: "r2", SessionID: "s2", SubjectID: "alice", CourseID: "c1", RecordedAt: at},
			{ID: "r3", SessionID: "s1", SubjectID: "bob", CourseID: "c1", RecordedAt: at},
		},
	})

	var out bytes.Buffer
	require.NoError(t, writeReport(&out, st, ""))

	text := out.String()
	assert.Less(t, bytes.Index(out.Bytes(), []byte("DB201")), bytes.Index(out.Bytes(), []byte("NET101")))
	assert.Contains(t, text, "sessions: 2")
	assert.Regexp(t, `alice\s+2/2\s+100%`, text)
	assert.Regexp(t, `bob\s+1/2\s+50%`, text)

	out.Reset()
	require.NoError(t, writeReport(&out, st, "db201"))
	assert.NotContains(t, out.String(), "NET101")

	assert.Error(t, writeReport(&out, st, "missing"))
}
