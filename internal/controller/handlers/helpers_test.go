package handlers

import (
	"fmt"
	"testing"
	"time"

	"github.com/Freeeeeet/attendance_bot/internal/checkin"
	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/Freeeeeet/attendance_bot/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestCommandArgs(t *testing.T) {
	assert.Equal(t, []string{"CS101"}, CommandArgs("/open CS101"))
	assert.Equal(t, []string{"CS101", "Intro", "to", "CS"}, CommandArgs("/addcourse  CS101 Intro to CS"))
	assert.Empty(t, CommandArgs("/close"))
	assert.Nil(t, CommandArgs("   "))
}

func TestCommandRest(t *testing.T) {
	payload := `{"sessionId":"s","courseId":"c","issueTime":1,"validityWindow":1000}`
	assert.Equal(t, payload, CommandRest("/checkin "+payload))
	assert.Equal(t, payload, CommandRest("/checkin\n"+payload+"\n"))
	assert.Equal(t, "", CommandRest("/checkin"))
}

func TestLooksLikePayload(t *testing.T) {
	assert.True(t, LooksLikePayload(` {"sessionId":"s"} `))
	assert.False(t, LooksLikePayload("hello"))
	assert.False(t, LooksLikePayload("{broken"))
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{service.ErrNotFound, "❌ Не найдено."},
		{fmt.Errorf("course x: %w", service.ErrAlreadyExists), "❌ Уже существует."},
		{service.ErrForbidden, "🚫 Недостаточно прав."},
		{service.ErrNoActiveSession, "ℹ️ Нет открытой сессии."},
		{assert.AnError, MsgInternalError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorText(tt.err))
	}
	assert.Contains(t, ErrorText(service.ErrActiveSessionExists), "/close")
}

func TestCheckInText(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 15, 30, 0, time.UTC)

	assert.Equal(t, "✅ Отметка принята (09:15:30)", CheckInText(service.CheckInResult{
		Outcome: service.CheckInRecorded,
		Record:  model.AttendanceRecord{RecordedAt: at},
	}))
	assert.Contains(t, CheckInText(service.CheckInResult{Outcome: service.CheckInDuplicate}), "уже отмечены")
	assert.Contains(t, CheckInText(service.CheckInResult{
		Outcome: service.CheckInRejected,
		Reason:  checkin.ReasonExpired,
	}), "истёк")
	assert.Contains(t, CheckInText(service.CheckInResult{
		Outcome: service.CheckInRejected,
		Reason:  checkin.ReasonSessionMismatch,
	}), "открытой сессии")
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "67%", FormatPercent(2.0/3.0))
	assert.Equal(t, "0%", FormatPercent(0))
	assert.Equal(t, "65s", FormatCountdown(64600*time.Millisecond))

	issued := checkin.Issued{Payload: `{"x":1}`}
	text := FormatToken(issued, 30*time.Second)
	assert.Contains(t, text, issued.Payload)
	assert.Contains(t, text, "30s")

	assert.Equal(t, "📚 NET101 — Networks (teacher)", FormatCourse(&model.Course{
		Code: "NET101", Name: "Networks", InstructorUsername: "teacher",
	}))
}

func TestValidateCourseInput(t *testing.T) {
	assert.NoError(t, ValidateCourseInput("NET101", "Networks"))
	assert.Error(t, ValidateCourseInput("", "Networks"))
	assert.Error(t, ValidateCourseInput("NET101", "ab"))
	assert.Error(t, ValidateCourseInput("ABCDEFGHIJKLMNOPQRSTU", "Networks"))
}

func TestHelpTextPerRole(t *testing.T) {
	assert.Contains(t, HelpText(model.RoleInstructor), "/open")
	assert.NotContains(t, HelpText(model.RoleInstructor), "/checkin")
	assert.Contains(t, HelpText(model.RoleLearner), "/checkin")
	assert.Contains(t, HelpText(model.RoleAdmin), "/deluser")
	assert.Equal(t, "студент", RoleTitle(model.RoleLearner))
}
