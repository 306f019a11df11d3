package handlers

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Freeeeeet/attendance_bot/internal/checkin"
	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/Freeeeeet/attendance_bot/internal/service"
)

// CommandArgs аргументы команды без самой команды: "/open CS101" -> ["CS101"]
func CommandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

// CommandRest всё после команды одной строкой, например payload кода
func CommandRest(text string) string {
	text = strings.TrimSpace(text)
	idx := strings.IndexAny(text, " \t\n")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx+1:])
}

// LooksLikePayload похоже ли сообщение на содержимое QR-кода
func LooksLikePayload(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}")
}

// RoleTitle название роли для пользователя
func RoleTitle(role model.Role) string {
	switch role {
	case model.RoleAdmin:
		return "администратор"
	case model.RoleInstructor:
		return "преподаватель"
	case model.RoleLearner:
		return "студент"
	}
	return string(role)
}

// RejectText сообщение о непринятом коде
func RejectText(reason checkin.RejectReason) string {
	switch reason {
	case checkin.ReasonMalformed:
		return "❌ Код не распознан. Отсканируйте ещё раз."
	case checkin.ReasonExpired:
		return "⌛ Срок действия кода истёк. Отсканируйте новый код."
	case checkin.ReasonSessionMismatch:
		return "🚫 Код не относится к открытой сессии."
	}
	return "❌ Код не принят."
}

// CheckInText сообщение по итогу отметки
func CheckInText(result service.CheckInResult) string {
	switch result.Outcome {
	case service.CheckInRecorded:
		return fmt.Sprintf("✅ Отметка принята (%s)", FormatClock(result.Record.RecordedAt))
	case service.CheckInDuplicate:
		return "ℹ️ Вы уже отмечены в этой сессии."
	case service.CheckInRejected:
		return RejectText(result.Reason)
	}
	return MsgInternalError
}

// ErrorText переводит ошибку сервиса в сообщение
func ErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return "❌ Не найдено."
	case errors.Is(err, service.ErrForbidden):
		return "🚫 Недостаточно прав."
	case errors.Is(err, service.ErrAlreadyExists):
		return "❌ Уже существует."
	case errors.Is(err, service.ErrBadRequest):
		return "❌ Неверные данные."
	case errors.Is(err, service.ErrActiveSessionExists):
		return "⚠️ У вас уже есть открытая сессия. Закройте её: /close"
	case errors.Is(err, service.ErrNoActiveSession):
		return "ℹ️ Нет открытой сессии."
	}
	return MsgInternalError
}

// FormatPercent доля в процентах, округлённая
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(ratio*100)))
}

// FormatClock время отметки
func FormatClock(t time.Time) string {
	return t.Format("15:04:05")
}

// FormatDate дата сессии
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// FormatCountdown обратный отсчёт в секундах
func FormatCountdown(d time.Duration) string {
	return fmt.Sprintf("%ds", int(d.Round(time.Second)/time.Second))
}

// FormatToken сообщение с кодом для показа студентам
func FormatToken(issued checkin.Issued, remaining time.Duration) string {
	return fmt.Sprintf(
		"🔳 Код для отметки\n\n%s\n\n⏳ Истекает через: %s",
		issued.Payload,
		FormatCountdown(remaining),
	)
}

// FormatCourse строка курса в списке
func FormatCourse(course *model.Course) string {
	return fmt.Sprintf("📚 %s — %s (%s)", course.Code, course.Name, course.InstructorUsername)
}

// ValidateCourseInput проверяет код и название курса
func ValidateCourseInput(code, name string) error {
	if code == "" || len([]rune(code)) > CourseCodeMaxLength {
		return fmt.Errorf("код курса должен быть от 1 до %d символов", CourseCodeMaxLength)
	}
	n := len([]rune(strings.TrimSpace(name)))
	if n < CourseNameMinLength || n > CourseNameMaxLength {
		return fmt.Errorf("название курса должно быть от %d до %d символов", CourseNameMinLength, CourseNameMaxLength)
	}
	return nil
}
