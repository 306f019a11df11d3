package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From

	// Регистрируем пользователя
	user, err := h.userService.RegisterTelegramUser(
		ctx,
		from.ID,
		from.Username,
		from.FirstName,
		from.LastName,
		h.admins.IsAdminUsername(from.Username),
	)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Int64("telegram_id", from.ID), zap.Error(err))
		h.replyErr(ctx, b, update, "register", err)
		return
	}

	h.reply(ctx, b, update, fmt.Sprintf(
		"👋 Привет, %s!\n\nВаша роль: %s\n\n%s",
		user.DisplayName(),
		RoleTitle(user.Role),
		HelpText(user.Role),
	))
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	h.reply(ctx, b, update, HelpText(user.Role))
}

// HelpText список команд для роли
func HelpText(role model.Role) string {
	var sb strings.Builder
	sb.WriteString("📚 Справка по командам:\n\n")
	sb.WriteString("/courses - Список курсов\n")
	sb.WriteString("/stats - Статистика посещаемости\n")

	switch role {
	case model.RoleInstructor:
		sb.WriteString("\nДля преподавателей:\n")
		sb.WriteString("/addcourse КОД Название - Добавить курс\n")
		sb.WriteString("/delcourse КОД - Удалить курс\n")
		sb.WriteString("/open КОД - Открыть сессию отметки\n")
		sb.WriteString("/close - Закрыть сессию\n")
		sb.WriteString("/token - Текущий код\n")
		sb.WriteString("/regen - Выпустить новый код\n")
		sb.WriteString("/present - Кто отметился\n")
		sb.WriteString("/manual ЛОГИН - Отметить студента вручную\n")
		sb.WriteString("/history КОД - История сессий курса\n")
	case model.RoleLearner:
		sb.WriteString("\nДля студентов:\n")
		sb.WriteString("/checkin КОД - Отметиться\n")
		sb.WriteString("Можно просто переслать содержимое QR-кода сообщением.\n")
	case model.RoleAdmin:
		sb.WriteString("\nДля администраторов:\n")
		sb.WriteString("/users - Все пользователи\n")
		sb.WriteString("/role ЛОГИН РОЛЬ - Сменить роль (admin, instructor, learner)\n")
		sb.WriteString("/deluser ЛОГИН - Удалить пользователя\n")
		sb.WriteString("/delcourse КОД - Удалить курс\n")
		sb.WriteString("/history КОД - История сессий курса\n")
	}

	return sb.String()
}

// HandleCourses обрабатывает команду /courses
func (h *Handlers) HandleCourses(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	courses := h.courseService.VisibleCourses(user)
	if len(courses) == 0 {
		h.reply(ctx, b, update, "📚 Курсов пока нет.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📚 Курсы:\n\n")
	for _, course := range courses {
		sb.WriteString(FormatCourse(course))
		if _, open := h.sessionService.OpenSessionForCourse(course.ID); open {
			sb.WriteString(" 🟢")
		}
		sb.WriteString("\n")
	}
	h.reply(ctx, b, update, sb.String())
}

// HandleStats обрабатывает команду /stats
func (h *Handlers) HandleStats(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	switch user.Role {
	case model.RoleLearner:
		stats, err := h.attendanceService.LearnerStats(user)
		if err != nil {
			h.replyErr(ctx, b, update, "learner_stats", err)
			return
		}
		h.reply(ctx, b, update, fmt.Sprintf(
			"📊 Посещаемость: %d из %d (%s)",
			stats.Attended, stats.Total, FormatPercent(stats.Ratio),
		))

	case model.RoleInstructor:
		stats, err := h.attendanceService.InstructorStats(user)
		if err != nil {
			h.replyErr(ctx, b, update, "instructor_stats", err)
			return
		}
		if len(stats) == 0 {
			h.reply(ctx, b, update, "📊 Пока нет проведённых сессий.")
			return
		}

		var sb strings.Builder
		sb.WriteString("📊 Посещаемость студентов:\n\n")
		for _, s := range stats {
			sb.WriteString(fmt.Sprintf("%s: %d из %d (%s)\n", s.Username, s.Attended, s.Total, FormatPercent(s.Ratio)))
		}
		h.reply(ctx, b, update, sb.String())

	default:
		h.reply(ctx, b, update, fmt.Sprintf("📊 Всего отметок: %d", len(h.attendanceService.VisibleRecords(user))))
	}
}

// HandleText обрабатывает сообщения без команды.
// Содержимое QR-кода считается попыткой отметки.
func (h *Handlers) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	if LooksLikePayload(update.Message.Text) {
		h.checkIn(ctx, b, update, update.Message.Text)
		return
	}

	h.reply(ctx, b, update, "❓ Неизвестная команда. Используйте /help")
}
