package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleAddCourse обрабатывает команду /addcourse КОД Название
func (h *Handlers) HandleAddCourse(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireRole(ctx, b, update, model.RoleInstructor)
	if !ok {
		return
	}

	args := CommandArgs(update.Message.Text)
	if len(args) < 2 {
		h.reply(ctx, b, update, "Использование: /addcourse КОД Название курса")
		return
	}

	code := args[0]
	name := strings.Join(args[1:], " ")
	if err := ValidateCourseInput(code, name); err != nil {
		h.reply(ctx, b, update, "❌ "+err.Error())
		return
	}

	course, err := h.courseService.AddCourse(ctx, user, name, code)
	if err != nil {
		h.replyErr(ctx, b, update, "add_course", err)
		return
	}

	h.reply(ctx, b, update, "✅ Курс добавлен\n\n"+FormatCourse(course))
}

// HandleDeleteCourse обрабатывает команду /delcourse КОД
func (h *Handlers) HandleDeleteCourse(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	course, ok := h.courseArg(ctx, b, update, "/delcourse КОД")
	if !ok {
		return
	}

	if err := h.courseService.DeleteCourse(ctx, user, course.ID); err != nil {
		h.replyErr(ctx, b, update, "delete_course", err)
		return
	}

	h.reply(ctx, b, update, fmt.Sprintf("🗑 Курс %s удалён вместе с сессиями и отметками.", course.Code))
}

// HandleOpen обрабатывает команду /open КОД
func (h *Handlers) HandleOpen(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireRole(ctx, b, update, model.RoleInstructor)
	if !ok {
		return
	}

	course, ok := h.courseArg(ctx, b, update, "/open КОД")
	if !ok {
		return
	}

	session, err := h.sessionService.OpenSession(ctx, user, course.ID)
	if err != nil {
		h.replyErr(ctx, b, update, "open_session", err)
		return
	}

	h.reply(ctx, b, update, fmt.Sprintf(
		"🟢 Сессия по курсу %s открыта в %s.\nКод будет обновляться автоматически. Закрыть: /close",
		course.Code, FormatClock(session.OpenedAt),
	))
}

// HandleClose обрабатывает команду /close
func (h *Handlers) HandleClose(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireRole(ctx, b, update, model.RoleInstructor)
	if !ok {
		return
	}

	session, err := h.sessionService.CloseSession(ctx, user)
	if err != nil {
		h.replyErr(ctx, b, update, "close_session", err)
		return
	}

	attendees := h.attendanceService.CountForSession(session.ID)
	h.reply(ctx, b, update, fmt.Sprintf("🔴 Сессия закрыта. Отметилось: %d", attendees))
}

// HandleToken обрабатывает команду /token
func (h *Handlers) HandleToken(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireRole(ctx, b, update, model.RoleInstructor)
	if !ok {
		return
	}

	issued, remaining, err := h.sessionService.CurrentToken(user)
	if err != nil {
		h.replyErr(ctx, b, update, "current_token", err)
		return
	}

	h.reply(ctx, b, update, FormatToken(issued, remaining))
}

// HandleRegenerate обрабатывает команду /regen
func (h *Handlers) HandleRegenerate(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireRole(ctx, b, update, model.RoleInstructor)
	if !ok {
		return
	}

	// Новый код придёт через display, отдельный ответ не нужен
	if _, err := h.sessionService.Regenerate(user); err != nil {
		h.replyErr(ctx, b, update, "regenerate", err)
	}
}

// HandlePresent обрабатывает команду /present
func (h *Handlers) HandlePresent(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireRole(ctx, b, update, model.RoleInstructor)
	if !ok {
		return
	}

	records, err := h.attendanceService.LiveRecords(user)
	if err != nil {
		h.replyErr(ctx, b, update, "live_records", err)
		return
	}
	if len(records) == 0 {
		h.reply(ctx, b, update, "👥 Пока никто не отметился.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👥 Отметились (%d):\n\n", len(records)))
	for _, r := range records {
		sb.WriteString(fmt.Sprintf("%s %s\n", FormatClock(r.RecordedAt), r.SubjectID))
	}
	h.reply(ctx, b, update, sb.String())
}

// HandleManual обрабатывает команду /manual ЛОГИН
func (h *Handlers) HandleManual(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireRole(ctx, b, update, model.RoleInstructor)
	if !ok {
		return
	}

	args := CommandArgs(update.Message.Text)
	if len(args) != 1 {
		h.reply(ctx, b, update, "Использование: /manual ЛОГИН")
		return
	}

	result, err := h.attendanceService.ManualCheckIn(ctx, user, strings.TrimPrefix(args[0], "@"))
	if err != nil {
		h.replyErr(ctx, b, update, "manual_check_in", err)
		return
	}

	h.reply(ctx, b, update, CheckInText(result))
}

// HandleHistory обрабатывает команду /history КОД
func (h *Handlers) HandleHistory(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	course, ok := h.courseArg(ctx, b, update, "/history КОД")
	if !ok {
		return
	}

	history, err := h.courseService.SessionHistory(user, course.ID)
	if err != nil {
		h.replyErr(ctx, b, update, "session_history", err)
		return
	}
	if len(history) == 0 {
		h.reply(ctx, b, update, fmt.Sprintf("🗓 По курсу %s сессий ещё не было.", course.Code))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🗓 Сессии курса %s:\n\n", course.Code))
	for _, item := range history {
		status := "🟢"
		if !item.Session.IsOpen() {
			status = "⚪️"
		}
		sb.WriteString(fmt.Sprintf("%s %s — %d чел.\n", status, FormatDate(item.Session.OpenedAt), item.Attendees))
	}
	h.reply(ctx, b, update, sb.String())
}

// courseArg находит курс по коду из первого аргумента команды
func (h *Handlers) courseArg(ctx context.Context, b *bot.Bot, update *models.Update, usage string) (*model.Course, bool) {
	args := CommandArgs(update.Message.Text)
	if len(args) != 1 {
		h.reply(ctx, b, update, "Использование: "+usage)
		return nil, false
	}

	course, err := h.courseService.GetByCode(args[0])
	if err != nil {
		h.sendError(ctx, b, update.Message.Chat.ID, fmt.Sprintf("❌ Курс %s не найден.", args[0]))
		return nil, false
	}
	return course, true
}
