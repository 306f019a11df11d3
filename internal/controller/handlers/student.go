package handlers

import (
	"context"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleCheckIn обрабатывает команду /checkin КОД
func (h *Handlers) HandleCheckIn(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	payload := CommandRest(update.Message.Text)
	if payload == "" {
		h.reply(ctx, b, update, "Использование: /checkin КОД\nИли просто отправьте содержимое QR-кода.")
		return
	}

	h.checkIn(ctx, b, update, payload)
}

func (h *Handlers) checkIn(ctx context.Context, b *bot.Bot, update *models.Update, payload string) {
	user, ok := h.requireRole(ctx, b, update, model.RoleLearner)
	if !ok {
		return
	}

	result, err := h.attendanceService.CheckIn(ctx, user, payload)
	if err != nil {
		h.logger.Error("Check-in failed", zap.String("username", user.Username), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, MsgInternalError)
		return
	}

	h.reply(ctx, b, update, CheckInText(result))
}
