package handlers

import (
	"context"
	"errors"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/Freeeeeet/attendance_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireUser проверяет что пользователь существует
// Возвращает user и true если OK, nil и false если нет
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	user, err := h.userService.GetByTelegramID(telegramID)

	if errors.Is(err, service.ErrNotFound) {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Пользователь не найден. Используйте /start для регистрации.")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, MsgInternalError)
		return nil, false
	}

	return user, true
}

// requireRole проверяет роль пользователя
func (h *Handlers) requireRole(ctx context.Context, b *bot.Bot, update *models.Update, role model.Role) (*model.User, bool) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return nil, false
	}

	if user.Role != role {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Эта команда доступна только роли: "+RoleTitle(role))
		return nil, false
	}

	return user, true
}

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// reply отправляет обычный ответ
func (h *Handlers) reply(ctx context.Context, b *bot.Bot, update *models.Update, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", update.Message.Chat.ID),
			zap.Error(err),
		)
	}
}

// replyErr переводит ошибку сервиса в сообщение пользователю
func (h *Handlers) replyErr(ctx context.Context, b *bot.Bot, update *models.Update, action string, err error) {
	text := ErrorText(err)
	if text == MsgInternalError {
		h.logger.Error("Command failed", zap.String("action", action), zap.Error(err))
	}
	h.sendError(ctx, b, update.Message.Chat.ID, text)
}
