package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleUsers обрабатывает команду /users
func (h *Handlers) HandleUsers(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireRole(ctx, b, update, model.RoleAdmin)
	if !ok {
		return
	}

	users, err := h.userService.ListUsers(user)
	if err != nil {
		h.replyErr(ctx, b, update, "list_users", err)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👤 Пользователи (%d):\n\n", len(users)))
	for _, u := range users {
		sb.WriteString(fmt.Sprintf("%s — %s (%s)\n", u.Username, u.DisplayName(), RoleTitle(u.Role)))
	}
	h.reply(ctx, b, update, sb.String())
}

// HandleRole обрабатывает команду /role ЛОГИН РОЛЬ
func (h *Handlers) HandleRole(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireRole(ctx, b, update, model.RoleAdmin)
	if !ok {
		return
	}

	args := CommandArgs(update.Message.Text)
	if len(args) != 2 {
		h.reply(ctx, b, update, "Использование: /role ЛОГИН РОЛЬ (admin, instructor, learner)")
		return
	}

	role, err := model.ParseRole(args[1])
	if err != nil {
		h.reply(ctx, b, update, "❌ Неизвестная роль: "+args[1])
		return
	}

	updated, err := h.userService.ChangeRole(ctx, user, strings.TrimPrefix(args[0], "@"), role)
	if err != nil {
		h.replyErr(ctx, b, update, "change_role", err)
		return
	}

	h.reply(ctx, b, update, fmt.Sprintf("✅ %s теперь %s", updated.Username, RoleTitle(updated.Role)))
}

// HandleDeleteUser обрабатывает команду /deluser ЛОГИН
func (h *Handlers) HandleDeleteUser(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireRole(ctx, b, update, model.RoleAdmin)
	if !ok {
		return
	}

	args := CommandArgs(update.Message.Text)
	if len(args) != 1 {
		h.reply(ctx, b, update, "Использование: /deluser ЛОГИН")
		return
	}

	username := strings.TrimPrefix(args[0], "@")
	if err := h.userService.DeleteUser(ctx, user, username); err != nil {
		h.replyErr(ctx, b, update, "delete_user", err)
		return
	}

	h.reply(ctx, b, update, fmt.Sprintf("🗑 Пользователь %s удалён.", username))
}
