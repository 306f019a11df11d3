package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Freeeeeet/attendance_bot/internal/checkin"
	"github.com/Freeeeeet/attendance_bot/internal/controller/handlers"
	"github.com/Freeeeeet/attendance_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const displayQueueSize = 64

type displayItem struct {
	instructor string
	issued     checkin.Issued
}

type BotController struct {
	bot         *bot.Bot
	handlers    *handlers.Handlers
	userService *service.UserService
	display     chan displayItem
	logger      *zap.Logger
}

func NewBotController(
	token string,
	userService *service.UserService,
	courseService *service.CourseService,
	sessionService *service.SessionService,
	attendanceService *service.AttendanceService,
	admins handlers.AdminChecker,
	logger *zap.Logger,
) (*BotController, error) {
	// Создаём обработчики команд
	cmdHandlers := handlers.NewHandlers(
		userService,
		courseService,
		sessionService,
		attendanceService,
		admins,
		logger,
	)

	// Сообщения без команды уходят в HandleText
	botInstance, err := bot.New(token, bot.WithDefaultHandler(cmdHandlers.HandleText))
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	c := &BotController{
		bot:         botInstance,
		handlers:    cmdHandlers,
		userService: userService,
		display:     make(chan displayItem, displayQueueSize),
		logger:      logger,
	}

	// Каждый новый код отправляем преподавателю
	sessionService.SetDisplay(c.enqueueDisplay)

	return c, nil
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	commands := map[string]bot.HandlerFunc{
		"start": c.handlers.HandleStart,
		"help":  c.handlers.HandleHelp,

		"courses": c.handlers.HandleCourses,
		"stats":   c.handlers.HandleStats,
		"history": c.handlers.HandleHistory,

		// Команды для преподавателей
		"addcourse": c.handlers.HandleAddCourse,
		"delcourse": c.handlers.HandleDeleteCourse,
		"open":      c.handlers.HandleOpen,
		"close":     c.handlers.HandleClose,
		"token":     c.handlers.HandleToken,
		"regen":     c.handlers.HandleRegenerate,
		"present":   c.handlers.HandlePresent,
		"manual":    c.handlers.HandleManual,

		// Команды для студентов
		"checkin": c.handlers.HandleCheckIn,

		// Команды для администраторов
		"users":   c.handlers.HandleUsers,
		"role":    c.handlers.HandleRole,
		"deluser": c.handlers.HandleDeleteUser,
	}

	for command, handler := range commands {
		c.bot.RegisterHandler(bot.HandlerTypeMessageText, command, bot.MatchTypeCommandStartOnly, handler)
	}

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "courses", Description: "📚 Список курсов"},
		{Command: "stats", Description: "📊 Статистика посещаемости"},
		{Command: "checkin", Description: "✅ Отметиться по коду (студент)"},
		{Command: "open", Description: "🟢 Открыть сессию (преподаватель)"},
		{Command: "close", Description: "🔴 Закрыть сессию (преподаватель)"},
		{Command: "token", Description: "🔳 Текущий код (преподаватель)"},
		{Command: "present", Description: "👥 Кто отметился (преподаватель)"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	go c.runDisplay(ctx)
	c.bot.Start(ctx)
	return nil
}

// enqueueDisplay вызывается из ротации и не должен блокироваться
func (c *BotController) enqueueDisplay(instructor string, issued checkin.Issued) {
	select {
	case c.display <- displayItem{instructor: instructor, issued: issued}:
	default:
		c.logger.Warn("Display queue is full, token dropped",
			zap.String("instructor", instructor),
			zap.String("session_id", issued.Token.SessionID),
		)
	}
}

func (c *BotController) runDisplay(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-c.display:
			c.sendToken(ctx, item)
		}
	}
}

func (c *BotController) sendToken(ctx context.Context, item displayItem) {
	user, err := c.userService.GetByUsername(item.instructor)
	if err != nil || user.TelegramID == 0 {
		c.logger.Warn("No chat to display token", zap.String("instructor", item.instructor))
		return
	}

	caption := handlers.FormatToken(item.issued, item.issued.Token.Validity)

	image, err := handlers.RenderTokenQR(item.issued.Payload)
	if err != nil {
		// без картинки отправляем код текстом
		c.logger.Warn("Failed to render token QR", zap.Error(err))
		_, err = c.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: user.TelegramID,
			Text:   caption,
		})
	} else {
		_, err = c.bot.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:  user.TelegramID,
			Photo:   &models.InputFileUpload{Filename: "token.png", Data: bytes.NewReader(image)},
			Caption: caption,
		})
	}
	if err != nil {
		c.logger.Error("Failed to send token",
			zap.String("instructor", item.instructor),
			zap.Error(err),
		)
	}
}
