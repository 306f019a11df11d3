package handlers

import (
	"github.com/Freeeeeet/attendance_bot/internal/service"
	"go.uber.org/zap"
)

// AdminChecker решает, кто при регистрации становится администратором
type AdminChecker interface {
	IsAdminUsername(username string) bool
}

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService       *service.UserService
	courseService     *service.CourseService
	sessionService    *service.SessionService
	attendanceService *service.AttendanceService
	admins            AdminChecker
	logger            *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	courseService *service.CourseService,
	sessionService *service.SessionService,
	attendanceService *service.AttendanceService,
	admins AdminChecker,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:       userService,
		courseService:     courseService,
		sessionService:    sessionService,
		attendanceService: attendanceService,
		admins:            admins,
		logger:            logger,
	}
}
