package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/Freeeeeet/attendance_bot/internal/store"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// passwordPrefix пароли не хэшируются по-настоящему
const passwordPrefix = "hashed_"

// courseRemover удаляет курсы преподавателя при удалении учётной записи
type courseRemover interface {
	removeCoursesOf(ctx context.Context, instructorUsername string) error
}

type UserService struct {
	store     *store.Store
	persister Persister
	courses   courseRemover
	clock     clock.Clock
	logger    *zap.Logger
}

func NewUserService(st *store.Store, persister Persister, courses *CourseService, clk clock.Clock, logger *zap.Logger) *UserService {
	return &UserService{
		store:     st,
		persister: persister,
		courses:   courses,
		clock:     clk,
		logger:    logger,
	}
}

// RegisterInput данные новой учётной записи
type RegisterInput struct {
	Username    string
	Password    string
	Role        model.Role
	Title       model.Title
	FirstName   string
	LastName    string
	Email       string
	DateOfBirth string
	Major       string
	Department  string
}

// Register создаёт учётную запись; имя должно быть свободно
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrBadRequest)
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("role %q: %w", in.Role, ErrBadRequest)
	}

	if _, exists := s.store.User(username); exists {
		return nil, fmt.Errorf("username %s: %w", username, ErrAlreadyExists)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: passwordPrefix + in.Password,
		Role:         in.Role,
		Title:        in.Title,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		DateOfBirth:  in.DateOfBirth,
		Major:        in.Major,
		Department:   in.Department,
		CreatedAt:    s.clock.Now(),
	}
	s.store.PutUser(user)

	if err := s.saveUsers(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("New user registered",
		zap.String("username", user.Username),
		zap.String("role", user.Role.String()),
	)

	return user, nil
}

// Login проверяет имя и пароль
func (s *UserService) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, ok := s.store.User(strings.TrimSpace(username))
	if !ok || user.PasswordHash != passwordPrefix+password {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// RegisterTelegramUser регистрирует или обновляет пользователя Telegram.
// Новые пользователи становятся студентами, либо администраторами если asAdmin.
func (s *UserService) RegisterTelegramUser(ctx context.Context, telegramID int64, username, firstName, lastName string, asAdmin bool) (*model.User, error) {
	// Если пользователь уже существует, обновляем данные
	if existing, ok := s.store.UserByTelegramID(telegramID); ok {
		existing.FirstName = firstName
		existing.LastName = lastName
		s.store.PutUser(existing)

		if err := s.saveUsers(ctx); err != nil {
			return nil, err
		}
		return existing, nil
	}

	if username == "" {
		username = "tg_" + strconv.FormatInt(telegramID, 10)
	}

	// Учётная запись с таким именем уже есть: привязываем, если она ещё ни к кому не привязана
	if existing, ok := s.store.User(username); ok {
		if existing.TelegramID != 0 {
			return nil, fmt.Errorf("username %s: %w", username, ErrAlreadyExists)
		}
		existing.TelegramID = telegramID
		s.store.PutUser(existing)

		if err := s.saveUsers(ctx); err != nil {
			return nil, err
		}

		s.logger.Info("Telegram linked to existing account",
			zap.String("username", username),
			zap.Int64("telegram_id", telegramID),
		)
		return existing, nil
	}

	role := model.RoleLearner // По умолчанию студент
	if asAdmin {
		role = model.RoleAdmin
	}

	user := &model.User{
		Username:  username,
		Role:      role,
		FirstName: firstName,
		LastName:  lastName,
		// Вход только через Telegram
		PasswordHash: "",
		TelegramID:   telegramID,
		CreatedAt:    s.clock.Now(),
	}
	s.store.PutUser(user)

	if err := s.saveUsers(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("New user registered",
		zap.String("username", username),
		zap.Int64("telegram_id", telegramID),
		zap.String("role", role.String()),
	)

	return user, nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (s *UserService) GetByTelegramID(telegramID int64) (*model.User, error) {
	user, ok := s.store.UserByTelegramID(telegramID)
	if !ok {
		return nil, ErrNotFound
	}
	return user, nil
}

// GetByUsername получает пользователя по имени
func (s *UserService) GetByUsername(username string) (*model.User, error) {
	user, ok := s.store.User(username)
	if !ok {
		return nil, ErrNotFound
	}
	return user, nil
}

// ProfileUpdate изменяемые поля профиля; nil = не менять
type ProfileUpdate struct {
	Title       *model.Title
	FirstName   *string
	LastName    *string
	Email       *string
	DateOfBirth *string
	Major       *string
	Department  *string
	Password    *string
}

// UpdateProfile изменяет профиль. Имя и роль так не меняются.
func (s *UserService) UpdateProfile(ctx context.Context, username string, upd ProfileUpdate) (*model.User, error) {
	user, ok := s.store.User(username)
	if !ok {
		return nil, ErrNotFound
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	if upd.Title != nil {
		user.Title = *upd.Title
	}
	setString(&user.FirstName, upd.FirstName)
	setString(&user.LastName, upd.LastName)
	setString(&user.Email, upd.Email)
	setString(&user.DateOfBirth, upd.DateOfBirth)
	setString(&user.Major, upd.Major)
	setString(&user.Department, upd.Department)
	if upd.Password != nil {
		if *upd.Password == "" {
			return nil, fmt.Errorf("empty password: %w", ErrBadRequest)
		}
		user.PasswordHash = passwordPrefix + *upd.Password
	}

	s.store.PutUser(user)
	if err := s.saveUsers(ctx); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangeRole меняет роль пользователя; доступно только администратору
func (s *UserService) ChangeRole(ctx context.Context, actor *model.User, username string, role model.Role) (*model.User, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !role.Valid() {
		return nil, fmt.Errorf("role %q: %w", role, ErrBadRequest)
	}

	user, ok := s.store.User(username)
	if !ok {
		return nil, ErrNotFound
	}

	user.Role = role
	s.store.PutUser(user)
	if err := s.saveUsers(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("User role changed",
		zap.String("username", username),
		zap.String("role", role.String()),
		zap.String("by", actor.Username),
	)

	return user, nil
}

// DeleteUser удаляет учётную запись вместе с курсами, которые она ведёт
func (s *UserService) DeleteUser(ctx context.Context, actor *model.User, username string) error {
	if actor == nil || !actor.IsAdmin() {
		return ErrForbidden
	}
	if actor.Username == username {
		return fmt.Errorf("cannot delete yourself: %w", ErrBadRequest)
	}
	if _, ok := s.store.User(username); !ok {
		return ErrNotFound
	}

	if err := s.courses.removeCoursesOf(ctx, username); err != nil {
		return fmt.Errorf("remove courses of %s: %w", username, err)
	}

	s.store.DeleteUser(username)
	if err := s.saveUsers(ctx); err != nil {
		return err
	}

	s.logger.Info("User deleted",
		zap.String("username", username),
		zap.String("by", actor.Username),
	)

	return nil
}

// ListUsers все учётные записи; доступно только администратору
func (s *UserService) ListUsers(actor *model.User) ([]*model.User, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.store.Users(), nil
}

func (s *UserService) saveUsers(ctx context.Context) error {
	if err := s.persister.SaveUsers(ctx, s.store.Users()); err != nil {
		s.logger.Error("Failed to persist users", zap.Error(err))
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}
