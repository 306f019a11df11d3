package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/Freeeeeet/attendance_bot/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CourseService struct {
	store     *store.Store
	persister Persister
	sessions  *SessionService
	logger    *zap.Logger
}

func NewCourseService(st *store.Store, persister Persister, sessions *SessionService, logger *zap.Logger) *CourseService {
	return &CourseService{
		store:     st,
		persister: persister,
		sessions:  sessions,
		logger:    logger,
	}
}

// AddCourse создаёт курс от имени преподавателя
func (s *CourseService) AddCourse(ctx context.Context, actor *model.User, name, code string) (*model.Course, error) {
	if actor == nil || !actor.IsInstructor() {
		return nil, ErrForbidden
	}

	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if name == "" || code == "" {
		return nil, fmt.Errorf("course name and code are required: %w", ErrBadRequest)
	}

	if _, exists := s.store.CourseByCode(code); exists {
		return nil, fmt.Errorf("course code %s: %w", code, ErrAlreadyExists)
	}

	course := &model.Course{
		ID:                 "sub_" + uuid.NewString(),
		Name:               name,
		Code:               code,
		InstructorUsername: actor.Username,
	}
	s.store.PutCourse(course)

	if err := s.persister.SaveCourses(ctx, s.store.Courses()); err != nil {
		return nil, fmt.Errorf("save courses: %w", err)
	}

	s.logger.Info("Course created",
		zap.String("course_id", course.ID),
		zap.String("code", course.Code),
		zap.String("instructor", actor.Username),
	)

	return course, nil
}

// GetByCode получает курс по коду
func (s *CourseService) GetByCode(code string) (*model.Course, error) {
	course, ok := s.store.CourseByCode(strings.TrimSpace(code))
	if !ok {
		return nil, ErrNotFound
	}
	return course, nil
}

// VisibleCourses курсы, которые видит пользователь:
// администратор и студент все, преподаватель только свои
func (s *CourseService) VisibleCourses(actor *model.User) []*model.Course {
	if actor == nil {
		return nil
	}
	switch actor.Role {
	case model.RoleInstructor:
		return s.store.CoursesByInstructor(actor.Username)
	case model.RoleAdmin, model.RoleLearner:
		return s.store.Courses()
	}
	return nil
}

// DeleteCourse удаляет курс вместе с сессиями и отметками.
// Разрешено владельцу курса и администратору.
func (s *CourseService) DeleteCourse(ctx context.Context, actor *model.User, courseID string) error {
	course, ok := s.store.Course(courseID)
	if !ok {
		return ErrNotFound
	}
	if actor == nil || !(actor.IsAdmin() || actor.Username == course.InstructorUsername) {
		return ErrForbidden
	}

	if err := s.removeCourse(ctx, course); err != nil {
		return err
	}

	s.logger.Info("Course deleted",
		zap.String("course_id", course.ID),
		zap.String("by", actor.Username),
	)
	return nil
}

// SessionSummary сессия и число отметившихся
type SessionSummary struct {
	Session   *model.Session
	Attendees int
}

// SessionHistory история сессий курса, от последней к первой
func (s *CourseService) SessionHistory(actor *model.User, courseID string) ([]SessionSummary, error) {
	course, ok := s.store.Course(courseID)
	if !ok {
		return nil, ErrNotFound
	}
	if actor == nil || !(actor.IsAdmin() || actor.Username == course.InstructorUsername) {
		return nil, ErrForbidden
	}

	sessions := s.store.SessionHistory(courseID)
	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, SessionSummary{
			Session:   session,
			Attendees: len(s.store.Ledger().RecordsFor(session.ID)),
		})
	}
	return summaries, nil
}

func (s *CourseService) removeCoursesOf(ctx context.Context, instructorUsername string) error {
	for _, course := range s.store.CoursesByInstructor(instructorUsername) {
		if err := s.removeCourse(ctx, course); err != nil {
			return err
		}
	}
	// сессия могла быть открыта и без курса в хранилище
	return s.sessions.closeForInstructor(ctx, instructorUsername)
}

func (s *CourseService) removeCourse(ctx context.Context, course *model.Course) error {
	// останавливаем ротацию до удаления сессий
	if err := s.sessions.closeForCourse(ctx, course.ID); err != nil {
		return err
	}

	removedSessions, removedRecords, _ := s.store.RemoveCourse(course.ID)

	if err := s.persister.SaveCourses(ctx, s.store.Courses()); err != nil {
		return fmt.Errorf("save courses: %w", err)
	}
	if err := s.persister.SaveSessions(ctx, s.store.Sessions()); err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	if err := s.persister.SaveRecords(ctx, s.store.Records()); err != nil {
		return fmt.Errorf("save records: %w", err)
	}

	s.logger.Info("Course data removed",
		zap.String("course_id", course.ID),
		zap.Int("sessions", removedSessions),
		zap.Int("records", removedRecords),
	)
	return nil
}
