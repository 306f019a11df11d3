package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/attendance_bot/internal/checkin"
	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/Freeeeeet/attendance_bot/internal/store"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DisplayFunc получает каждый выпущенный код открытой сессии преподавателя
type DisplayFunc func(instructorUsername string, issued checkin.Issued)

type liveSession struct {
	lifecycle  *checkin.Lifecycle
	cancelTick func()
}

// SessionService открывает и закрывает сессии и держит их ротацию кодов.
// У преподавателя одновременно не больше одной открытой сессии.
type SessionService struct {
	store     *store.Store
	persister Persister
	scheduler PeriodicScheduler
	clock     clock.Clock
	rotation  checkin.RotationConfig
	logger    *zap.Logger

	mu      sync.Mutex
	live    map[string]*liveSession // instructorUsername -> сессия
	display DisplayFunc
}

func NewSessionService(
	st *store.Store,
	persister Persister,
	scheduler PeriodicScheduler,
	clk clock.Clock,
	rotation checkin.RotationConfig,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		store:     st,
		persister: persister,
		scheduler: scheduler,
		clock:     clk,
		rotation:  rotation,
		logger:    logger,
		live:      make(map[string]*liveSession),
	}
}

// SetDisplay задаёт получателя выпущенных кодов
func (s *SessionService) SetDisplay(display DisplayFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.display = display
}

// CloseOrphaned закрывает сессии, оставшиеся открытыми после перезапуска
func (s *SessionService) CloseOrphaned(ctx context.Context) (int, error) {
	now := s.clock.Now()
	closed := 0

	s.mu.Lock()
	liveIDs := make(map[string]struct{}, len(s.live))
	for _, ls := range s.live {
		if sess := ls.lifecycle.Session(); sess != nil {
			liveIDs[sess.ID] = struct{}{}
		}
	}
	s.mu.Unlock()

	for _, session := range s.store.Sessions() {
		if !session.IsOpen() {
			continue
		}
		if _, ok := liveIDs[session.ID]; ok {
			continue
		}
		closedAt := now
		session.ClosedAt = &closedAt
		s.store.PutSession(session)
		closed++
	}

	if closed == 0 {
		return 0, nil
	}

	if err := s.saveSessions(ctx); err != nil {
		return closed, err
	}

	s.logger.Warn("Closed sessions left open by previous run", zap.Int("count", closed))
	return closed, nil
}

// OpenSession открывает сессию по курсу преподавателя и запускает ротацию кодов
func (s *SessionService) OpenSession(ctx context.Context, actor *model.User, courseID string) (*model.Session, error) {
	if actor == nil || !actor.IsInstructor() {
		return nil, ErrForbidden
	}

	course, ok := s.store.Course(courseID)
	if !ok {
		return nil, ErrNotFound
	}
	if course.InstructorUsername != actor.Username {
		return nil, ErrForbidden
	}

	s.mu.Lock()
	if _, exists := s.live[actor.Username]; exists {
		s.mu.Unlock()
		return nil, ErrActiveSessionExists
	}

	instructor := actor.Username
	rotation := checkin.NewRotationController(s.clock, s.rotation, func(issued checkin.Issued) {
		s.emit(instructor, issued)
	})
	lifecycle := checkin.NewLifecycle(s.clock, rotation)
	ls := &liveSession{lifecycle: lifecycle}
	s.live[instructor] = ls
	s.mu.Unlock()

	session, err := lifecycle.Open("sess_"+uuid.NewString(), course.ID, instructor)
	if err != nil {
		s.forget(instructor, ls)
		return nil, fmt.Errorf("open session: %w", err)
	}

	step := s.rotation.Step
	if step <= 0 {
		step = checkin.DefaultStep
	}
	cancel := s.scheduler.Every("rotation:"+session.ID, step, lifecycle.Step)

	s.mu.Lock()
	owned := s.live[instructor] == ls
	if owned {
		ls.cancelTick = cancel
	}
	s.mu.Unlock()

	// сессию закрыли, пока она открывалась
	if !owned {
		cancel()
		if closed, ok := lifecycle.Close(); ok {
			s.store.PutSession(closed)
			if err := s.saveSessions(ctx); err != nil {
				return nil, err
			}
		}
		s.logger.Warn("Session closed while opening",
			zap.String("session_id", session.ID),
			zap.String("instructor", instructor),
		)
		return nil, fmt.Errorf("open session: %w", ErrNoActiveSession)
	}

	s.store.PutSession(session)
	if err := s.saveSessions(ctx); err != nil {
		return session, err
	}

	s.logger.Info("Session opened",
		zap.String("session_id", session.ID),
		zap.String("course_id", course.ID),
		zap.String("instructor", instructor),
	)

	return session, nil
}

// CloseSession закрывает открытую сессию преподавателя
func (s *SessionService) CloseSession(ctx context.Context, actor *model.User) (*model.Session, error) {
	if actor == nil {
		return nil, ErrForbidden
	}

	s.mu.Lock()
	ls, ok := s.live[actor.Username]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoActiveSession
	}

	return s.close(ctx, actor.Username, ls)
}

// Regenerate сразу выпускает новый код для открытой сессии
func (s *SessionService) Regenerate(actor *model.User) (checkin.Issued, error) {
	ls, err := s.liveFor(actor)
	if err != nil {
		return checkin.Issued{}, err
	}

	session := ls.lifecycle.Session()
	if !ls.lifecycle.IsOpen() || session == nil {
		return checkin.Issued{}, ErrNoActiveSession
	}

	issued := ls.lifecycle.Rotation().Start(session.ID, session.CourseID)
	s.logger.Info("Token regenerated", zap.String("session_id", session.ID))
	return issued, nil
}

// CurrentToken текущий код и время до его истечения
func (s *SessionService) CurrentToken(actor *model.User) (checkin.Issued, time.Duration, error) {
	ls, err := s.liveFor(actor)
	if err != nil {
		return checkin.Issued{}, 0, err
	}

	issued, ok := ls.lifecycle.Rotation().Current()
	if !ok {
		return checkin.Issued{}, 0, ErrNoActiveSession
	}
	return issued, ls.lifecycle.Remaining(), nil
}

// ActiveSession открытая сессия преподавателя
func (s *SessionService) ActiveSession(actor *model.User) (*model.Session, error) {
	ls, err := s.liveFor(actor)
	if err != nil {
		return nil, err
	}
	return ls.lifecycle.Session(), nil
}

// OpenSessionForCourse ID открытой сессии курса, если она есть
func (s *SessionService) OpenSessionForCourse(courseID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ls := range s.live {
		if !ls.lifecycle.IsOpen() {
			continue
		}
		if session := ls.lifecycle.Session(); session != nil && session.CourseID == courseID {
			return session.ID, true
		}
	}
	return "", false
}

// Shutdown закрывает все открытые сессии
func (s *SessionService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	instructors := make([]string, 0, len(s.live))
	for instructor := range s.live {
		instructors = append(instructors, instructor)
	}
	s.mu.Unlock()

	for _, instructor := range instructors {
		if err := s.closeForInstructor(ctx, instructor); err != nil {
			return err
		}
	}
	return nil
}

func (s *SessionService) closeForInstructor(ctx context.Context, instructorUsername string) error {
	s.mu.Lock()
	ls, ok := s.live[instructorUsername]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	_, err := s.close(ctx, instructorUsername, ls)
	return err
}

func (s *SessionService) closeForCourse(ctx context.Context, courseID string) error {
	s.mu.Lock()
	var instructors []string
	for instructor, ls := range s.live {
		if session := ls.lifecycle.Session(); session != nil && session.CourseID == courseID {
			instructors = append(instructors, instructor)
		}
	}
	s.mu.Unlock()

	for _, instructor := range instructors {
		if err := s.closeForInstructor(ctx, instructor); err != nil {
			return err
		}
	}
	return nil
}

func (s *SessionService) close(ctx context.Context, instructor string, ls *liveSession) (*model.Session, error) {
	s.mu.Lock()
	cancel := ls.cancelTick
	s.mu.Unlock()

	// сначала останавливаем таймер, чтобы после закрытия не было поздних тиков
	if cancel != nil {
		cancel()
	}

	session, closed := ls.lifecycle.Close()
	s.forget(instructor, ls)
	if !closed {
		return ls.lifecycle.Session(), nil
	}

	s.store.PutSession(session)
	if err := s.saveSessions(ctx); err != nil {
		return session, err
	}

	s.logger.Info("Session closed",
		zap.String("session_id", session.ID),
		zap.String("instructor", instructor),
		zap.Int("attendees", len(s.store.Ledger().RecordsFor(session.ID))),
	)

	return session, nil
}

func (s *SessionService) forget(instructor string, ls *liveSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.live[instructor]; ok && current == ls {
		delete(s.live, instructor)
	}
}

func (s *SessionService) liveFor(actor *model.User) (*liveSession, error) {
	if actor == nil {
		return nil, ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ls, ok := s.live[actor.Username]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return ls, nil
}

func (s *SessionService) emit(instructor string, issued checkin.Issued) {
	s.mu.Lock()
	display := s.display
	s.mu.Unlock()

	s.logger.Debug("Token issued",
		zap.String("session_id", issued.Token.SessionID),
		zap.Time("issued_at", issued.Token.IssuedAt),
	)

	if display != nil {
		display(instructor, issued)
	}
}

func (s *SessionService) saveSessions(ctx context.Context) error {
	if err := s.persister.SaveSessions(ctx, s.store.Sessions()); err != nil {
		s.logger.Error("Failed to persist sessions", zap.Error(err))
		return fmt.Errorf("save sessions: %w", err)
	}
	return nil
}
