package checkin

import (
	"errors"
	"sync"
	"time"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/benbjohnson/clock"
)

var (
	ErrSessionAlreadyOpen = errors.New("session is already open")
	ErrSessionFinished    = errors.New("session is already closed")
)

type lifecycleState int

const (
	stateIdle lifecycleState = iota // ещё не открывалась
	stateOpen
	stateClosed // терминальное
)

// Lifecycle состояние одной сессии: Closed -> Open -> Closed.
// Открытие запускает ротацию кодов, закрытие останавливает её.
type Lifecycle struct {
	clock    clock.Clock
	rotation *RotationController

	mu      sync.Mutex
	state   lifecycleState
	session *model.Session
}

func NewLifecycle(clk clock.Clock, rotation *RotationController) *Lifecycle {
	if clk == nil {
		clk = clock.New()
	}
	return &Lifecycle{clock: clk, rotation: rotation}
}

// Open открывает сессию и выпускает первый код
func (l *Lifecycle) Open(sessionID, courseID, instructorUsername string) (*model.Session, error) {
	l.mu.Lock()
	switch l.state {
	case stateOpen:
		l.mu.Unlock()
		return nil, ErrSessionAlreadyOpen
	case stateClosed:
		l.mu.Unlock()
		return nil, ErrSessionFinished
	}

	l.session = &model.Session{
		ID:                 sessionID,
		CourseID:           courseID,
		InstructorUsername: instructorUsername,
		OpenedAt:           l.clock.Now(),
	}
	l.state = stateOpen
	session := *l.session
	l.mu.Unlock()

	l.rotation.Start(sessionID, courseID)
	return &session, nil
}

// Close закрывает сессию. Повторный вызов ничего не делает и возвращает false.
func (l *Lifecycle) Close() (*model.Session, bool) {
	l.mu.Lock()
	if l.state != stateOpen {
		l.mu.Unlock()
		return nil, false
	}

	closedAt := l.clock.Now()
	l.session.ClosedAt = &closedAt
	l.state = stateClosed
	session := *l.session
	l.mu.Unlock()

	l.rotation.Stop()
	return &session, true
}

// IsOpen открыта ли сессия
func (l *Lifecycle) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == stateOpen
}

// Session копия текущего состояния сессии; nil, если ещё не открывалась
func (l *Lifecycle) Session() *model.Session {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.session == nil {
		return nil
	}
	session := *l.session
	if session.ClosedAt != nil {
		closedAt := *session.ClosedAt
		session.ClosedAt = &closedAt
	}
	return &session
}

// Rotation контроллер кодов этой сессии
func (l *Lifecycle) Rotation() *RotationController {
	return l.rotation
}

// Step такт таймера; для закрытой сессии ничего не делает
func (l *Lifecycle) Step() {
	if !l.IsOpen() {
		return
	}
	l.rotation.Step()
}

// Remaining до истечения текущего кода
func (l *Lifecycle) Remaining() time.Duration {
	return l.rotation.Remaining()
}
