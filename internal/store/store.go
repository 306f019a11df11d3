// Package store общее состояние процесса: учётные записи, курсы, сессии и ledger.
// Создаётся при старте из снимка хранилища и передаётся сервисам явно.
package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/Freeeeeet/attendance_bot/internal/ledger"
	"github.com/Freeeeeet/attendance_bot/internal/model"
)

type Store struct {
	mu       sync.RWMutex
	users    []*model.User
	courses  []*model.Course
	sessions []*model.Session

	ledger *ledger.Ledger
}

// New создаёт состояние из снимка. snapshot может быть nil.
func New(snapshot *model.Snapshot, opts ...ledger.Option) *Store {
	if snapshot == nil {
		snapshot = &model.Snapshot{}
	}

	s := &Store{}
	for _, u := range snapshot.Users {
		if u != nil {
			s.users = append(s.users, copyUser(u))
		}
	}
	for _, c := range snapshot.Courses {
		if c != nil {
			course := *c
			s.courses = append(s.courses, &course)
		}
	}
	for _, sess := range snapshot.Sessions {
		if sess != nil {
			s.sessions = append(s.sessions, copySession(sess))
		}
	}
	s.ledger = ledger.New(s, snapshot.Records, opts...)

	return s
}

// Ledger набор отметок
func (s *Store) Ledger() *ledger.Ledger {
	return s.ledger
}

// ============ Учётные записи ============

// Users все учётные записи
func (s *Store) Users() []*model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, copyUser(u))
	}
	return users
}

// User учётная запись по имени
func (s *Store) User(username string) (*model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return copyUser(u), true
		}
	}
	return nil, false
}

// UserByTelegramID учётная запись, привязанная к Telegram
func (s *Store) UserByTelegramID(telegramID int64) (*model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.TelegramID != 0 && u.TelegramID == telegramID {
			return copyUser(u), true
		}
	}
	return nil, false
}

// PutUser добавляет или заменяет учётную запись
func (s *Store) PutUser(user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, u := range s.users {
		if u.Username == user.Username {
			s.users[i] = copyUser(user)
			return
		}
	}
	s.users = append(s.users, copyUser(user))
}

// DeleteUser удаляет учётную запись
func (s *Store) DeleteUser(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, u := range s.users {
		if u.Username == username {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return true
		}
	}
	return false
}

// ============ Курсы ============

// Courses все курсы
func (s *Store) Courses() []*model.Course {
	return s.findCourses(func(*model.Course) bool { return true })
}

// CoursesByInstructor курсы преподавателя
func (s *Store) CoursesByInstructor(username string) []*model.Course {
	return s.findCourses(func(c *model.Course) bool {
		return c.InstructorUsername == username
	})
}

// Course курс по ID
func (s *Store) Course(id string) (*model.Course, bool) {
	courses := s.findCourses(func(c *model.Course) bool { return c.ID == id })
	if len(courses) == 0 {
		return nil, false
	}
	return courses[0], true
}

// CourseByCode курс по коду, без учёта регистра
func (s *Store) CourseByCode(code string) (*model.Course, bool) {
	courses := s.findCourses(func(c *model.Course) bool {
		return strings.EqualFold(c.Code, code)
	})
	if len(courses) == 0 {
		return nil, false
	}
	return courses[0], true
}

// PutCourse добавляет или заменяет курс
func (s *Store) PutCourse(course *model.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *course
	for i, existing := range s.courses {
		if existing.ID == course.ID {
			s.courses[i] = &c
			return
		}
	}
	s.courses = append(s.courses, &c)
}

// RemoveCourse удаляет курс вместе с его сессиями и отметками
func (s *Store) RemoveCourse(courseID string) (removedSessions, removedRecords int, ok bool) {
	s.mu.Lock()
	for i, c := range s.courses {
		if c.ID == courseID {
			s.courses = append(s.courses[:i], s.courses[i+1:]...)
			ok = true
			break
		}
	}

	kept := s.sessions[:0]
	for _, sess := range s.sessions {
		if sess.CourseID == courseID {
			removedSessions++
			continue
		}
		kept = append(kept, sess)
	}
	s.sessions = kept
	s.mu.Unlock()

	removedRecords = s.ledger.DeleteByCourse(courseID)
	return removedSessions, removedRecords, ok || removedSessions > 0 || removedRecords > 0
}

func (s *Store) findCourses(match func(*model.Course) bool) []*model.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.Course, 0)
	for _, c := range s.courses {
		if match(c) {
			course := *c
			result = append(result, &course)
		}
	}
	return result
}

// ============ Сессии ============

// Sessions все сессии
func (s *Store) Sessions() []*model.Session {
	return s.findSessions(func(*model.Session) bool { return true })
}

// Session сессия по ID
func (s *Store) Session(id string) (*model.Session, bool) {
	sessions := s.findSessions(func(sess *model.Session) bool { return sess.ID == id })
	if len(sessions) == 0 {
		return nil, false
	}
	return sessions[0], true
}

// SessionsForCourses сессии указанных курсов
func (s *Store) SessionsForCourses(courseIDs []string) []*model.Session {
	set := make(map[string]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		set[id] = struct{}{}
	}
	return s.findSessions(func(sess *model.Session) bool {
		_, ok := set[sess.CourseID]
		return ok
	})
}

// SessionHistory сессии курса, от последней к первой
func (s *Store) SessionHistory(courseID string) []*model.Session {
	sessions := s.SessionsForCourses([]string{courseID})
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].OpenedAt.After(sessions[j].OpenedAt)
	})
	return sessions
}

// PutSession добавляет или заменяет сессию
func (s *Store) PutSession(session *model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.sessions {
		if existing.ID == session.ID {
			s.sessions[i] = copySession(session)
			return
		}
	}
	s.sessions = append(s.sessions, copySession(session))
}

func (s *Store) findSessions(match func(*model.Session) bool) []*model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.Session, 0)
	for _, sess := range s.sessions {
		if match(sess) {
			result = append(result, copySession(sess))
		}
	}
	return result
}

// ============ Снимок ============

// Records все отметки в виде указателей, для сохранения
func (s *Store) Records() []*model.AttendanceRecord {
	all := s.ledger.All()
	records := make([]*model.AttendanceRecord, 0, len(all))
	for i := range all {
		records = append(records, &all[i])
	}
	return records
}

// Snapshot копия всех коллекций для сохранения
func (s *Store) Snapshot() *model.Snapshot {
	return &model.Snapshot{
		Users:    s.Users(),
		Courses:  s.Courses(),
		Sessions: s.Sessions(),
		Records:  s.Records(),
	}
}

func copyUser(u *model.User) *model.User {
	user := *u
	return &user
}

func copySession(sess *model.Session) *model.Session {
	session := *sess
	if sess.ClosedAt != nil {
		closedAt := *sess.ClosedAt
		session.ClosedAt = &closedAt
	}
	return &session
}
