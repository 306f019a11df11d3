package model

import "time"

// Session одна сессия отметки посещаемости для курса
type Session struct {
	ID                 string     `json:"id"`
	CourseID           string     `json:"courseId"`
	InstructorUsername string     `json:"instructorUsername"`
	OpenedAt           time.Time  `json:"openedAt"`
	ClosedAt           *time.Time `json:"closedAt,omitempty"` // nil = сессия открыта
}

// IsOpen проверяет, что сессия ещё не закрыта
func (s *Session) IsOpen() bool {
	return s.ClosedAt == nil
}
