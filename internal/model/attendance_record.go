package model

import "time"

// AttendanceRecord отметка студента в сессии.
// На пару (SessionID, SubjectID) приходится не более одной записи.
type AttendanceRecord struct {
	ID         string    `json:"id"`
	SubjectID  string    `json:"subjectId"` // кто отметился
	CourseID   string    `json:"courseId"`
	SessionID  string    `json:"sessionId"`
	RecordedAt time.Time `json:"recordedAt"`
}
