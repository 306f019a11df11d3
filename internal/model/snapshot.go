package model

// Snapshot все коллекции, прочитанные из хранилища при старте
type Snapshot struct {
	Users    []*User
	Courses  []*Course
	Sessions []*Session
	Records  []*AttendanceRecord
}
