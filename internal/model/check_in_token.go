package model

import "time"

// CheckInToken эфемерный код отметки, не сохраняется
type CheckInToken struct {
	SessionID string
	CourseID  string
	IssuedAt  time.Time
	Validity  time.Duration
}

// ExpiresAt момент, после которого код больше не принимается
func (t CheckInToken) ExpiresAt() time.Time {
	return t.IssuedAt.Add(t.Validity)
}

// Remaining сколько осталось до истечения; не меньше нуля
func (t CheckInToken) Remaining(now time.Time) time.Duration {
	left := t.Validity - now.Sub(t.IssuedAt)
	if left < 0 {
		return 0
	}
	return left
}
