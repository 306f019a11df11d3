package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/attendance_bot/internal/model"
)

// Persister сохраняет коллекции целиком после каждого изменения
type Persister interface {
	Load(ctx context.Context) (*model.Snapshot, error)
	SaveUsers(ctx context.Context, users []*model.User) error
	SaveCourses(ctx context.Context, courses []*model.Course) error
	SaveSessions(ctx context.Context, sessions []*model.Session) error
	SaveRecords(ctx context.Context, records []*model.AttendanceRecord) error
}

// PeriodicScheduler запускает периодические задачи; cancel гарантирует,
// что после возврата задача больше не вызывается
type PeriodicScheduler interface {
	Every(name string, interval time.Duration, fn func()) (cancel func())
}
