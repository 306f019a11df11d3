// Package ledger хранит отметки посещаемости и гарантирует
// не более одной записи на пару (сессия, студент).
package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/google/uuid"
)

// Outcome результат записи
type Outcome int

const (
	Recorded Outcome = iota
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Recorded:
		return "recorded"
	case Duplicate:
		return "duplicate"
	}
	return "unknown"
}

// SessionLister источник сессий для подсчёта процента посещаемости
type SessionLister interface {
	SessionsForCourses(courseIDs []string) []*model.Session
}

type key struct {
	sessionID string
	subjectID string
}

// Ledger набор отметок. Безопасен для конкурентного использования.
type Ledger struct {
	sessions SessionLister
	newID    func() string

	mu      sync.RWMutex
	records []*model.AttendanceRecord // новые в начале
	index   map[key]*model.AttendanceRecord
}

// Option настройка Ledger
type Option func(*Ledger)

// WithIDGenerator подменяет генератор идентификаторов записей
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) {
		l.newID = fn
	}
}

// New создаёт ledger из записей, загруженных из хранилища.
// Повторы пары (сессия, студент) в исходных данных отбрасываются, остаётся самая ранняя.
func New(sessions SessionLister, records []*model.AttendanceRecord, opts ...Option) *Ledger {
	l := &Ledger{
		sessions: sessions,
		newID:    func() string { return "rec_" + uuid.NewString() },
		index:    make(map[key]*model.AttendanceRecord),
	}
	for _, opt := range opts {
		opt(l)
	}

	sorted := make([]*model.AttendanceRecord, 0, len(records))
	for _, r := range records {
		if r != nil {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RecordedAt.Before(sorted[j].RecordedAt)
	})

	for _, r := range sorted {
		k := key{sessionID: r.SessionID, subjectID: r.SubjectID}
		if _, exists := l.index[k]; exists {
			continue
		}
		rec := *r
		l.index[k] = &rec
		l.records = append(l.records, &rec)
	}
	// храним от новых к старым
	for i, j := 0, len(l.records)-1; i < j; i, j = i+1, j-1 {
		l.records[i], l.records[j] = l.records[j], l.records[i]
	}

	return l
}

// Record добавляет отметку, если её ещё нет для пары (сессия, студент).
// При повторе ничего не пишет и возвращает Duplicate с существующей записью.
func (l *Ledger) Record(sessionID, subjectID, courseID string, at time.Time) (Outcome, model.AttendanceRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key{sessionID: sessionID, subjectID: subjectID}
	if existing, ok := l.index[k]; ok {
		return Duplicate, *existing
	}

	rec := &model.AttendanceRecord{
		ID:         l.newID(),
		SubjectID:  subjectID,
		CourseID:   courseID,
		SessionID:  sessionID,
		RecordedAt: at,
	}
	l.index[k] = rec
	l.records = append([]*model.AttendanceRecord{rec}, l.records...)

	return Recorded, *rec
}

// Has есть ли отметка студента в сессии
func (l *Ledger) Has(sessionID, subjectID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.index[key{sessionID: sessionID, subjectID: subjectID}]
	return ok
}

// RecordsFor отметки сессии, от последней к первой
func (l *Ledger) RecordsFor(sessionID string) []model.AttendanceRecord {
	return l.filter(func(r *model.AttendanceRecord) bool {
		return r.SessionID == sessionID
	})
}

// RecordsBySubject отметки студента, от последней к первой
func (l *Ledger) RecordsBySubject(subjectID string) []model.AttendanceRecord {
	return l.filter(func(r *model.AttendanceRecord) bool {
		return r.SubjectID == subjectID
	})
}

// RecordsForCourses отметки по набору курсов, от последней к первой
func (l *Ledger) RecordsForCourses(courseIDs []string) []model.AttendanceRecord {
	set := toSet(courseIDs)
	return l.filter(func(r *model.AttendanceRecord) bool {
		_, ok := set[r.CourseID]
		return ok
	})
}

// All все отметки, от последней к первой
func (l *Ledger) All() []model.AttendanceRecord {
	return l.filter(func(*model.AttendanceRecord) bool { return true })
}

// Len количество отметок
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// DeleteBySession удаляет все отметки сессии, возвращает сколько удалено
func (l *Ledger) DeleteBySession(sessionID string) int {
	return l.delete(func(r *model.AttendanceRecord) bool {
		return r.SessionID == sessionID
	})
}

// DeleteByCourse удаляет все отметки курса, возвращает сколько удалено
func (l *Ledger) DeleteByCourse(courseID string) int {
	return l.delete(func(r *model.AttendanceRecord) bool {
		return r.CourseID == courseID
	})
}

// AttendanceRatio доля сессий по курсам, в которых студент отметился.
// Если сессий нет, возвращает 0.
func (l *Ledger) AttendanceRatio(subjectID string, courseIDs []string) float64 {
	if len(courseIDs) == 0 || l.sessions == nil {
		return 0
	}

	sessions := l.sessions.SessionsForCourses(courseIDs)
	if len(sessions) == 0 {
		return 0
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	attended := 0
	seen := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		if _, ok := l.index[key{sessionID: s.ID, subjectID: subjectID}]; ok {
			attended++
		}
	}

	return float64(attended) / float64(len(seen))
}

func (l *Ledger) filter(keep func(*model.AttendanceRecord) bool) []model.AttendanceRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]model.AttendanceRecord, 0)
	for _, r := range l.records {
		if keep(r) {
			result = append(result, *r)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].RecordedAt.After(result[j].RecordedAt)
	})
	return result
}

func (l *Ledger) delete(match func(*model.AttendanceRecord) bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.records[:0]
	removed := 0
	for _, r := range l.records {
		if match(r) {
			delete(l.index, key{sessionID: r.SessionID, subjectID: r.SubjectID})
			removed++
			continue
		}
		kept = append(kept, r)
	}
	// обнуляем хвост, чтобы не держать ссылки
	for i := len(kept); i < len(l.records); i++ {
		l.records[i] = nil
	}
	l.records = kept

	return removed
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
