package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Freeeeeet/attendance_bot/internal/checkin"
	"github.com/Freeeeeet/attendance_bot/internal/ledger"
	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/Freeeeeet/attendance_bot/internal/store"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// CheckInOutcome итог попытки отметиться
type CheckInOutcome string

const (
	CheckInRecorded  CheckInOutcome = "recorded"
	CheckInDuplicate CheckInOutcome = "duplicate"
	CheckInRejected  CheckInOutcome = "rejected"
)

// CheckInResult результат отметки. Reason заполнен только для CheckInRejected.
type CheckInResult struct {
	Outcome CheckInOutcome
	Reason  checkin.RejectReason
	Record  model.AttendanceRecord
}

type AttendanceService struct {
	store     *store.Store
	persister Persister
	sessions  *SessionService
	clock     clock.Clock
	logger    *zap.Logger
}

func NewAttendanceService(st *store.Store, persister Persister, sessions *SessionService, clk clock.Clock, logger *zap.Logger) *AttendanceService {
	return &AttendanceService{
		store:     st,
		persister: persister,
		sessions:  sessions,
		clock:     clk,
		logger:    logger,
	}
}

// CheckIn отметка студента по отсканированному коду
func (s *AttendanceService) CheckIn(ctx context.Context, actor *model.User, payload string) (CheckInResult, error) {
	if actor == nil || !actor.IsLearner() {
		return CheckInResult{}, ErrForbidden
	}

	now := s.clock.Now()

	token, err := checkin.Decode(strings.TrimSpace(payload))
	if err != nil {
		s.logger.Info("Check-in rejected",
			zap.String("learner", actor.Username),
			zap.String("reason", string(checkin.ReasonMalformed)),
			zap.Error(err),
		)
		return CheckInResult{Outcome: CheckInRejected, Reason: checkin.ReasonMalformed}, nil
	}

	// ожидаемая сессия: та, что сейчас открыта по курсу из кода
	openSessionID, _ := s.sessions.OpenSessionForCourse(token.CourseID)

	verdict := checkin.ValidateToken(token, now, openSessionID)
	if !verdict.Accepted {
		s.logger.Info("Check-in rejected",
			zap.String("learner", actor.Username),
			zap.String("session_id", token.SessionID),
			zap.String("reason", string(verdict.Reason)),
		)
		return CheckInResult{Outcome: CheckInRejected, Reason: verdict.Reason}, nil
	}

	return s.record(ctx, verdict.SessionID, actor.Username, verdict.CourseID, "scan")
}

// ManualCheckIn отметка студента преподавателем в его открытой сессии, без кода
func (s *AttendanceService) ManualCheckIn(ctx context.Context, actor *model.User, learnerUsername string) (CheckInResult, error) {
	if actor == nil || !actor.IsInstructor() {
		return CheckInResult{}, ErrForbidden
	}

	session, err := s.sessions.ActiveSession(actor)
	if err != nil {
		return CheckInResult{}, err
	}

	learner, ok := s.store.User(strings.TrimSpace(learnerUsername))
	if !ok || !learner.IsLearner() {
		return CheckInResult{}, fmt.Errorf("learner %s: %w", learnerUsername, ErrNotFound)
	}

	return s.record(ctx, session.ID, learner.Username, session.CourseID, "manual")
}

func (s *AttendanceService) record(ctx context.Context, sessionID, subjectID, courseID, source string) (CheckInResult, error) {
	outcome, record := s.store.Ledger().Record(sessionID, subjectID, courseID, s.clock.Now())

	if outcome == ledger.Duplicate {
		s.logger.Info("Check-in already recorded",
			zap.String("session_id", sessionID),
			zap.String("learner", subjectID),
			zap.String("source", source),
		)
		return CheckInResult{Outcome: CheckInDuplicate, Record: record}, nil
	}

	if err := s.persister.SaveRecords(ctx, s.store.Records()); err != nil {
		s.logger.Error("Failed to persist records", zap.Error(err))
		return CheckInResult{Outcome: CheckInRecorded, Record: record}, fmt.Errorf("save records: %w", err)
	}

	s.logger.Info("Check-in recorded",
		zap.String("record_id", record.ID),
		zap.String("session_id", sessionID),
		zap.String("learner", subjectID),
		zap.String("source", source),
	)

	return CheckInResult{Outcome: CheckInRecorded, Record: record}, nil
}

// LiveRecords отметки открытой сессии преподавателя, последние первыми
func (s *AttendanceService) LiveRecords(actor *model.User) ([]model.AttendanceRecord, error) {
	session, err := s.sessions.ActiveSession(actor)
	if err != nil {
		return nil, err
	}
	return s.store.Ledger().RecordsFor(session.ID), nil
}

// CountForSession число отметок в сессии
func (s *AttendanceService) CountForSession(sessionID string) int {
	return len(s.store.Ledger().RecordsFor(sessionID))
}

// VisibleRecords отметки, которые видит пользователь:
// администратор все, преподаватель по своим курсам, студент свои
func (s *AttendanceService) VisibleRecords(actor *model.User) []model.AttendanceRecord {
	if actor == nil {
		return nil
	}

	l := s.store.Ledger()
	switch actor.Role {
	case model.RoleAdmin:
		return l.All()
	case model.RoleInstructor:
		return l.RecordsForCourses(courseIDs(s.store.CoursesByInstructor(actor.Username)))
	case model.RoleLearner:
		return l.RecordsBySubject(actor.Username)
	}
	return nil
}

// Stats посещаемость одного студента
type Stats struct {
	Username string
	Attended int     // сессий с отметкой
	Total    int     // всего сессий по курсам
	Ratio    float64 // Attended/Total, 0 если сессий нет
}

// LearnerStats посещаемость студента по курсам, где у него есть отметки
func (s *AttendanceService) LearnerStats(actor *model.User) (Stats, error) {
	if actor == nil || !actor.IsLearner() {
		return Stats{}, ErrForbidden
	}

	seen := make(map[string]struct{})
	var courses []string
	for _, r := range s.store.Ledger().RecordsBySubject(actor.Username) {
		if _, ok := seen[r.CourseID]; !ok {
			seen[r.CourseID] = struct{}{}
			courses = append(courses, r.CourseID)
		}
	}

	return s.statsFor(actor.Username, courses), nil
}

// InstructorStats посещаемость каждого студента, отмечавшегося на курсах преподавателя
func (s *AttendanceService) InstructorStats(actor *model.User) ([]Stats, error) {
	if actor == nil || !actor.IsInstructor() {
		return nil, ErrForbidden
	}

	courses := courseIDs(s.store.CoursesByInstructor(actor.Username))
	if len(s.store.SessionsForCourses(courses)) == 0 {
		return []Stats{}, nil
	}

	learners := make(map[string]struct{})
	for _, r := range s.store.Ledger().RecordsForCourses(courses) {
		learners[r.SubjectID] = struct{}{}
	}

	stats := make([]Stats, 0, len(learners))
	for username := range learners {
		stats = append(stats, s.statsFor(username, courses))
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Username < stats[j].Username
	})

	return stats, nil
}

func (s *AttendanceService) statsFor(username string, courses []string) Stats {
	l := s.store.Ledger()

	total := 0
	attended := 0
	for _, session := range s.store.SessionsForCourses(courses) {
		total++
		if l.Has(session.ID, username) {
			attended++
		}
	}

	return Stats{
		Username: username,
		Attended: attended,
		Total:    total,
		Ratio:    l.AttendanceRatio(username, courses),
	}
}

func courseIDs(courses []*model.Course) []string {
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	return ids
}
