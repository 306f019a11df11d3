package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/attendance_bot/internal/checkin"
	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/Freeeeeet/attendance_bot/internal/store"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePersister struct {
	mu       sync.Mutex
	snapshot model.Snapshot
	saves    map[string]int
	err      error
}

func newFakePersister() *fakePersister {
	return &fakePersister{saves: make(map[string]int)}
}

func (p *fakePersister) Load(context.Context) (*model.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := p.snapshot
	return &snap, p.err
}

func (p *fakePersister) SaveUsers(_ context.Context, users []*model.User) error {
	return p.save("users", func() { p.snapshot.Users = users })
}

func (p *fakePersister) SaveCourses(_ context.Context, courses []*model.Course) error {
	return p.save("courses", func() { p.snapshot.Courses = courses })
}

func (p *fakePersister) SaveSessions(_ context.Context, sessions []*model.Session) error {
	return p.save("sessions", func() { p.snapshot.Sessions = sessions })
}

func (p *fakePersister) SaveRecords(_ context.Context, records []*model.AttendanceRecord) error {
	return p.save("records", func() { p.snapshot.Records = records })
}

func (p *fakePersister) save(kind string, apply func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.saves[kind]++
	apply()
	return nil
}

func (p *fakePersister) saved() model.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

// fakeScheduler запускает задачи только по Fire
type fakeScheduler struct {
	mu    sync.Mutex
	tasks map[int]func()
	next  int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{tasks: make(map[int]func())}
}

func (s *fakeScheduler) Every(_ string, _ time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	s.tasks[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.tasks, id)
	}
}

func (s *fakeScheduler) Fire() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.tasks))
	for _, fn := range s.tasks {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (s *fakeScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

type shown struct {
	instructor string
	issued     checkin.Issued
}

type testEnv struct {
	clock     *clock.Mock
	store     *store.Store
	persister *fakePersister
	scheduler *fakeScheduler

	sessions   *SessionService
	courses    *CourseService
	users      *UserService
	attendance *AttendanceService

	mu    sync.Mutex
	shown []shown
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil)
}

func newTestEnvWith(t *testing.T, snapshot *model.Snapshot) *testEnv {
	t.Helper()

	clk := clock.NewMock()
	clk.Set(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	env := &testEnv{
		clock:     clk,
		store:     store.New(snapshot),
		persister: newFakePersister(),
		scheduler: newFakeScheduler(),
	}

	logger := zap.NewNop()
	rotation := checkin.RotationConfig{Period: 60 * time.Second, Grace: 5 * time.Second, Step: time.Second}

	env.sessions = NewSessionService(env.store, env.persister, env.scheduler, clk, rotation, logger)
	env.courses = NewCourseService(env.store, env.persister, env.sessions, logger)
	env.users = NewUserService(env.store, env.persister, env.courses, clk, logger)
	env.attendance = NewAttendanceService(env.store, env.persister, env.sessions, clk, logger)

	env.sessions.SetDisplay(func(instructor string, issued checkin.Issued) {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.shown = append(env.shown, shown{instructor: instructor, issued: issued})
	})

	return env
}

func (e *testEnv) displayed() []shown {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]shown(nil), e.shown...)
}

func (e *testEnv) lastPayload(t *testing.T) string {
	t.Helper()
	all := e.displayed()
	require.NotEmpty(t, all)
	return all[len(all)-1].issued.Payload
}

// tick двигает часы на секунду и выполняет такт таймера
func (e *testEnv) tick(n int) {
	for i := 0; i < n; i++ {
		e.clock.Add(time.Second)
		e.scheduler.Fire()
	}
}

func (e *testEnv) register(t *testing.T, username string, role model.Role) *model.User {
	t.Helper()
	user, err := e.users.Register(context.Background(), RegisterInput{
		Username: username,
		Password: "secret",
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) addCourse(t *testing.T, instructor *model.User, code string) *model.Course {
	t.Helper()
	course, err := e.courses.AddCourse(context.Background(), instructor, code+" course", code)
	require.NoError(t, err)
	return course
}
