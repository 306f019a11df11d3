package app

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Scheduler управляет фоновыми периодическими задачами
type Scheduler struct {
	clock  clock.Clock
	logger *zap.Logger

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	tasks    map[*task]struct{}
	stopped  bool
	stopChan chan struct{}
}

type task struct {
	name   string
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
	ticker *clock.Ticker
}

// NewScheduler создаёт новый планировщик. clk может быть nil.
func NewScheduler(clk clock.Clock, logger *zap.Logger) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		clock:    clk,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		tasks:    make(map[*task]struct{}),
		stopChan: make(chan struct{}),
	}
}

// Start привязывает планировщик к контексту приложения
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.stopChan:
		}
	}()
}

// Stop останавливает все задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopChan)
	tasks := make([]*task, 0, len(s.tasks))
	for t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	s.logger.Info("Stopping background scheduler", zap.Int("tasks", len(tasks)))
	for _, t := range tasks {
		s.cancelTask(t)
	}
	s.cancel()
}

// Every запускает fn каждые interval. Возвращаемая функция отменяет задачу;
// после её возврата fn больше не вызывается.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) (cancel func()) {
	t := &task{
		name:   name,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		ticker: s.clock.Ticker(interval),
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		t.ticker.Stop()
		close(t.done)
		return func() {}
	}
	s.tasks[t] = struct{}{}
	s.mu.Unlock()

	go s.run(t, fn)

	return func() {
		s.cancelTask(t)
	}
}

// Len количество активных задач
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Scheduler) run(t *task, fn func()) {
	defer close(t.done)
	defer t.ticker.Stop()

	for {
		select {
		case <-t.ticker.C:
			// отмена могла прийти одновременно с тиком
			select {
			case <-t.stop:
				return
			default:
			}
			fn()
		case <-t.stop:
			s.logger.Debug("Task stopped", zap.String("task", t.name))
			return
		case <-s.ctx.Done():
			s.logger.Debug("Task cancelled", zap.String("task", t.name))
			return
		}
	}
}

func (s *Scheduler) cancelTask(t *task) {
	t.once.Do(func() {
		close(t.stop)
	})
	<-t.done

	s.mu.Lock()
	delete(s.tasks, t)
	s.mu.Unlock()
}
