package checkin

import (
	"sync"
	"time"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/benbjohnson/clock"
)

const (
	DefaultRotationPeriod = 60 * time.Second
	DefaultGrace          = 5 * time.Second
	DefaultStep           = time.Second
)

// Issued выпущенный код вместе с его строковым представлением
type Issued struct {
	Token   model.CheckInToken
	Payload string
}

// Display получает каждый выпущенный код. Не должен вызывать методы контроллера.
type Display func(Issued)

// RotationConfig параметры ротации
type RotationConfig struct {
	Period time.Duration // как часто выпускать новый код
	Grace  time.Duration // запас сверх Period в окне действия
	Step   time.Duration // шаг таймера обратного отсчёта
}

func (c RotationConfig) withDefaults() RotationConfig {
	if c.Period <= 0 {
		c.Period = DefaultRotationPeriod
	}
	if c.Grace < 0 {
		c.Grace = 0
	}
	if c.Step <= 0 {
		c.Step = DefaultStep
	}
	return c
}

// Validity окно действия выпускаемых кодов
func (c RotationConfig) Validity() time.Duration {
	c = c.withDefaults()
	return c.Period + c.Grace
}

// RotationController владеет текущим кодом одной сессии
type RotationController struct {
	clock   clock.Clock
	cfg     RotationConfig
	display Display

	// emitMu упорядочивает вызовы display в порядке выпуска
	emitMu sync.Mutex

	mu        sync.Mutex
	running   bool
	sessionID string
	courseID  string
	current   *Issued
	countdown time.Duration
}

// NewRotationController создаёт контроллер. display может быть nil.
func NewRotationController(clk clock.Clock, cfg RotationConfig, display Display) *RotationController {
	if clk == nil {
		clk = clock.New()
	}
	return &RotationController{
		clock:   clk,
		cfg:     cfg.withDefaults(),
		display: display,
	}
}

// Start сразу выпускает код. Повторный вызов для той же сессии просто перевыпускает код.
func (c *RotationController) Start(sessionID, courseID string) Issued {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	c.running = true
	c.sessionID = sessionID
	c.courseID = courseID
	issued := c.issueLocked()
	c.mu.Unlock()

	c.emit(issued)
	return issued
}

// Step один такт таймера: уменьшает обратный отсчёт и перевыпускает код на нуле
func (c *RotationController) Step() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.countdown -= c.cfg.Step
	due := c.countdown <= 0
	c.mu.Unlock()

	if due {
		c.Tick()
	}
}

// Tick перевыпускает код. Для остановленного контроллера ничего не делает.
// Предыдущий код остаётся действительным до конца своего окна.
func (c *RotationController) Tick() (Issued, bool) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return Issued{}, false
	}
	issued := c.issueLocked()
	c.mu.Unlock()

	c.emit(issued)
	return issued, true
}

// Stop сбрасывает текущий код и прекращает перевыпуск
func (c *RotationController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.running = false
	c.current = nil
	c.countdown = 0
}

// Running запущена ли ротация
func (c *RotationController) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Current текущий код, если ротация запущена
func (c *RotationController) Current() (Issued, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return Issued{}, false
	}
	return *c.current, true
}

// Remaining сколько осталось до истечения текущего кода
func (c *RotationController) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return 0
	}
	return c.current.Token.Remaining(c.clock.Now())
}

// NextRotationIn сколько осталось до следующего перевыпуска
func (c *RotationController) NextRotationIn() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.countdown < 0 {
		return 0
	}
	return c.countdown
}

func (c *RotationController) issueLocked() Issued {
	// время кода хранится с точностью до миллисекунды, как на проводе
	now := time.UnixMilli(c.clock.Now().UnixMilli())

	token := model.CheckInToken{
		SessionID: c.sessionID,
		CourseID:  c.courseID,
		IssuedAt:  now,
		Validity:  c.cfg.Period + c.cfg.Grace,
	}
	issued := Issued{Token: token, Payload: Encode(token)}

	c.current = &issued
	c.countdown = c.cfg.Period
	return issued
}

func (c *RotationController) emit(issued Issued) {
	if c.display != nil {
		c.display(issued)
	}
}
