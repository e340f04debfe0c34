// v0
// internal/circuitbreaker/breaker.go
package circuitbreaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// State is the breaker position.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned without calling the operation while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open; fast-fail")

// Config holds the breaker tunables.
type Config struct {
	MaxFailures      int           // consecutive failures before opening
	ResetTimeout     time.Duration // time spent open before a trial call is allowed
	SuccessesToClose int           // trial successes needed in HalfOpen before closing
}

// DefaultConfig mirrors the defaults used when no properties are supplied.
func DefaultConfig() Config {
	return Config{MaxFailures: 5, ResetTimeout: 30 * time.Second, SuccessesToClose: 1}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.MaxFailures < 1 {
		c.MaxFailures = d.MaxFailures
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = d.ResetTimeout
	}
	if c.SuccessesToClose < 1 {
		c.SuccessesToClose = d.SuccessesToClose
	}
	return c
}

// StateObserver is notified on every transition, typically to update a gauge.
type StateObserver func(name string, from, to State)

// Breaker is a consecutive-failure circuit breaker.
type Breaker struct {
	name     string
	cfg      Config
	logger   *slog.Logger
	observer StateObserver
	now      func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
}

// New builds a closed breaker. A nil logger discards output.
func New(name string, cfg Config, logger *slog.Logger, observer StateObserver) *Breaker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	b := &Breaker{
		name:     name,
		cfg:      cfg.normalized(),
		logger:   logger.With(slog.String("component", "circuit_breaker"), slog.String("name", name)),
		observer: observer,
		now:      time.Now,
		state:    Closed,
	}
	b.logger.Info("breaker_created",
		slog.Int("max_failures", b.cfg.MaxFailures),
		slog.Duration("reset_timeout", b.cfg.ResetTimeout),
		slog.Int("successes_to_close", b.cfg.SuccessesToClose))
	return b
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

// State returns the current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute runs op unless the breaker is open. Context cancellation is not
// counted as a failure of the protected dependency.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := op(ctx)
	switch {
	case err == nil:
		b.onSuccess()
	case errors.Is(err, context.Canceled):
	default:
		b.onFailure(err)
	}
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Open {
		return nil
	}
	since := b.now().Sub(b.openedAt)
	if since < b.cfg.ResetTimeout {
		b.logger.Warn("breaker_fast_fail", slog.Duration("since_open", since))
		return ErrOpen
	}
	b.transition(HalfOpen)
	b.successes = 0
	return nil
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	if b.state != HalfOpen {
		return
	}
	b.successes++
	if b.successes >= b.cfg.SuccessesToClose {
		b.transition(Closed)
		b.successes = 0
	}
}

func (b *Breaker) onFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.logger.Warn("operation_failure", slog.Int("failures", b.failures), slog.String("error", err.Error()))
	if b.state == HalfOpen || b.failures >= b.cfg.MaxFailures {
		b.openedAt = b.now()
		b.successes = 0
		b.transition(Open)
	}
}

// transition must be called with mu held.
func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	switch to {
	case Open:
		b.logger.Error("breaker_opened", slog.String("from", from.String()), slog.Int("failures", b.failures))
	default:
		b.logger.Info("breaker_state_change", slog.String("from", from.String()), slog.String("to", to.String()))
	}
	if b.observer != nil {
		b.observer(b.name, from, to)
	}
}
