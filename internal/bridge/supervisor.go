// Package bridge forwards Telegram messages to one WhatsApp chat and keeps
// the WhatsApp connection alive.
package bridge

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// State of the WhatsApp connection as seen by the supervisor.
type State string

const (
	StateConnecting State = "connecting"
	StatePaired     State = "paired"
	StateDegraded   State = "degraded" // waiting to retry
	StateStopped    State = "stopped"
)

// Conn is a connection the supervisor can (re)open.
type Conn interface {
	Connect() error
	Disconnect()
}

// Policy bounds reconnect attempts.
type Policy struct {
	BackoffBase time.Duration
	BackoffMax  time.Duration
	MaxAttempts int
}

// DefaultPolicy: 2s doubling up to 60s, five attempts.
var DefaultPolicy = Policy{BackoffBase: 2 * time.Second, BackoffMax: time.Minute, MaxAttempts: 5}

func (p Policy) withDefaults() Policy {
	if p.BackoffBase <= 0 {
		p.BackoffBase = DefaultPolicy.BackoffBase
	}
	if p.BackoffMax < p.BackoffBase {
		p.BackoffMax = max(DefaultPolicy.BackoffMax, p.BackoffBase)
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	return p
}

// backoff returns the wait before the given 1-based attempt.
func (p Policy) backoff(attempt int) time.Duration {
	d := p.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.BackoffMax {
			return p.BackoffMax
		}
	}
	return min(d, p.BackoffMax)
}

type event int

const (
	evConnected event = iota
	evDisconnected
	evLoggedOut
	evRestart
)

// Supervisor owns the reconnect loop. Connection events are fed in through
// the On* methods; Run applies them.
type Supervisor struct {
	conn   Conn
	policy Policy
	after  func(time.Duration) <-chan time.Time
	events chan event
	done   chan struct{}

	mu       sync.Mutex
	state    State
	attempts int
	onChange func(State)
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithPolicy overrides DefaultPolicy.
func WithPolicy(p Policy) SupervisorOption {
	return func(s *Supervisor) { s.policy = p.withDefaults() }
}

// WithAfter replaces time.After, for tests.
func WithAfter(fn func(time.Duration) <-chan time.Time) SupervisorOption {
	return func(s *Supervisor) { s.after = fn }
}

// WithStateHook is called on every state change.
func WithStateHook(fn func(State)) SupervisorOption {
	return func(s *Supervisor) { s.onChange = fn }
}

func NewSupervisor(conn Conn, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		conn:   conn,
		policy: DefaultPolicy,
		after:  time.After,
		events: make(chan event, 16),
		done:   make(chan struct{}),
		state:  StateConnecting,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attempts is the number of failed reconnects since the last success.
func (s *Supervisor) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func (s *Supervisor) OnConnected()    { s.notify(evConnected) }
func (s *Supervisor) OnDisconnected() { s.notify(evDisconnected) }
func (s *Supervisor) OnLoggedOut()    { s.notify(evLoggedOut) }

// Restart drops the current connection and starts over with a fresh
// attempt budget. It also revives a stopped supervisor.
func (s *Supervisor) Restart() { s.notify(evRestart) }

func (s *Supervisor) notify(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// Run connects and supervises until ctx is done.
func (s *Supervisor) Run(ctx context.Context) error {
	defer close(s.done)

	var retry <-chan time.Time
	s.setState(StateConnecting)
	if !s.connect() {
		retry = s.scheduleRetry()
	}

	for {
		select {
		case <-ctx.Done():
			s.conn.Disconnect()
			s.setState(StateStopped)
			return ctx.Err()

		case <-retry:
			retry = nil
			s.setState(StateConnecting)
			if !s.connect() {
				retry = s.scheduleRetry()
			}

		case ev := <-s.events:
			switch ev {
			case evConnected:
				retry = nil
				s.mu.Lock()
				s.attempts = 0
				s.mu.Unlock()
				s.setState(StatePaired)
			case evDisconnected:
				if retry != nil || s.State() == StateStopped {
					continue
				}
				slog.Warn("whatsapp disconnected")
				retry = s.scheduleRetry()
			case evLoggedOut:
				retry = nil
				slog.Warn("whatsapp logged out, not reconnecting")
				s.setState(StateStopped)
			case evRestart:
				retry = nil
				s.conn.Disconnect()
				s.mu.Lock()
				s.attempts = 0
				s.mu.Unlock()
				s.setState(StateConnecting)
				if !s.connect() {
					retry = s.scheduleRetry()
				}
			}
		}
	}
}

func (s *Supervisor) connect() bool {
	if err := s.conn.Connect(); err != nil {
		slog.Warn("whatsapp connect failed", "err", err)
		return false
	}
	return true
}

// scheduleRetry counts a failure and returns the timer for the next
// attempt, or nil once the budget is spent.
func (s *Supervisor) scheduleRetry() <-chan time.Time {
	s.mu.Lock()
	s.attempts++
	n := s.attempts
	s.mu.Unlock()
	if n > s.policy.MaxAttempts {
		slog.Error("whatsapp reconnect attempts exhausted", "attempts", n-1)
		s.setState(StateStopped)
		return nil
	}
	d := s.policy.backoff(n)
	slog.Info("whatsapp reconnect scheduled", "attempt", n, "in", d)
	s.setState(StateDegraded)
	return s.after(d)
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	changed := s.state != st
	s.state = st
	hook := s.onChange
	s.mu.Unlock()
	if changed && hook != nil {
		hook(st)
	}
}
