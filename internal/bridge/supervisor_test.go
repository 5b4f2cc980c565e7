package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeConn struct {
	mu          sync.Mutex
	errs        []error // consumed per Connect; empty means success
	always      error
	connects    int
	disconnects int
}

func (f *fakeConn) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return f.always
}

func (f *fakeConn) Disconnect() {
	f.mu.Lock()
	f.disconnects++
	f.mu.Unlock()
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

// instantAfter fires immediately and records the requested delays.
type instantAfter struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (a *instantAfter) after(d time.Duration) <-chan time.Time {
	a.mu.Lock()
	a.delays = append(a.delays, d)
	a.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func (a *instantAfter) got() []time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]time.Duration(nil), a.delays...)
}

func startSupervisor(t *testing.T, s *Supervisor) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("supervisor did not stop")
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBackoff(t *testing.T) {
	p := Policy{BackoffBase: 2 * time.Second, BackoffMax: 10 * time.Second, MaxAttempts: 5}
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for i, w := range want {
		if got := p.backoff(i + 1); got != w {
			t.Errorf("backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestPolicyDefaults(t *testing.T) {
	p := Policy{}.withDefaults()
	if p != DefaultPolicy {
		t.Fatalf("defaults = %+v", p)
	}
}

func TestSupervisorConnects(t *testing.T) {
	conn := &fakeConn{}
	s := NewSupervisor(conn)
	stop := startSupervisor(t, s)
	defer stop()

	waitFor(t, "connect", func() bool { return conn.count() == 1 })
	s.OnConnected()
	waitFor(t, "paired", func() bool { return s.State() == StatePaired })
}

func TestSupervisorGivesUpAfterMaxAttempts(t *testing.T) {
	conn := &fakeConn{always: errors.New("network down")}
	a := &instantAfter{}
	var mu sync.Mutex
	var states []State
	s := NewSupervisor(conn, WithAfter(a.after), WithStateHook(func(st State) {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
	}))
	stop := startSupervisor(t, s)
	defer stop()

	waitFor(t, "stopped", func() bool { return s.State() == StateStopped })

	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second}
	got := a.got()
	if len(got) != len(want) {
		t.Fatalf("delays = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delays = %v, want %v", got, want)
		}
	}
	if n := conn.count(); n != 6 {
		t.Fatalf("connects = %d, want 6", n)
	}
	mu.Lock()
	defer mu.Unlock()
	if states[0] != StateDegraded {
		t.Fatalf("first transition = %s, want degraded", states[0])
	}
}

func TestSupervisorSuccessResetsAttempts(t *testing.T) {
	conn := &fakeConn{errs: []error{errors.New("a"), errors.New("b")}}
	a := &instantAfter{}
	s := NewSupervisor(conn, WithAfter(a.after))
	stop := startSupervisor(t, s)
	defer stop()

	waitFor(t, "third connect", func() bool { return conn.count() == 3 })
	s.OnConnected()
	waitFor(t, "paired", func() bool { return s.State() == StatePaired })
	if n := s.Attempts(); n != 0 {
		t.Fatalf("attempts = %d, want 0", n)
	}

	// a later drop starts from the base delay again
	s.OnDisconnected()
	waitFor(t, "reconnect", func() bool { return conn.count() == 4 })
	if d := a.got(); d[len(d)-1] != 2*time.Second {
		t.Fatalf("delays = %v", d)
	}
}

func TestSupervisorLoggedOutStops(t *testing.T) {
	conn := &fakeConn{}
	a := &instantAfter{}
	s := NewSupervisor(conn, WithAfter(a.after))
	stop := startSupervisor(t, s)
	defer stop()

	waitFor(t, "connect", func() bool { return conn.count() == 1 })
	s.OnConnected()
	s.OnLoggedOut()
	waitFor(t, "stopped", func() bool { return s.State() == StateStopped })
	s.OnDisconnected()
	time.Sleep(20 * time.Millisecond)
	if n := conn.count(); n != 1 {
		t.Fatalf("connects = %d, want no reconnect after logout", n)
	}
	if len(a.got()) != 0 {
		t.Fatal("retry scheduled after logout")
	}
}

func TestSupervisorRestartRevives(t *testing.T) {
	conn := &fakeConn{}
	s := NewSupervisor(conn)
	stop := startSupervisor(t, s)
	defer stop()

	waitFor(t, "connect", func() bool { return conn.count() == 1 })
	s.OnLoggedOut()
	waitFor(t, "stopped", func() bool { return s.State() == StateStopped })

	s.Restart()
	waitFor(t, "reconnect", func() bool { return conn.count() == 2 })
	waitFor(t, "connecting", func() bool { return s.State() == StateConnecting })
	s.OnConnected()
	waitFor(t, "paired", func() bool { return s.State() == StatePaired })
}

func TestSupervisorNotifyAfterRunReturns(t *testing.T) {
	s := NewSupervisor(&fakeConn{})
	stop := startSupervisor(t, s)
	stop()
	for i := 0; i < 32; i++ {
		s.OnDisconnected() // must not block once Run is gone
	}
	if s.State() != StateStopped {
		t.Fatalf("state = %s", s.State())
	}
}
