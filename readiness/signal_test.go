// ABOUTME: Tests for Deferred settlement rules and the signal helpers.
package readiness

import (
	"errors"
	"testing"
	"time"
)

func TestDeferredFirstSettlementWins(t *testing.T) {
	d := NewDeferred()
	if d.Err() != nil {
		t.Fatal("pending deferred must not report an error")
	}

	d.Resolve()
	d.Reject(errors.New("late"))

	select {
	case <-d.Done():
	default:
		t.Fatal("expected deferred to be settled")
	}
	if d.Err() != nil {
		t.Errorf("expected fulfilled deferred, got %v", d.Err())
	}
}

func TestDeferredRejectNilUsesSentinel(t *testing.T) {
	d := NewDeferred()
	d.Reject(nil)
	if !errors.Is(d.Err(), ErrRejected) {
		t.Errorf("expected ErrRejected, got %v", d.Err())
	}
}

func TestGoSettlesWithResult(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"success", func() error { return nil }, nil},
		{"failure", func() error { return boom }, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Go(tt.fn)
			select {
			case <-s.Done():
			case <-time.After(time.Second):
				t.Fatal("signal never settled")
			}
			if !errors.Is(s.Err(), tt.want) {
				t.Errorf("expected %v, got %v", tt.want, s.Err())
			}
		})
	}
}

func TestBackoffDelayIsCapped(t *testing.T) {
	b := BackoffConfig{InitialDelay: 10 * time.Millisecond, Factor: 2, MaxDelay: 50 * time.Millisecond}

	if got := b.DelayForAttempt(0); got != 10*time.Millisecond {
		t.Errorf("attempt 0: expected 10ms, got %s", got)
	}
	if got := b.DelayForAttempt(2); got != 40*time.Millisecond {
		t.Errorf("attempt 2: expected 40ms, got %s", got)
	}
	if got := b.DelayForAttempt(10); got != 50*time.Millisecond {
		t.Errorf("attempt 10: expected cap of 50ms, got %s", got)
	}
}

func TestBackoffClampsUnsetBounds(t *testing.T) {
	def := DefaultBackoff()
	var zero BackoffConfig

	if got := zero.DelayForAttempt(0); got != def.InitialDelay {
		t.Errorf("attempt 0: expected default initial delay %s, got %s", def.InitialDelay, got)
	}
	for _, attempt := range []int{1, 64, 5000} {
		got := BackoffConfig{InitialDelay: time.Second, Factor: 10}.DelayForAttempt(attempt)
		if got <= 0 || got > def.MaxDelay {
			t.Errorf("attempt %d: expected delay in (0, %s], got %s", attempt, def.MaxDelay, got)
		}
	}
}

func TestSettled(t *testing.T) {
	d := NewDeferred()
	if done, _ := Settled(d); done {
		t.Fatal("pending deferred reported as settled")
	}
	d.Reject(errors.New("bad"))
	if done, err := Settled(d); !done || err == nil {
		t.Errorf("expected settled rejection, got done=%v err=%v", done, err)
	}
}
