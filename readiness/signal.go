// ABOUTME: One-shot readiness signals: the Signal interface, an externally settled Deferred,
// ABOUTME: and helpers for pre-settled and goroutine-backed signals.
package readiness

import (
	"errors"
	"sync"
)

// ErrRejected is reported by a Deferred rejected with a nil error.
var ErrRejected = errors.New("readiness signal rejected")

// Signal is a one-shot asynchronous outcome. Done is closed once the signal
// settles; Err is nil for a fulfilled signal and non-nil for a rejected one.
// Err must only be consulted after Done is closed.
type Signal interface {
	Done() <-chan struct{}
	Err() error
}

// Factory produces a fresh Signal each time it is invoked. A non-nil error
// means the factory could not produce a signal at all.
type Factory func() (Signal, error)

// FactoryOf adapts an infallible signal producer into a Factory.
func FactoryOf(fn func() Signal) Factory {
	return func() (Signal, error) {
		return fn(), nil
	}
}

// Deferred is a Signal settled from the outside by Resolve or Reject.
// The first settlement wins.
type Deferred struct {
	once sync.Once
	done chan struct{}
	err  error
}

// NewDeferred returns a pending Deferred.
func NewDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

// Resolve fulfills the signal.
func (d *Deferred) Resolve() {
	d.settle(nil)
}

// Reject settles the signal with err. A nil err is recorded as ErrRejected.
func (d *Deferred) Reject(err error) {
	if err == nil {
		err = ErrRejected
	}
	d.settle(err)
}

func (d *Deferred) settle(err error) {
	d.once.Do(func() {
		d.err = err
		close(d.done)
	})
}

func (d *Deferred) Done() <-chan struct{} { return d.done }

func (d *Deferred) Err() error {
	select {
	case <-d.done:
		return d.err
	default:
		return nil
	}
}

// Resolved returns a signal that is already fulfilled.
func Resolved() Signal {
	d := NewDeferred()
	d.Resolve()
	return d
}

// Rejected returns a signal that is already rejected with err.
func Rejected(err error) Signal {
	d := NewDeferred()
	d.Reject(err)
	return d
}

// Go runs fn in its own goroutine and returns a signal settled with its result.
func Go(fn func() error) Signal {
	d := NewDeferred()
	go func() {
		if err := fn(); err != nil {
			d.Reject(err)
			return
		}
		d.Resolve()
	}()
	return d
}

// Settled reports, without blocking, whether s has settled and with which error.
func Settled(s Signal) (bool, error) {
	select {
	case <-s.Done():
		return true, s.Err()
	default:
		return false, nil
	}
}
