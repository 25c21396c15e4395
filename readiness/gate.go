// ABOUTME: Readiness gate that tracks the current signal from a factory and retries on rejection.
// ABOUTME: Waiters only ever observe the final fulfillment; READY is terminal.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrNoFactory is returned by New when the factory is nil.
	ErrNoFactory = errors.New("readiness factory must not be nil")
	// ErrNilSignal is returned when the factory yields a nil signal without an error.
	ErrNilSignal = errors.New("readiness factory returned a nil signal")
	// ErrClosed is returned by Wait once the gate has been closed before becoming ready.
	ErrClosed = errors.New("readiness gate closed")
)

// State is the lifecycle state of a Gate.
type State int

const (
	StateWaiting State = iota
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures optional Gate behavior.
type Option func(*Gate)

// WithBackoff sets the delay schedule used while the factory keeps failing or
// keeps handing back signals that are already rejected.
func WithBackoff(b BackoffConfig) Option {
	return func(g *Gate) {
		g.backoff = b
	}
}

// WithLogger sets the logger for generation transitions. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// Gate coordinates waiters on an externally produced, retryable readiness signal.
//
// The gate holds exactly one current signal. A single retry loop, started by the
// first Wait, awaits it: on fulfillment the gate becomes READY for good and the
// factory is never called again; on rejection the factory is invoked for the
// next generation and the loop awaits that one instead. Waiters block on the
// ready channel, so intermediate rejections are invisible to them.
type Gate struct {
	factory Factory
	backoff BackoffConfig
	logger  *log.Logger

	mu         sync.Mutex
	current    Signal
	currentID  ulid.ULID
	generation int
	state      State

	start     sync.Once
	ready     chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

// New creates a Gate and invokes factory once to obtain the first signal.
// A failure of that first invocation is returned to the caller.
func New(factory Factory, opts ...Option) (*Gate, error) {
	if factory == nil {
		return nil, ErrNoFactory
	}

	g := &Gate{
		factory: factory,
		backoff: DefaultBackoff(),
		logger:  log.Default(),
		ready:   make(chan struct{}),
		closed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}

	sig, err := factory()
	if err != nil {
		return nil, fmt.Errorf("obtaining first readiness signal: %w", err)
	}
	if sig == nil {
		return nil, ErrNilSignal
	}
	g.setCurrent(sig)
	return g, nil
}

// Wait blocks until the gate is READY. It returns ctx.Err() if the caller
// gives up first, and ErrClosed if the gate is closed while still waiting.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.ready:
		return nil
	default:
	}

	g.start.Do(func() {
		go g.run()
	})

	select {
	case <-g.ready:
		return nil
	case <-g.closed:
		select {
		case <-g.ready:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether the gate has reached the terminal READY state.
func (g *Gate) Ready() bool {
	select {
	case <-g.ready:
		return true
	default:
		return false
	}
}

// State returns the current lifecycle state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Generation returns how many signals the gate has adopted, starting at 1.
func (g *Gate) Generation() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generation
}

// Close stops the retry loop. Pending waiters return ErrClosed. Closing a
// READY gate leaves it READY.
func (g *Gate) Close() {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		if g.state == StateWaiting {
			g.state = StateClosed
		}
		g.mu.Unlock()
		close(g.closed)
	})
}

func (g *Gate) setCurrent(sig Signal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = sig
	g.currentID = ulid.Make()
	g.generation++
}

func (g *Gate) snapshot() (Signal, ulid.ULID, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current, g.currentID, g.generation
}

func (g *Gate) run() {
	for {
		sig, id, gen := g.snapshot()

		select {
		case <-sig.Done():
		case <-g.closed:
			return
		}

		err := sig.Err()
		if err == nil {
			g.mu.Lock()
			g.state = StateReady
			g.mu.Unlock()
			close(g.ready)
			g.logger.Printf("readiness ready generation=%d id=%s", gen, id)
			return
		}

		g.logger.Printf("readiness rejected generation=%d id=%s err=%v", gen, id, err)
		if !g.advance() {
			return
		}
	}
}

// advance invokes the factory until it yields a signal that is not already
// rejected, and makes it current. Returns false if the gate was closed.
func (g *Gate) advance() bool {
	for attempt := 0; ; attempt++ {
		sig, err := g.factory()
		switch {
		case err != nil:
			g.logger.Printf("readiness factory failed attempt=%d err=%v", attempt, err)
		case sig == nil:
			g.logger.Printf("readiness factory failed attempt=%d err=%v", attempt, ErrNilSignal)
		default:
			if done, serr := Settled(sig); !done || serr == nil {
				g.setCurrent(sig)
				return true
			}
			// The owner has not replaced the rejected signal yet.
		}

		timer := time.NewTimer(g.backoff.DelayForAttempt(attempt))
		select {
		case <-timer.C:
		case <-g.closed:
			timer.Stop()
			return false
		}
	}
}
