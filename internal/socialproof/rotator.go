// Package socialproof rotates promotional messages under a per-message
// impression cap.
//
// A Rotator owns one visitor's queue and ledger. It renders to a Sink, keeps
// the ledger in a Store, and advances on a Clock ticker until stopped.
package socialproof

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrNoMessages     = errors.New("socialproof: no messages available to display")
	ErrAlreadyStarted = errors.New("socialproof: rotator already started")
	ErrStopped        = errors.New("socialproof: rotator stopped")
)

type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Observer is notified of rotation events; metrics hang off it.
type Observer interface {
	Impression(category string)
	CappedSkip()
	QueueRebuilt()
}

type nopObserver struct{}

func (nopObserver) Impression(string) {}
func (nopObserver) CappedSkip()       {}
func (nopObserver) QueueRebuilt()     {}

type Option func(*Rotator)

func WithConfig(cfg Config) Option {
	return func(r *Rotator) { r.cfg = cfg }
}

func WithClock(c Clock) Option {
	return func(r *Rotator) { r.clock = c }
}

// WithRand fixes the random source, mainly for tests and previews.
func WithRand(rng *rand.Rand) Option {
	return func(r *Rotator) { r.rng = rng }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Rotator) { r.logger = l }
}

func WithObserver(o Observer) Option {
	return func(r *Rotator) { r.observer = o }
}

// WithReducedMotion makes Init show one static message and never rotate.
func WithReducedMotion(reduced bool) Option {
	return func(r *Rotator) { r.reducedMotion = reduced }
}

type Rotator struct {
	catalog       *Catalog
	store         Store
	sink          Sink
	cfg           Config
	clock         Clock
	rng           *rand.Rand
	logger        *zap.Logger
	observer      Observer
	reducedMotion bool

	// mu serialises ticks, direct ShowNext/Render calls and lifecycle changes.
	mu     sync.Mutex
	state  State
	queue  []Message
	cursor int
	ledger Ledger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRotator loads the ledger from store. A nil store keeps the ledger in memory.
func NewRotator(ctx context.Context, catalog *Catalog, store Store, sink Sink, opts ...Option) *Rotator {
	r := &Rotator{
		catalog:  catalog,
		store:    store,
		sink:     sink,
		cfg:      DefaultConfig(),
		clock:    SystemClock{},
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.catalog == nil {
		r.catalog = &Catalog{}
	}
	if r.store == nil {
		r.store = NewMemoryStore()
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if r.cfg.RotationInterval <= 0 {
		r.cfg.RotationInterval = DefaultConfig().RotationInterval
	}
	if r.cfg.MaxImpressionsPerMessage < 1 {
		r.cfg.MaxImpressionsPerMessage = DefaultConfig().MaxImpressionsPerMessage
	}
	if len(r.cfg.DayParts) == 0 {
		r.cfg.DayParts = DefaultDayParts()
	}

	r.ledger = loadLedger(ctx, r.store, r.cfg.StorageKey, r.logger)
	return r
}

// Init starts rotation, or renders the static message when motion is reduced.
func (r *Rotator) Init(ctx context.Context) error {
	if !r.reducedMotion {
		return r.Start(ctx)
	}

	msg, ok := r.catalog.StaticMessage()
	if !ok {
		r.logger.Warn("no static social proof message available")
		return ErrNoMessages
	}
	return r.Render(ctx, msg)
}

// Start renders the first eligible message and arms the ticker. The ticker
// goroutine lives until Stop or until ctx is done.
func (r *Rotator) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateRunning:
		return ErrAlreadyStarted
	case StateStopped:
		return ErrStopped
	}

	r.queue = r.buildQueue()
	r.cursor = 0
	if len(r.queue) == 0 {
		r.logger.Warn("no messages available to display")
		return ErrNoMessages
	}

	r.showNextLocked(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	ticker := r.clock.NewTicker(r.cfg.RotationInterval)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.state = StateRunning

	go r.loop(runCtx, ticker, r.done)
	return nil
}

func (r *Rotator) loop(ctx context.Context, ticker Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			r.tick(ctx)
		}
	}
}

func (r *Rotator) tick(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRunning || ctx.Err() != nil {
		return
	}
	r.showNextLocked(ctx)
}

// Stop halts rotation and waits for the ticker goroutine to exit. It is safe
// to call more than once but must not be called from a Sink.
func (r *Rotator) Stop() {
	r.mu.Lock()
	if r.state != StateRunning {
		r.state = StateStopped
		r.mu.Unlock()
		return
	}
	r.state = StateStopped
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	cancel()
	<-done
}

func (r *Rotator) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ShowNext renders the next message still under the cap. It reports false when
// every probed message was capped or the render failed.
func (r *Rotator) ShowNext(ctx context.Context) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.showNextLocked(ctx)
}

func (r *Rotator) showNextLocked(ctx context.Context) (Message, bool) {
	if len(r.queue) == 0 {
		r.rebuildLocked()
		if len(r.queue) == 0 {
			return Message{}, false
		}
	}

	var (
		shown Message
		found bool
	)
	n := len(r.queue)
	for probes := 0; probes < n*2; probes++ {
		msg := r.queue[r.cursor%n]
		r.cursor++
		if r.eligible(msg) {
			if err := r.renderLocked(ctx, msg); err == nil {
				shown, found = msg, true
			}
			break
		}
		r.observer.CappedSkip()
	}

	// Checked independently of the probe so an exhausted queue always recomposes.
	if r.cursor >= n {
		r.cursor = 0
		r.rebuildLocked()
	}
	return shown, found
}

func (r *Rotator) rebuildLocked() {
	r.queue = r.buildQueue()
	r.observer.QueueRebuilt()
}

func (r *Rotator) eligible(msg Message) bool {
	return r.ledger[msg.Key()] < r.cfg.MaxImpressionsPerMessage
}

// Render shows msg and records the impression. Nothing is recorded when the
// sink fails.
func (r *Rotator) Render(ctx context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renderLocked(ctx, msg)
}

func (r *Rotator) renderLocked(ctx context.Context, msg Message) error {
	if err := r.sink.Show(ctx, msg.display()); err != nil {
		r.logger.Warn("social proof render failed", zap.String("message", msg.Key()), zap.Error(err))
		return err
	}

	r.ledger[msg.Key()]++
	r.ledger.save(ctx, r.store, r.cfg.StorageKey, r.logger)
	r.observer.Impression(msg.Category)
	return nil
}

// Impressions returns a copy of the ledger.
func (r *Rotator) Impressions() Ledger {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(Ledger, len(r.ledger))
	for k, v := range r.ledger {
		out[k] = v
	}
	return out
}
