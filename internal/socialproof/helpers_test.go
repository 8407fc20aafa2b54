package socialproof

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSink struct {
	mu    sync.Mutex
	shown []Display
	err   error
}

func (s *recordingSink) Show(_ context.Context, d Display) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.shown = append(s.shown, d)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shown)
}

func (s *recordingSink) all() []Display {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Display(nil), s.shown...)
}

// manualClock hands out tickers that only fire when Tick is called.
type manualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

func clockAt(hour int) *manualClock {
	return &manualClock{now: time.Date(2026, 3, 14, hour, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *manualClock) tickerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

func (c *manualClock) Tick() {
	c.mu.Lock()
	t := c.tickers[len(c.tickers)-1]
	now := c.now
	c.mu.Unlock()
	t.ch <- now
}

type manualTicker struct {
	mu      sync.Mutex
	ch      chan time.Time
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *manualTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type failingStore struct{}

var errStorageDisabled = errors.New("storage disabled")

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errStorageDisabled
}

func (failingStore) Set(context.Context, string, string) error {
	return errStorageDisabled
}

type countingObserver struct {
	mu          sync.Mutex
	impressions map[string]int
	skips       int
	rebuilds    int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{impressions: make(map[string]int)}
}

func (o *countingObserver) Impression(category string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.impressions[category]++
}

func (o *countingObserver) CappedSkip() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skips++
}

func (o *countingObserver) QueueRebuilt() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rebuilds++
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
