package socialproof

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Store persists the impression ledger. Implementations may fail; the
// rotator never surfaces those failures.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Sink receives rendered messages.
type Sink interface {
	Show(ctx context.Context, d Display) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, d Display) error

func (f SinkFunc) Show(ctx context.Context, d Display) error { return f(ctx, d) }

// MemoryStore keeps values for the life of the process.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Ledger counts renders per message key.
type Ledger map[string]int

func loadLedger(ctx context.Context, store Store, key string, logger *zap.Logger) Ledger {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		logger.Debug("impression ledger unavailable, starting empty", zap.Error(err))
		return Ledger{}
	}
	if !ok || raw == "" {
		return Ledger{}
	}

	var l Ledger
	if err := json.Unmarshal([]byte(raw), &l); err != nil || l == nil {
		logger.Debug("impression ledger unreadable, starting empty", zap.Error(err))
		return Ledger{}
	}
	return l
}

func (l Ledger) save(ctx context.Context, store Store, key string, logger *zap.Logger) {
	raw, err := json.Marshal(l)
	if err != nil {
		logger.Debug("impression ledger encode failed", zap.Error(err))
		return
	}
	if err := store.Set(ctx, key, string(raw)); err != nil {
		logger.Debug("impression ledger save failed", zap.Error(err))
	}
}
