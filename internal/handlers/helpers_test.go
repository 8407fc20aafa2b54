package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/localplate/waitlist/internal/cache"
	"github.com/localplate/waitlist/internal/config"
	"github.com/localplate/waitlist/internal/leadctx"
	"github.com/localplate/waitlist/internal/middleware"
	"github.com/localplate/waitlist/internal/models"
	"github.com/localplate/waitlist/internal/repository"
	"github.com/localplate/waitlist/internal/services"
	"github.com/localplate/waitlist/internal/socialproof"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCache stands in for Redis: key/value, pub/sub and counters.
type memCache struct {
	mu     sync.Mutex
	values map[string]string
	subs   map[string][]chan string
}

func newMemCache() *memCache {
	return &memCache{values: map[string]string{}, subs: map[string][]chan string{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memCache) Publish(_ context.Context, channel, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs[channel] {
		select {
		case ch <- message:
		default:
		}
	}
	return nil
}

func (c *memCache) Listen(_ context.Context, channel string) (<-chan string, func() error, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan string, 8)
	c.subs[channel] = append(c.subs[channel], ch)
	return ch, func() error { return nil }, nil
}

func (c *memCache) subscribers(channel string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs[channel])
}

// memSessions hands out one MemoryStore per session id.
type memSessions struct {
	mu     sync.Mutex
	stores map[string]*socialproof.MemoryStore
}

func (s *memSessions) open(id string) leadctx.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stores == nil {
		s.stores = map[string]*socialproof.MemoryStore{}
	}
	store, ok := s.stores[id]
	if !ok {
		store = socialproof.NewMemoryStore()
		s.stores[id] = store
	}
	return store
}

type testEnv struct {
	service  *services.WaitlistService
	signups  *repository.MemoryWaitlist
	events   *repository.MemoryEvents
	cache    *memCache
	sessions *memSessions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		signups:  repository.NewMemoryWaitlist(),
		events:   &repository.MemoryEvents{},
		cache:    newMemCache(),
		sessions: &memSessions{},
	}
	env.service = services.NewWaitlistService(services.WaitlistDeps{
		Signups: env.signups,
		Events:  env.events,
		Cache:   env.cache,
		Config: config.WaitlistConfig{
			Capacity:       500,
			InsertTimeout:  time.Second,
			InsertAttempts: 1,
			EntryVariant:   "email_only_v1",
			Source:         "waitlist_email_capture",
			SuccessTTL:     time.Minute,
			StatusCacheTTL: 30 * time.Second,
		},
		PublicURL: "https://localplate.com",
	})
	return env
}

func (e *testEnv) opener() SessionOpener {
	return e.sessions.open
}

func jsonRequest(t *testing.T, method, path, session string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req = req.WithContext(middleware.WithSessionID(req.Context(), session))
	}
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

func TestFormatValidationError(t *testing.T) {
	v := newValidator()

	err := v.Struct(models.JoinRequest{})
	assert.Equal(t, "email is required", formatValidationError(err))

	long := make([]byte, 40)
	for i := range long {
		long[i] = 'A'
	}
	err = v.Struct(models.JoinRequest{Email: "a@b.c", ReferredBy: string(long)})
	assert.Equal(t, "referred_by must be at most 32 characters", formatValidationError(err))

	// Acronym fields keep their json names.
	err = v.Struct(models.LandingRequest{})
	assert.Equal(t, "url is required", formatValidationError(err))

	assert.Equal(t, "validation failed", formatValidationError(assert.AnError))
}

func TestPrimaryLanguage(t *testing.T) {
	assert.Equal(t, "en-US", primaryLanguage("en-US,en;q=0.9"))
	assert.Equal(t, "fr", primaryLanguage("fr;q=0.8"))
	assert.Equal(t, "", primaryLanguage(""))
}

func TestGetQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=3&bad=x&reduced_motion=1", nil)
	assert.Equal(t, 3, getQueryInt(req, "limit", 0))
	assert.Equal(t, 7, getQueryInt(req, "bad", 7))
	assert.Equal(t, 7, getQueryInt(req, "missing", 7))
	assert.True(t, getQueryBool(req, "reduced_motion"))
	assert.False(t, getQueryBool(req, "missing"))
}
