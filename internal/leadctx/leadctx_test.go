package leadctx

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore map[string]string

func (m mapStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapStore) Set(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("quota exceeded")
}

func (brokenStore) Set(context.Context, string, string) error {
	return errors.New("quota exceeded")
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestCapture_FirstVisit(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	var c Context

	touched := c.Capture(
		mustURL(t, "https://localplate.com/?utm_source=instagram&utm_campaign=spring&source=podcast&ref=%2000n90sz5%20"),
		"https://instagram.com/",
		now,
	)

	assert.True(t, touched)
	assert.Equal(t, map[string]string{"utm_source": "instagram", "utm_campaign": "spring"}, c.UTMs)
	assert.Equal(t, "/?utm_source=instagram&utm_campaign=spring&source=podcast&ref=%2000n90sz5%20", c.LandingURL)
	assert.Equal(t, "https://instagram.com/", c.Referrer)
	assert.Equal(t, "2026-05-01T09:30:00Z", c.CapturedAt)
	assert.Equal(t, "podcast", c.Discovery)
	assert.Equal(t, "00N90SZ5", c.ReferredBy)
}

func TestCapture_KeepsFirstTouch(t *testing.T) {
	first := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	c := Context{}
	c.Capture(mustURL(t, "https://localplate.com/?utm_source=x&source=blog"), "https://a.example", first)

	touched := c.Capture(
		mustURL(t, "https://localplate.com/pricing?utm_medium=email&source=tv&referral=abc12345"),
		"https://b.example",
		first.Add(time.Hour),
	)

	assert.True(t, touched)
	assert.Equal(t, map[string]string{"utm_source": "x", "utm_medium": "email"}, c.UTMs)
	assert.Equal(t, "/?utm_source=x&source=blog", c.LandingURL)
	assert.Equal(t, "https://a.example", c.Referrer)
	assert.Equal(t, "2026-05-01T09:00:00Z", c.CapturedAt)
	assert.Equal(t, "blog", c.Discovery)
	assert.Equal(t, "ABC12345", c.ReferredBy)
}

func TestCapture_NothingNew(t *testing.T) {
	now := time.Now()
	c := Context{}
	c.Capture(mustURL(t, "https://localplate.com/?utm_source=x"), "", now)

	assert.False(t, c.Capture(mustURL(t, "https://localplate.com/other?utm_source=x"), "", now))
}

func TestLoadSave(t *testing.T) {
	ctx := context.Background()
	store := mapStore{}

	assert.Equal(t, &Context{}, Load(ctx, store))

	c := &Context{UTMs: map[string]string{"utm_source": "x"}, ReferredBy: "00N90SZ5"}
	require.NoError(t, Save(ctx, store, c))
	assert.Equal(t, c, Load(ctx, store))
	assert.Equal(t, "x", Load(ctx, store).UTM("utm_source"))
}

func TestLoad_Degrades(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, &Context{}, Load(ctx, brokenStore{}))
	assert.Equal(t, &Context{}, Load(ctx, mapStore{StorageKey: "{oops"}))
	assert.Error(t, Save(ctx, brokenStore{}, &Context{}))
}

func TestUTM_Nil(t *testing.T) {
	var c *Context
	assert.Equal(t, "", c.UTM("utm_source"))
}
