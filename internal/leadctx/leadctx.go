// Package leadctx records how a visitor arrived so the signup can be
// attributed. A Context is loaded per session, updated from the landing URL,
// and passed explicitly into the join flow.
package leadctx

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/localplate/waitlist/internal/referral"
)

// StorageKey is the session key holding the serialised context.
const StorageKey = "localplate:lead_context"

// UTMKeys are the query parameters merged into Context.UTMs.
var UTMKeys = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content"}

// Store is the session-scoped key/value surface the context lives in.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type Context struct {
	UTMs       map[string]string `json:"utms,omitempty"`
	LandingURL string            `json:"landing_url,omitempty"`
	Referrer   string            `json:"referrer,omitempty"`
	CapturedAt string            `json:"captured_at,omitempty"`
	Discovery  string            `json:"discovery,omitempty"`
	ReferredBy string            `json:"referred_by,omitempty"`
}

// Capture folds a landing page visit into c. UTMs merge with later values
// winning; every other field keeps its first value, except referred_by which
// follows the most recent ?ref= or ?referral=. It reports whether c changed.
func (c *Context) Capture(landing *url.URL, referrer string, now time.Time) bool {
	params := landing.Query()
	touched := false

	for _, key := range UTMKeys {
		if v := params.Get(key); v != "" {
			if c.UTMs == nil {
				c.UTMs = make(map[string]string)
			}
			if c.UTMs[key] != v {
				c.UTMs[key] = v
				touched = true
			}
		}
	}

	if c.LandingURL == "" {
		c.LandingURL = landing.Path
		if landing.RawQuery != "" {
			c.LandingURL += "?" + landing.RawQuery
		}
		touched = true
	}

	if c.Referrer == "" && referrer != "" {
		c.Referrer = referrer
		touched = true
	}

	if c.CapturedAt == "" {
		c.CapturedAt = now.UTC().Format(time.RFC3339Nano)
		touched = true
	}

	if source := params.Get("source"); source != "" && c.Discovery == "" {
		c.Discovery = source
		touched = true
	}

	ref := params.Get("ref")
	if ref == "" {
		ref = params.Get("referral")
	}
	if code := referral.Normalize(ref); code != "" && code != c.ReferredBy {
		c.ReferredBy = code
		touched = true
	}

	return touched
}

// UTM returns a single UTM value or "".
func (c *Context) UTM(key string) string {
	if c == nil || c.UTMs == nil {
		return ""
	}
	return c.UTMs[key]
}

// Load returns the session's context. Missing, unreadable or unavailable
// storage all yield an empty context.
func Load(ctx context.Context, store Store) *Context {
	raw, ok, err := store.Get(ctx, StorageKey)
	if err != nil || !ok || raw == "" {
		return &Context{}
	}
	var c Context
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return &Context{}
	}
	return &c
}

// Save persists c for the session.
func Save(ctx context.Context, store Store, c *Context) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return store.Set(ctx, StorageKey, string(raw))
}
