package socialproof

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQueue_PriorityOrder(t *testing.T) {
	catalog := DefaultCatalog()
	cfg := DefaultConfig()
	cfg.GeographicChance = 1
	cfg.UrgencyChance = 1

	r := NewRotator(context.Background(), catalog, nil, &recordingSink{},
		WithConfig(cfg), WithClock(clockAt(8)), WithRand(seeded(21)))
	q := r.buildQueue()

	require.Len(t, q, 6)
	assert.Equal(t, catalog.TimeOfDay["morning"], q[:2])
	assert.Equal(t, CategoryExclusivity, q[2].Category)
	assert.Equal(t, CategoryExclusivity, q[3].Category)
	assert.NotEqual(t, q[2].Key(), q[3].Key())
	assert.Equal(t, CategoryGeographic, q[4].Category)
	assert.Equal(t, CategoryUrgency, q[5].Category)
}

func TestBuildQueue_OptionalSlotRates(t *testing.T) {
	r := NewRotator(context.Background(), DefaultCatalog(), nil, &recordingSink{},
		WithClock(clockAt(12)), WithRand(seeded(42)))

	const rounds = 4000
	var geo, urgency int
	for i := 0; i < rounds; i++ {
		for _, m := range r.buildQueue() {
			switch m.Category {
			case CategoryGeographic:
				geo++
			case CategoryUrgency:
				urgency++
			}
		}
	}

	assert.InDelta(t, 0.5, float64(geo)/rounds, 0.05)
	assert.InDelta(t, 0.3, float64(urgency)/rounds, 0.04)
}

func TestBuildQueue_DayPartByHour(t *testing.T) {
	catalog := DefaultCatalog()
	tests := []struct {
		hour int
		part string
	}{
		{0, "default"},
		{4, "default"},
		{5, "morning"},
		{10, "morning"},
		{11, "lunch"},
		{14, "lunch"},
		{15, "default"},
		{16, "default"},
		{17, "dinner"},
		{20, "dinner"},
		{21, "default"},
		{23, "default"},
	}

	for _, tt := range tests {
		r := NewRotator(context.Background(), catalog, nil, &recordingSink{},
			WithClock(clockAt(tt.hour)), WithRand(seeded(uint64(tt.hour))))
		q := r.buildQueue()
		assert.Equal(t, catalog.TimeOfDay[tt.part], q[:2], "hour %d", tt.hour)
	}
}

func TestBuildQueue_CustomDayParts(t *testing.T) {
	catalog := DefaultCatalog()
	cfg := DefaultConfig()
	cfg.DayParts = DayParts{{Name: "brunch", Start: 9, End: 13}}

	r := NewRotator(context.Background(), catalog, nil, &recordingSink{},
		WithConfig(cfg), WithClock(clockAt(10)), WithRand(seeded(8)))

	// No brunch pool exists, so the default pool is used.
	assert.Equal(t, catalog.TimeOfDay["default"], r.buildQueue()[:2])
}

func TestShuffle_Uniform(t *testing.T) {
	rng := seeded(99)
	pool := []Message{{Text: "a"}, {Text: "b"}, {Text: "c"}}

	const rounds = 60000
	perms := map[string]int{}
	for i := 0; i < rounds; i++ {
		msgs := append([]Message(nil), pool...)
		shuffle(rng, msgs)
		var b strings.Builder
		for _, m := range msgs {
			b.WriteString(m.Text)
		}
		perms[b.String()]++
	}

	require.Len(t, perms, 6)
	for p, n := range perms {
		assert.InDelta(t, rounds/6, n, 600, "permutation %s", p)
	}
}

func TestSample(t *testing.T) {
	pool := DefaultCatalog().Exclusivity

	got := sample(seeded(1), pool, 2)
	assert.Len(t, got, 2)
	assert.Len(t, sample(seeded(1), pool, 10), len(pool))
	assert.Empty(t, sample(seeded(1), pool, 0))
	assert.Equal(t, "✨", pool[0].Emoji, "sampling must not reorder the pool")
}
