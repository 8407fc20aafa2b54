package repository

import (
	"context"
	"testing"
	"time"

	"github.com/localplate/waitlist/internal/models"
	"github.com/localplate/waitlist/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWaitlist(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryWaitlist()
	joined := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return joined }

	require.NoError(t, repo.Insert(ctx, &models.Signup{Email: "a@b.c", ReferralCode: "00AAAAAA"}))
	require.NoError(t, repo.Insert(ctx, &models.Signup{Email: "d@e.f", ReferralCode: "00BBBBBB", ReferredBy: utils.StringPtr("00AAAAAA")}))
	assert.ErrorIs(t, repo.Insert(ctx, &models.Signup{Email: "a@b.c"}), ErrAlreadyOnWaitlist)

	got, err := repo.GetByReferralCode(ctx, "00BBBBBB")
	require.NoError(t, err)
	assert.Equal(t, joined, got.JoinedAt)

	_, err = repo.GetByReferralCode(ctx, "00CCCCCC")
	assert.ErrorIs(t, err, ErrSignupNotFound)

	count, _ := repo.Count(ctx)
	assert.Equal(t, 2, count)
	referred, _ := repo.CountReferredBy(ctx, "00AAAAAA")
	assert.Equal(t, 1, referred)

	stats, err := repo.CommunityStats(ctx, joined.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, models.CommunityStats{TotalSignups: 2, ReferredSignups: 1, LastDaySignups: 0}, stats)
}

func TestMemoryEvents(t *testing.T) {
	events := &MemoryEvents{}
	require.NoError(t, events.Insert(context.Background(), &models.Event{EventType: models.EventLeadCaptured}))
	require.Len(t, events.Events(), 1)
	assert.Equal(t, int64(1), events.Events()[0].ID)
}
