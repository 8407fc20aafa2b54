package config

import (
	"testing"
	"time"

	"github.com/localplate/waitlist/internal/socialproof"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/waitlist")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 500, cfg.Waitlist.Capacity)
	assert.Equal(t, 30*time.Second, cfg.Waitlist.InsertTimeout)
	assert.Equal(t, time.Minute, cfg.Waitlist.SuccessTTL)
	assert.Equal(t, "email_only_v1", cfg.Waitlist.EntryVariant)
	assert.Equal(t, socialproof.DefaultConfig(), cfg.SocialProof.Rotation)
}

func TestLoad_SocialProofOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/waitlist")
	t.Setenv("SOCIAL_PROOF_INTERVAL", "5s")
	t.Setenv("SOCIAL_PROOF_MAX_IMPRESSIONS", "3")
	t.Setenv("SOCIAL_PROOF_GEO_CHANCE", "0.25")
	t.Setenv("SOCIAL_PROOF_URGENCY_CHANCE", "0")
	t.Setenv("SOCIAL_PROOF_DAYPARTS", "breakfast=6-10,lunch=11-14")

	cfg, err := Load()
	require.NoError(t, err)

	rot := cfg.SocialProof.Rotation
	assert.Equal(t, 5*time.Second, rot.RotationInterval)
	assert.Equal(t, 3, rot.MaxImpressionsPerMessage)
	assert.Equal(t, 0.25, rot.GeographicChance)
	assert.Equal(t, 0.0, rot.UrgencyChance)
	assert.Equal(t, "breakfast", rot.DayParts.At(7))
	assert.Equal(t, socialproof.DefaultDayPart, rot.DayParts.At(18))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database", map[string]string{"DATABASE_URL": ""}},
		{"bad interval", map[string]string{"SOCIAL_PROOF_INTERVAL": "soon"}},
		{"zero interval", map[string]string{"SOCIAL_PROOF_INTERVAL": "0s"}},
		{"bad chance", map[string]string{"SOCIAL_PROOF_GEO_CHANCE": "half"}},
		{"chance out of range", map[string]string{"SOCIAL_PROOF_URGENCY_CHANCE": "1.5"}},
		{"bad day parts", map[string]string{"SOCIAL_PROOF_DAYPARTS": "lunch=15-11"}},
		{"bad timeout", map[string]string{"WAITLIST_INSERT_TIMEOUT": "forever"}},
		{"zero capacity", map[string]string{"WAITLIST_CAPACITY": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/waitlist")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAG_ON", "true")
	t.Setenv("FLAG_BAD", "perhaps")

	assert.True(t, getEnvBool("FLAG_ON", false))
	assert.True(t, getEnvBool("FLAG_BAD", true))
	assert.False(t, getEnvBool("FLAG_UNSET_FOR_TEST", false))
}
