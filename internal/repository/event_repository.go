package repository

import (
	"context"

	"github.com/localplate/waitlist/internal/database"
	"github.com/localplate/waitlist/internal/models"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Insert records a telemetry event.
func (r *EventRepository) Insert(ctx context.Context, e *models.Event) error {
	query := `
		INSERT INTO waitlist_events (event_type, metadata, email, referral_code, utm_source, utm_medium, utm_campaign)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, occurred_at
	`

	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return r.db.Pool.QueryRow(ctx, query,
		e.EventType, metadata, e.Email, e.ReferralCode, e.UTMSource, e.UTMMedium, e.UTMCampaign,
	).Scan(&e.ID, &e.OccurredAt)
}
