package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/localplate/waitlist/internal/database"
	"github.com/localplate/waitlist/internal/models"
)

type WaitlistRepository struct {
	db *database.DB
}

func NewWaitlistRepository(db *database.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

// Insert stores a signup and fills in the generated id and timestamps.
// A second signup for the same email returns ErrAlreadyOnWaitlist.
func (r *WaitlistRepository) Insert(ctx context.Context, s *models.Signup) error {
	query := `
		INSERT INTO waitlist (first_name, last_name, email, phone, zipcode, referral_code, referred_by,
			referral_source, source, user_agent, language, tags, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, joined_at, created_at
	`

	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	metadata := s.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	err := r.db.Pool.QueryRow(ctx, query,
		s.FirstName, s.LastName, s.Email, s.Phone, s.Zipcode, s.ReferralCode, s.ReferredBy,
		s.ReferralSource, s.Source, s.UserAgent, s.Language, tags, metadata,
	).Scan(&s.ID, &s.JoinedAt, &s.CreatedAt)

	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrAlreadyOnWaitlist
		}
		return err
	}

	return nil
}

func (r *WaitlistRepository) GetByReferralCode(ctx context.Context, code string) (*models.Signup, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, zipcode, referral_code, referred_by, referral_source,
			joined_at, source, user_agent, language, tags, metadata, created_at
		FROM waitlist WHERE referral_code = $1
		ORDER BY joined_at ASC
		LIMIT 1
	`

	s := &models.Signup{}
	err := r.db.Pool.QueryRow(ctx, query, code).Scan(
		&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.Phone, &s.Zipcode, &s.ReferralCode, &s.ReferredBy,
		&s.ReferralSource, &s.JoinedAt, &s.Source, &s.UserAgent, &s.Language, &s.Tags, &s.Metadata, &s.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSignupNotFound
		}
		return nil, err
	}

	return s, nil
}

func (r *WaitlistRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM waitlist`).Scan(&count)
	return count, err
}

// CountReferredBy returns how many signups named code as their referrer.
func (r *WaitlistRepository) CountReferredBy(ctx context.Context, code string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM waitlist WHERE referred_by = $1`, code).Scan(&count)
	return count, err
}

// CommunityStats aggregates the whole waitlist; LastDaySignups counts rows
// joined at or after since.
func (r *WaitlistRepository) CommunityStats(ctx context.Context, since time.Time) (models.CommunityStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE referred_by IS NOT NULL AND referred_by <> ''),
			COUNT(*) FILTER (WHERE joined_at >= $1)
		FROM waitlist
	`

	var stats models.CommunityStats
	err := r.db.Pool.QueryRow(ctx, query, since).Scan(&stats.TotalSignups, &stats.ReferredSignups, &stats.LastDaySignups)
	return stats, err
}
