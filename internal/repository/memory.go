package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/localplate/waitlist/internal/models"
)

// MemoryWaitlist is an in-process WaitlistRepository stand-in for local
// previews and tests. It enforces the same unique email rule.
type MemoryWaitlist struct {
	mu   sync.Mutex
	rows []models.Signup
	now  func() time.Time
}

func NewMemoryWaitlist() *MemoryWaitlist {
	return &MemoryWaitlist{now: time.Now}
}

func (m *MemoryWaitlist) Insert(_ context.Context, s *models.Signup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range m.rows {
		if row.Email == s.Email {
			return ErrAlreadyOnWaitlist
		}
	}
	now := m.now().UTC()
	s.ID = uuid.New()
	if s.JoinedAt.IsZero() {
		s.JoinedAt = now
	}
	s.CreatedAt = now
	m.rows = append(m.rows, *s)
	return nil
}

func (m *MemoryWaitlist) GetByReferralCode(_ context.Context, code string) (*models.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range m.rows {
		if row.ReferralCode == code {
			found := row
			return &found, nil
		}
	}
	return nil, ErrSignupNotFound
}

func (m *MemoryWaitlist) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

func (m *MemoryWaitlist) CountReferredBy(_ context.Context, code string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, row := range m.rows {
		if row.ReferredBy != nil && *row.ReferredBy == code {
			n++
		}
	}
	return n, nil
}

func (m *MemoryWaitlist) CommunityStats(_ context.Context, since time.Time) (models.CommunityStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats models.CommunityStats
	for _, row := range m.rows {
		stats.TotalSignups++
		if row.ReferredBy != nil && *row.ReferredBy != "" {
			stats.ReferredSignups++
		}
		if !row.JoinedAt.Before(since) {
			stats.LastDaySignups++
		}
	}
	return stats, nil
}

// MemoryEvents keeps telemetry events in process.
type MemoryEvents struct {
	mu     sync.Mutex
	events []models.Event
}

func (m *MemoryEvents) Insert(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.events) + 1)
	e.OccurredAt = time.Now().UTC()
	m.events = append(m.events, *e)
	return nil
}

// Events returns a copy of the recorded events.
func (m *MemoryEvents) Events() []models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Event(nil), m.events...)
}
