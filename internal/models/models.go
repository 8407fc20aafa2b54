package models

import (
	"time"

	"github.com/google/uuid"
)

// Signup is one row of the waitlist table.
type Signup struct {
	ID             uuid.UUID      `json:"id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	Zipcode        string         `json:"zipcode"`
	ReferralCode   string         `json:"referral_code"`
	ReferredBy     *string        `json:"referred_by"`
	ReferralSource *string        `json:"referral_source"`
	JoinedAt       time.Time      `json:"joined_at"`
	Source         string         `json:"source"`
	UserAgent      string         `json:"user_agent"`
	Language       string         `json:"language"`
	Tags           []string       `json:"tags"`
	Metadata       map[string]any `json:"metadata"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Event is a telemetry row in waitlist_events.
type Event struct {
	ID           int64          `json:"id"`
	EventType    string         `json:"event_type"`
	OccurredAt   time.Time      `json:"occurred_at"`
	Metadata     map[string]any `json:"metadata"`
	Email        *string        `json:"email"`
	ReferralCode *string        `json:"referral_code"`
	UTMSource    *string        `json:"utm_source"`
	UTMMedium    *string        `json:"utm_medium"`
	UTMCampaign  *string        `json:"utm_campaign"`
}

const EventLeadCaptured = "lead_captured"

type CapacityState string

const (
	CapacityOpen   CapacityState = "open"
	CapacityClosed CapacityState = "closed"
)

type CapacityStatus struct {
	Status        CapacityState `json:"status"`
	Capacity      int           `json:"capacity"`
	Joined        int           `json:"joined"`
	SpotsLeft     int           `json:"spots_left"`
	FilledPercent int           `json:"filled_percent"`
	Copy          string        `json:"copy"`
}

type Tier struct {
	Level    int    `json:"level"`
	Required int    `json:"required"`
	Reward   string `json:"reward"`
}

type ReferralStats struct {
	ReferralCode string            `json:"referral_code"`
	Referrals    int               `json:"referrals"`
	Tier         *Tier             `json:"tier,omitempty"`
	NextTier     *Tier             `json:"next_tier,omitempty"`
	ToNextTier   int               `json:"to_next_tier,omitempty"`
	ReferralLink string            `json:"referral_link,omitempty"`
	Share        map[string]string `json:"share,omitempty"`
	ShareText    string            `json:"share_text,omitempty"`
}

type CommunityStats struct {
	TotalSignups    int `json:"total_signups"`
	ReferredSignups int `json:"referred_signups"`
	LastDaySignups  int `json:"last_day_signups"`
}

// SuccessSession is what the success page reads back after a join.
type SuccessSession struct {
	Email        string    `json:"email"`
	ReferralCode string    `json:"referral_code"`
	JoinedAt     time.Time `json:"joined_at"`
	ReferralLink string    `json:"referral_link"`
}

// ReferralUpdate is pushed to a referrer when someone joins with their code.
type ReferralUpdate struct {
	ReferralCode string    `json:"referral_code"`
	Referrals    int       `json:"referrals"`
	JoinedAt     time.Time `json:"joined_at"`
}

// Request/Response DTOs
type JoinRequest struct {
	Email      string `json:"email" validate:"required,max=254"`
	ReferredBy string `json:"referred_by" validate:"omitempty,max=32"`
}

type JoinResponse struct {
	ReferralCode string `json:"referral_code"`
	ReferralLink string `json:"referral_link"`
	Redirect     string `json:"redirect"`
}

type LandingRequest struct {
	URL      string `json:"url" validate:"required,max=2048"`
	Referrer string `json:"referrer" validate:"omitempty,max=2048"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
