package socialproof

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultDayPart is used for hours no configured part covers.
const DefaultDayPart = "default"

// DayPart maps the half-open hour range [Start, End) to a time-of-day pool.
type DayPart struct {
	Name  string
	Start int
	End   int
}

// DayParts is checked in order; the first matching part wins.
type DayParts []DayPart

// DefaultDayParts: 5-11 morning, 11-15 lunch, 17-21 dinner.
func DefaultDayParts() DayParts {
	return DayParts{
		{Name: "morning", Start: 5, End: 11},
		{Name: "lunch", Start: 11, End: 15},
		{Name: "dinner", Start: 17, End: 21},
	}
}

// At returns the day part name for an hour in 0-23.
func (d DayParts) At(hour int) string {
	for _, p := range d {
		if hour >= p.Start && hour < p.End {
			return p.Name
		}
	}
	return DefaultDayPart
}

// String renders the parts in the form ParseDayParts accepts.
func (d DayParts) String() string {
	parts := make([]string, 0, len(d))
	for _, p := range d {
		parts = append(parts, fmt.Sprintf("%s=%d-%d", p.Name, p.Start, p.End))
	}
	return strings.Join(parts, ",")
}

// ParseDayParts parses "morning=5-11,lunch=11-15,dinner=17-21".
func ParseDayParts(s string) (DayParts, error) {
	var parts DayParts
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		name, hours, ok := strings.Cut(field, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("day part %q: want name=start-end", field)
		}
		from, to, ok := strings.Cut(hours, "-")
		if !ok {
			return nil, fmt.Errorf("day part %q: want name=start-end", field)
		}
		start, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("day part %q: %w", field, err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			return nil, fmt.Errorf("day part %q: %w", field, err)
		}
		if start < 0 || end > 24 || start >= end {
			return nil, fmt.Errorf("day part %q: hours must satisfy 0 <= start < end <= 24", field)
		}
		parts = append(parts, DayPart{Name: strings.TrimSpace(name), Start: start, End: end})
	}
	return parts, nil
}

// Config tunes rotation. The chances and day parts are marketing knobs.
type Config struct {
	RotationInterval         time.Duration
	MaxImpressionsPerMessage int
	StorageKey               string
	ExclusivitySample        int
	GeographicChance         float64
	UrgencyChance            float64
	DayParts                 DayParts
}

func DefaultConfig() Config {
	return Config{
		RotationInterval:         8 * time.Second,
		MaxImpressionsPerMessage: 2,
		StorageKey:               "lp_social_proof_v1",
		ExclusivitySample:        2,
		GeographicChance:         0.5,
		UrgencyChance:            0.3,
		DayParts:                 DefaultDayParts(),
	}
}

// Validate rejects settings the rotator cannot run with.
func (c Config) Validate() error {
	if c.RotationInterval <= 0 {
		return fmt.Errorf("rotation interval must be positive, got %s", c.RotationInterval)
	}
	if c.MaxImpressionsPerMessage < 1 {
		return fmt.Errorf("max impressions per message must be at least 1, got %d", c.MaxImpressionsPerMessage)
	}
	if c.StorageKey == "" {
		return fmt.Errorf("storage key is required")
	}
	if c.ExclusivitySample < 0 {
		return fmt.Errorf("exclusivity sample must not be negative, got %d", c.ExclusivitySample)
	}
	if c.GeographicChance < 0 || c.GeographicChance > 1 {
		return fmt.Errorf("geographic chance must be within [0,1], got %v", c.GeographicChance)
	}
	if c.UrgencyChance < 0 || c.UrgencyChance > 1 {
		return fmt.Errorf("urgency chance must be within [0,1], got %v", c.UrgencyChance)
	}
	return nil
}
