package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/localplate/waitlist/internal/cache"
	"github.com/localplate/waitlist/internal/config"
	"github.com/localplate/waitlist/internal/leadctx"
	"github.com/localplate/waitlist/internal/models"
	"github.com/localplate/waitlist/internal/referral"
	"github.com/localplate/waitlist/internal/repository"
	"github.com/localplate/waitlist/internal/share"
	"github.com/localplate/waitlist/internal/utils"
	"go.uber.org/zap"
)

var (
	ErrInvalidEmail        = errors.New("please enter a valid email address")
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrReferralNotFound    = errors.New("referral code not found")
	ErrNoSuccessSession    = errors.New("no recent signup for this session")
	ErrSuccessExpired      = errors.New("signup confirmation expired")
	ErrInvalidLandingURL   = errors.New("invalid landing url")
)

// User-facing join failures.
const (
	MsgDuplicate = "This email is already on the waitlist."
	MsgTimeout   = "Request timed out. Please try again."
	MsgNetwork   = "Network error. Please check your connection and try again."
	MsgGeneric   = "Something went wrong. Please try again."
)

// Signup outcomes reported to the SignupObserver.
const (
	OutcomeJoined    = "joined"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)

const (
	successKey        = "localplate:success"
	statusCacheKey    = "waitlist:capacity_status"
	referralChannelNS = "referral-updates:"
)

// Tiers are the referral rewards in ascending order.
var Tiers = []models.Tier{
	{Level: 1, Required: 1, Reward: "Early Access Badge"},
	{Level: 2, Required: 3, Reward: "One Month Free"},
	{Level: 3, Required: 5, Reward: "Swag Pack"},
}

// ReferralChannel is the pub/sub channel carrying updates for a referrer.
func ReferralChannel(code string) string {
	return referralChannelNS + code
}

type SignupStore interface {
	Insert(ctx context.Context, s *models.Signup) error
	GetByReferralCode(ctx context.Context, code string) (*models.Signup, error)
	Count(ctx context.Context) (int, error)
	CountReferredBy(ctx context.Context, code string) (int, error)
	CommunityStats(ctx context.Context, since time.Time) (models.CommunityStats, error)
}

type EventStore interface {
	Insert(ctx context.Context, e *models.Event) error
}

// Cache is the shared (not session-scoped) Redis surface the service uses.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Publish(ctx context.Context, channel, message string) error
}

type Notifier interface {
	SendWaitlistConfirmation(email, referralCode, referralLink string) error
}

type SignupObserver interface {
	ObserveSignup(outcome string)
}

// WaitlistDeps wires a WaitlistService. Cache, Events, Notifier, Observer
// and Logger are optional.
type WaitlistDeps struct {
	Signups   SignupStore
	Events    EventStore
	Cache     Cache
	Notifier  Notifier
	Observer  SignupObserver
	Logger    *zap.Logger
	Config    config.WaitlistConfig
	PublicURL string
}

type WaitlistService struct {
	signups    SignupStore
	events     EventStore
	cache      Cache
	notifier   Notifier
	observer   SignupObserver
	logger     *zap.Logger
	cfg        config.WaitlistConfig
	publicURL  string
	now        func() time.Time
	retryDelay time.Duration
}

func NewWaitlistService(deps WaitlistDeps) *WaitlistService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := deps.Config
	if cfg.InsertAttempts < 1 {
		cfg.InsertAttempts = 1
	}
	if cfg.InsertTimeout <= 0 {
		cfg.InsertTimeout = 30 * time.Second
	}
	if cfg.SuccessTTL <= 0 {
		cfg.SuccessTTL = time.Minute
	}
	return &WaitlistService{
		signups:    deps.Signups,
		events:     deps.Events,
		cache:      deps.Cache,
		notifier:   deps.Notifier,
		observer:   deps.Observer,
		logger:     logger.Named("waitlist"),
		cfg:        cfg,
		publicURL:  deps.PublicURL,
		now:        time.Now,
		retryDelay: 200 * time.Millisecond,
	}
}

// JoinError is a failed join with the message shown to the visitor.
type JoinError struct {
	Message string
	Err     error
}

func (e *JoinError) Error() string { return e.Message }
func (e *JoinError) Unwrap() error { return e.Err }

type JoinInput struct {
	Email      string
	ReferredBy string
	UserAgent  string
	Language   string
	Referrer   string
	// Lead is loaded from Session when nil.
	Lead    *leadctx.Context
	Session leadctx.Store
}

type JoinResult struct {
	Signup       *models.Signup
	ReferralLink string
}

// Join validates and stores a signup. Only validation and insert failures
// are returned; the success session, telemetry, referrer update and
// confirmation email are best effort.
func (s *WaitlistService) Join(ctx context.Context, in JoinInput) (*JoinResult, error) {
	if !utils.ValidateEmail(in.Email) {
		s.observe(OutcomeInvalid)
		return nil, ErrInvalidEmail
	}

	lead := in.Lead
	if lead == nil {
		lead = &leadctx.Context{}
		if in.Session != nil {
			lead = leadctx.Load(ctx, in.Session)
		}
	}

	email := utils.NormalizeEmail(in.Email)
	code := referral.Generate(email)
	referredBy := s.resolveReferrer(in.ReferredBy, lead, code)

	signup := s.buildSignup(email, code, referredBy, lead, in)
	log := s.logger.With(zap.String("email_fp", utils.EmailFingerprint(email)), zap.String("referral_code", code))

	if err := s.insert(ctx, signup, log); err != nil {
		if errors.Is(err, repository.ErrAlreadyOnWaitlist) {
			s.observe(OutcomeDuplicate)
		} else {
			s.observe(OutcomeError)
			log.Error("waitlist insert failed", zap.Error(err))
		}
		return nil, &JoinError{Message: friendlyMessage(err), Err: err}
	}
	s.observe(OutcomeJoined)

	link := share.ReferralLink(s.publicURL, code)
	result := &JoinResult{Signup: signup, ReferralLink: link}

	if in.Session != nil {
		if err := s.storeSuccess(ctx, in.Session, signup, link); err != nil {
			log.Warn("success session not stored", zap.Error(err))
		}
	}
	s.logTelemetry(ctx, signup, lead, log)
	if referredBy != "" {
		s.publishReferral(ctx, referredBy, signup.JoinedAt, log)
	}
	if s.notifier != nil {
		if err := s.notifier.SendWaitlistConfirmation(email, code, link); err != nil {
			log.Warn("confirmation email failed", zap.Error(err))
		}
	}

	log.Info("lead captured", zap.Bool("referred", referredBy != ""))
	return result, nil
}

// resolveReferrer prefers the explicit code over the lead context and
// drops malformed codes and self-referrals.
func (s *WaitlistService) resolveReferrer(explicit string, lead *leadctx.Context, own string) string {
	code := referral.Normalize(explicit)
	if code == "" {
		code = referral.Normalize(lead.ReferredBy)
	}
	if !referral.Valid(code) || code == own {
		return ""
	}
	return code
}

func (s *WaitlistService) buildSignup(email, code, referredBy string, lead *leadctx.Context, in JoinInput) *models.Signup {
	utms := lead.UTMs
	if utms == nil {
		utms = map[string]string{}
	}
	referrer := lead.Referrer
	if referrer == "" {
		referrer = in.Referrer
	}
	capturedAt := lead.CapturedAt
	if capturedAt == "" {
		capturedAt = s.now().UTC().Format(time.RFC3339Nano)
	}

	return &models.Signup{
		Email:          email,
		ReferralCode:   code,
		ReferredBy:     utils.StringPtr(referredBy),
		ReferralSource: utils.StringPtr(lead.Discovery),
		Source:         s.cfg.Source,
		UserAgent:      in.UserAgent,
		Language:       in.Language,
		Tags:           []string{s.cfg.EntryVariant},
		Metadata: utils.SanitizeMetadata(map[string]any{
			"utms":          utms,
			"landing_url":   lead.LandingURL,
			"referrer":      referrer,
			"captured_at":   capturedAt,
			"entry_variant": s.cfg.EntryVariant,
		}),
	}
}

func (s *WaitlistService) insert(ctx context.Context, signup *models.Signup, log *zap.Logger) error {
	var lastErr error
	err := retry.Do(
		func() error {
			insertCtx, cancel := context.WithTimeout(ctx, s.cfg.InsertTimeout)
			defer cancel()
			lastErr = s.signups.Insert(insertCtx, signup)
			return lastErr
		},
		retry.Attempts(uint(s.cfg.InsertAttempts)),
		retry.Delay(s.retryDelay),
		retry.MaxDelay(2*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("retrying waitlist insert", zap.Uint("attempt", n+1), zap.Error(err))
		}),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, repository.ErrAlreadyOnWaitlist)
		}),
	)
	if err == nil {
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return err
}

func friendlyMessage(err error) string {
	if errors.Is(err, repository.ErrAlreadyOnWaitlist) {
		return MsgDuplicate
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return MsgTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return MsgTimeout
		}
		return MsgNetwork
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return MsgTimeout
	case strings.Contains(msg, "network"), strings.Contains(msg, "connection refused"):
		return MsgNetwork
	}
	return MsgGeneric
}

func (s *WaitlistService) storeSuccess(ctx context.Context, session leadctx.Store, signup *models.Signup, link string) error {
	raw, err := json.Marshal(models.SuccessSession{
		Email:        signup.Email,
		ReferralCode: signup.ReferralCode,
		JoinedAt:     s.joinedAt(signup),
		ReferralLink: link,
	})
	if err != nil {
		return err
	}
	return session.Set(ctx, successKey, string(raw))
}

func (s *WaitlistService) joinedAt(signup *models.Signup) time.Time {
	if signup.JoinedAt.IsZero() {
		return s.now().UTC()
	}
	return signup.JoinedAt.UTC()
}

func (s *WaitlistService) logTelemetry(ctx context.Context, signup *models.Signup, lead *leadctx.Context, log *zap.Logger) {
	if s.events == nil {
		return
	}
	event := &models.Event{
		EventType: models.EventLeadCaptured,
		Metadata: utils.SanitizeMetadata(map[string]any{
			"referred_by": signup.ReferredBy,
			"landing_url": lead.LandingURL,
			"referrer":    lead.Referrer,
		}),
		Email:        utils.StringPtr(signup.Email),
		ReferralCode: utils.StringPtr(signup.ReferralCode),
		UTMSource:    utils.StringPtr(lead.UTM("utm_source")),
		UTMMedium:    utils.StringPtr(lead.UTM("utm_medium")),
		UTMCampaign:  utils.StringPtr(lead.UTM("utm_campaign")),
	}
	if err := s.events.Insert(ctx, event); err != nil {
		log.Warn("telemetry event not recorded", zap.Error(err))
	}
}

func (s *WaitlistService) publishReferral(ctx context.Context, code string, joinedAt time.Time, log *zap.Logger) {
	if s.cache == nil {
		return
	}
	count, err := s.signups.CountReferredBy(ctx, code)
	if err != nil {
		log.Warn("referral count failed", zap.Error(err))
		return
	}
	raw, err := json.Marshal(models.ReferralUpdate{ReferralCode: code, Referrals: count, JoinedAt: joinedAt.UTC()})
	if err != nil {
		return
	}
	if err := s.cache.Publish(ctx, ReferralChannel(code), string(raw)); err != nil {
		log.Warn("referral update not published", zap.String("referrer", code), zap.Error(err))
	}
}

// Status reports how full the founding cohort is.
func (s *WaitlistService) Status(ctx context.Context) (*models.CapacityStatus, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, statusCacheKey); err == nil {
			var cached models.CapacityStatus
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Debug("status cache read failed", zap.Error(err))
		}
	}

	joined, err := s.signups.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count signups: %w", err)
	}
	status := BuildStatus(s.cfg.Capacity, joined, s.cfg.Paused)

	if s.cache != nil && s.cfg.StatusCacheTTL > 0 {
		if raw, err := json.Marshal(status); err == nil {
			if err := s.cache.Set(ctx, statusCacheKey, string(raw), s.cfg.StatusCacheTTL); err != nil {
				s.logger.Debug("status cache write failed", zap.Error(err))
			}
		}
	}
	return status, nil
}

// BuildStatus derives the capacity view from a joined count.
func BuildStatus(capacity, joined int, paused bool) *models.CapacityStatus {
	spotsLeft := capacity - joined
	if spotsLeft < 0 {
		spotsLeft = 0
	}
	percent := 100
	if capacity > 0 {
		percent = int(math.Round(float64(joined) * 100 / float64(capacity)))
		if percent > 100 {
			percent = 100
		}
	}

	status := &models.CapacityStatus{
		Status:        models.CapacityOpen,
		Capacity:      capacity,
		Joined:        joined,
		SpotsLeft:     spotsLeft,
		FilledPercent: percent,
	}
	if paused || spotsLeft == 0 {
		status.Status = models.CapacityClosed
	}
	status.Copy = StatusCopy(status.Status, capacity)
	return status
}

func StatusCopy(state models.CapacityState, capacity int) string {
	if state == models.CapacityClosed {
		return "Founding Cohort · waitlist paused"
	}
	return fmt.Sprintf("Founding Cohort · limited to %d invites", capacity)
}

// TierFor returns the highest tier reached with count referrals and the
// next one, either of which may be nil.
func TierFor(count int) (current, next *models.Tier) {
	for i := range Tiers {
		tier := Tiers[i]
		if count >= tier.Required {
			current = &tier
			continue
		}
		return current, &tier
	}
	return current, nil
}

// ReferralStats summarises the referrals credited to code.
func (s *WaitlistService) ReferralStats(ctx context.Context, code string) (*models.ReferralStats, error) {
	code = referral.Normalize(code)
	if !referral.Valid(code) {
		return nil, ErrInvalidReferralCode
	}
	if _, err := s.signups.GetByReferralCode(ctx, code); err != nil {
		if errors.Is(err, repository.ErrSignupNotFound) {
			return nil, ErrReferralNotFound
		}
		return nil, fmt.Errorf("lookup referral code: %w", err)
	}

	count, err := s.signups.CountReferredBy(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("count referrals: %w", err)
	}

	link := share.ReferralLink(s.publicURL, code)
	stats := &models.ReferralStats{
		ReferralCode: code,
		Referrals:    count,
		ReferralLink: link,
		Share:        share.Links(link),
		ShareText:    share.Text,
	}
	stats.Tier, stats.NextTier = TierFor(count)
	if stats.NextTier != nil {
		stats.ToNextTier = stats.NextTier.Required - count
	}
	return stats, nil
}

func (s *WaitlistService) CommunityStats(ctx context.Context) (*models.CommunityStats, error) {
	stats, err := s.signups.CommunityStats(ctx, s.now().Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("community stats: %w", err)
	}
	return &stats, nil
}

// SuccessSession returns the signup this session just completed. It is only
// readable for SuccessTTL after joining.
func (s *WaitlistService) SuccessSession(ctx context.Context, session leadctx.Store) (*models.SuccessSession, error) {
	raw, ok, err := session.Get(ctx, successKey)
	if err != nil {
		return nil, fmt.Errorf("read success session: %w", err)
	}
	if !ok {
		return nil, ErrNoSuccessSession
	}
	var success models.SuccessSession
	if err := json.Unmarshal([]byte(raw), &success); err != nil {
		return nil, ErrNoSuccessSession
	}
	if s.now().Sub(success.JoinedAt) > s.cfg.SuccessTTL {
		return nil, ErrSuccessExpired
	}
	return &success, nil
}

// CaptureLanding folds a landing visit into the session's lead context.
func (s *WaitlistService) CaptureLanding(ctx context.Context, session leadctx.Store, landingURL, referrer string) (*leadctx.Context, error) {
	u, err := parseLanding(landingURL)
	if err != nil {
		return nil, err
	}
	lead := leadctx.Load(ctx, session)
	if lead.Capture(u, referrer, s.now()) {
		if err := leadctx.Save(ctx, session, lead); err != nil {
			s.logger.Debug("lead context not saved", zap.Error(err))
		}
	}
	return lead, nil
}

func parseLanding(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Host == "" && u.Path == "" && u.RawQuery == "") {
		return nil, ErrInvalidLandingURL
	}
	return u, nil
}

func (s *WaitlistService) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveSignup(outcome)
	}
}
