package main

import (
	"context"
	"errors"
	"log"
	"net/url"
	"time"

	"github.com/localplate/waitlist/internal/config"
	"github.com/localplate/waitlist/internal/database"
	"github.com/localplate/waitlist/internal/leadctx"
	"github.com/localplate/waitlist/internal/logger"
	"github.com/localplate/waitlist/internal/referral"
	"github.com/localplate/waitlist/internal/repository"
	"github.com/localplate/waitlist/internal/services"
	"github.com/localplate/waitlist/internal/utils"
	"go.uber.org/zap"
)

// sampleLead is one seeded visitor: where they landed and who referred them.
type sampleLead struct {
	email   string
	landing string
	// referrer is the index of an earlier sample whose code this one uses.
	referrer int
}

var samples = []sampleLead{
	{email: "maria.chef@example.com", landing: "https://localplate.com/?utm_source=instagram&utm_medium=social&utm_campaign=launch", referrer: -1},
	{email: "dev.grill@example.com", landing: "https://localplate.com/?utm_source=x&utm_medium=social", referrer: 0},
	{email: "sam.bakes@example.com", landing: "https://localplate.com/?source=newsletter", referrer: 0},
	{email: "nora.tacos@example.com", landing: "https://localplate.com/", referrer: 0},
	{email: "li.dumplings@example.com", landing: "https://localplate.com/?utm_source=facebook", referrer: 1},
	{email: "ade.jollof@example.com", landing: "https://localplate.com/?utm_source=whatsapp&utm_medium=social", referrer: -1},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(logger.Config{
		Environment: cfg.Server.Env,
		LogLevel:    cfg.Log.Level,
		ServiceName: "waitlist-seed",
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.Server.Env == "production" {
		zlog.Fatal("refusing to seed a production database")
	}

	db, err := database.New(cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	service := services.NewWaitlistService(services.WaitlistDeps{
		Signups:   repository.NewWaitlistRepository(db),
		Events:    repository.NewEventRepository(db),
		Logger:    zlog,
		Config:    cfg.Waitlist,
		PublicURL: cfg.Server.PublicURL,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	codes := make([]string, len(samples))
	created := 0
	for i, sample := range samples {
		landing, err := url.Parse(sample.landing)
		if err != nil {
			zlog.Fatal("bad sample landing url", zap.String("url", sample.landing), zap.Error(err))
		}
		lead := &leadctx.Context{}
		lead.Capture(landing, "", time.Now())

		in := services.JoinInput{
			Email:     sample.email,
			UserAgent: "waitlist-seed",
			Language:  "en",
			Lead:      lead,
		}
		if sample.referrer >= 0 {
			in.ReferredBy = codes[sample.referrer]
		}

		res, err := service.Join(ctx, in)
		if err != nil {
			if errors.Is(err, repository.ErrAlreadyOnWaitlist) {
				// Codes derive from the email, so a rerun still links the chain.
				codes[i] = referral.Generate(utils.NormalizeEmail(sample.email))
				zlog.Info("already seeded", zap.String("referral_code", codes[i]))
				continue
			}
			zlog.Fatal("seed join failed", zap.String("email", sample.email), zap.Error(err))
		}
		codes[i] = res.Signup.ReferralCode
		created++
		zlog.Info("seeded signup",
			zap.String("referral_code", res.Signup.ReferralCode),
			zap.String("referral_link", res.ReferralLink),
		)
	}

	zlog.Info("seed complete", zap.Int("created", created), zap.Int("total", len(samples)))
}
