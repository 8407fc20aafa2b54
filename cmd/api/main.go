package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/localplate/waitlist/internal/cache"
	"github.com/localplate/waitlist/internal/config"
	"github.com/localplate/waitlist/internal/database"
	"github.com/localplate/waitlist/internal/handlers"
	"github.com/localplate/waitlist/internal/leadctx"
	"github.com/localplate/waitlist/internal/logger"
	"github.com/localplate/waitlist/internal/metrics"
	"github.com/localplate/waitlist/internal/repository"
	"github.com/localplate/waitlist/internal/server"
	"github.com/localplate/waitlist/internal/services"
	"github.com/localplate/waitlist/internal/socialproof"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// @title LocalPlate Waitlist API
// @version 1.0
// @description Waitlist capture, referrals and social proof for the LocalPlate launch
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(logger.Config{
		Environment: cfg.Server.Env,
		LogLevel:    cfg.Log.Level,
		ServiceName: "waitlist-api",
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.Database.AutoMigrate {
		if err := database.MigrateUp(cfg.Database.URL); err != nil {
			zlog.Fatal("migrations failed", zap.Error(err))
		}
		zlog.Info("migrations applied")
	}

	db, err := database.New(cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	zlog.Info("connected to database")

	redisCache, err := cache.New(cfg.Redis.URL)
	if err != nil {
		zlog.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisCache.Close()
	zlog.Info("connected to redis")

	catalog := socialproof.DefaultCatalog()
	if cfg.SocialProof.CatalogPath != "" {
		catalog, err = socialproof.LoadCatalog(cfg.SocialProof.CatalogPath)
		if err != nil {
			zlog.Fatal("failed to load social proof catalog", zap.String("path", cfg.SocialProof.CatalogPath), zap.Error(err))
		}
	}

	m := metrics.Default()

	// Services
	emailService := services.NewEmailService(&cfg.SMTP, zlog)
	waitlistService := services.NewWaitlistService(services.WaitlistDeps{
		Signups:   repository.NewWaitlistRepository(db),
		Events:    repository.NewEventRepository(db),
		Cache:     redisCache,
		Notifier:  emailService,
		Observer:  m,
		Logger:    zlog,
		Config:    cfg.Waitlist,
		PublicURL: cfg.Server.PublicURL,
	})

	sessions := handlers.SessionOpener(func(id string) leadctx.Store {
		return cache.NewScopedStore(redisCache, "session", id, cfg.Waitlist.SessionTTL)
	})

	router := server.NewRouter(server.Deps{
		Config:      cfg,
		Logger:      zlog,
		Counter:     redisCache,
		Health:      handlers.NewHealthHandler(db, redisCache),
		Waitlist:    handlers.NewWaitlistHandler(waitlistService, sessions, zlog),
		Referrals:   handlers.NewReferralHandler(waitlistService, redisCache, m, server.AllowedOrigins(cfg.CORS.Origin), zlog),
		SocialProof: handlers.NewSocialProofHandler(catalog, cfg.SocialProof.Rotation, sessions, m, zlog),
		Metrics:     promhttp.Handler(),
	})

	srv := server.NewHTTPServer(":"+cfg.Server.Port, router)

	// Graceful shutdown
	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
		return
	}

	zlog.Info("server exited properly")
}
