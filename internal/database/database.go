package database

import (
	"context"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationName = "localplate-waitlist"

// Startup ping budget. Compose brings Postgres up alongside the API, so the
// first few pings are expected to fail.
const (
	connectAttempts = 5
	connectDelay    = 500 * time.Millisecond
)

// DB wraps the pgx pool shared by the repositories.
type DB struct {
	Pool *pgxpool.Pool
}

func New(databaseURL string, maxConns int) (*DB, error) {
	poolCfg, err := poolConfig(databaseURL, maxConns)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	err = retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		},
		retry.Attempts(connectAttempts),
		retry.Delay(connectDelay),
		retry.MaxDelay(5*time.Second),
		retry.Context(ctx),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

func poolConfig(databaseURL string, maxConns int) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	// Signups are bursty but small; keep a couple of warm connections.
	cfg.MinConns = min(2, cfg.MaxConns)
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return cfg, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

// Health pings the pool; used by /health.
func (db *DB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
