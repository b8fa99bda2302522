package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/stockpulse/stockpulse/internal/application"
	appcfg "github.com/stockpulse/stockpulse/internal/config"
	"github.com/stockpulse/stockpulse/internal/data"
	"github.com/stockpulse/stockpulse/internal/persistence"
	"github.com/stockpulse/stockpulse/internal/persistence/postgres"
	"github.com/stockpulse/stockpulse/internal/providers/fmp"
)

// app holds the wired dependency graph shared by all commands.
type app struct {
	db        *sqlx.DB
	redisC    *redis.Client
	tickers   persistence.TickerRepo
	alerts    persistence.AlertRepo
	bars      *data.Manager
	refresher *application.Refresher
}

// buildApp connects Postgres (migrating the schema), optionally Redis,
// and wires the provider client, bar manager, and refresher.
func buildApp(ctx context.Context, cfg *appcfg.Config) (*app, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	timeout := cfg.Database.Timeout()
	a := &app{
		db:      db,
		tickers: postgres.NewTickersRepo(db, timeout),
		alerts:  postgres.NewAlertsRepo(db, timeout),
	}
	barsRepo := postgres.NewBarsRepo(db, timeout)

	provider := fmp.NewClient(fmp.Config{
		BaseURL:        cfg.Provider.BaseURL,
		APIKey:         cfg.Provider.APIKey,
		RequestTimeout: time.Duration(cfg.Provider.TimeoutMS) * time.Millisecond,
		RateLimitRPS:   cfg.Provider.RPS,
		Burst:          cfg.Provider.Burst,
		MaxRetries:     cfg.Provider.MaxRetries,
		BackoffBase:    time.Duration(cfg.Provider.BackoffBaseMS) * time.Millisecond,
		BackoffMax:     time.Duration(cfg.Provider.BackoffMaxMS) * time.Millisecond,
	})

	managerOpts := []data.Option{}
	if cfg.Redis.Enabled {
		a.redisC = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redisC.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).
				Msg("redis unreachable, snapshot cache disabled")
			a.redisC.Close()
			a.redisC = nil
		} else {
			managerOpts = append(managerOpts,
				data.WithSnapshotCache(data.NewSnapshotCache(a.redisC, cfg.Redis.SnapshotTTL())))
		}
	}

	a.bars = data.NewManager(barsRepo, provider, managerOpts...)
	a.refresher = application.NewRefresher(a.bars, application.PassthroughIndicators{},
		a.alerts, a.tickers, application.Config{
			Delay:        cfg.Refresh.Delay(),
			LookbackDays: cfg.Refresh.LookbackDays,
		})
	return a, nil
}

func (a *app) Close() {
	if a.redisC != nil {
		a.redisC.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
