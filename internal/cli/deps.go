package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/config"
	"trivia-quiz/internal/infra/file"
	"trivia-quiz/internal/infra/memory"
	"trivia-quiz/internal/infra/opentdb"
	"trivia-quiz/internal/infra/postgres"
	redisstore "trivia-quiz/internal/infra/redis"
	"trivia-quiz/internal/telemetry"
)

// deps holds the infrastructure shared by the commands.
type deps struct {
	cfg         config.Config
	source      *opentdb.Client
	leaderboard *app.Leaderboard
	closers     []func()
}

func buildDeps(ctx context.Context, cfg config.Config) (*deps, error) {
	d := &deps{cfg: cfg}

	var redisClient redis.UniversalClient
	if cfg.Redis.Addr != "" {
		var err error
		redisClient, err = connectRedis(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		d.closers = append(d.closers, func() { redisClient.Close() })
	}

	var cache opentdb.Cache = memory.NewCache()
	if redisClient != nil {
		cache = redisstore.NewCache(redisClient, cfg.Redis.Prefix)
	}
	d.source = opentdb.NewClient(opentdb.Config{
		BaseURL:  cfg.Source.BaseURL,
		Cache:    cache,
		UseToken: cfg.Source.UseToken,
	})

	var store app.SlotStore
	switch cfg.Leaderboard.Backend {
	case config.BackendMemory:
		store = memory.NewSlotStore()
	case config.BackendRedis:
		store = redisstore.NewSlotStore(redisClient, cfg.Redis.Prefix)
	case config.BackendPostgres:
		if err := postgres.Migrate(ctx, cfg.Postgres.URL); err != nil {
			d.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		d.closers = append(d.closers, pool.Close)
		store = postgres.NewSlotStore(pool)
	default:
		store = file.NewSlotStore(cfg.Leaderboard.Dir)
	}
	d.leaderboard = app.NewLeaderboard(store, cfg.Leaderboard.Key)

	slog.DebugContext(ctx, "cli: dependencies ready", "leaderboard", cfg.Leaderboard.Backend, "redis", cfg.Redis.Addr != "")
	return d, nil
}

func connectRedis(ctx context.Context, cfg config.Config) (redis.UniversalClient, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Redis.Addr},
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := telemetry.MonitorRedis(r); err != nil {
		r.Close()
		return nil, err
	}
	if err := r.Ping(ctx).Err(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// gameConfig builds the settings of a fresh game runner.
func (d *deps) gameConfig() app.GameConfig {
	return app.GameConfig{
		Source:         d.source,
		Leaderboard:    d.leaderboard,
		TimeLimit:      d.cfg.Quiz.TimeLimit,
		RevealHold:     config.Duration(d.cfg.Quiz.RevealHold, app.DefaultRevealHold),
		ExitTransition: config.Duration(d.cfg.Quiz.ExitTransition, app.DefaultExitTransition),
	}
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
