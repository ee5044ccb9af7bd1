package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// MonitorRedis instruments the client used for the leaderboard and source
// cache: OpenTelemetry spans and metrics plus slog output for dial and
// command failures.
func MonitorRedis(r redis.UniversalClient) error {
	instrument := []struct {
		name string
		fn   func(redis.UniversalClient) error
	}{
		{"tracing", func(c redis.UniversalClient) error { return redisotel.InstrumentTracing(c) }},
		{"metrics", func(c redis.UniversalClient) error { return redisotel.InstrumentMetrics(c) }},
	}
	for _, in := range instrument {
		if err := in.fn(r); err != nil {
			return fmt.Errorf("redis %s: %w", in.name, err)
		}
	}
	r.AddHook(redisLog{})
	return nil
}

type redisLog struct{}

func (redisLog) DialHook(hook redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := hook(ctx, network, addr)
		if err != nil {
			slog.WarnContext(ctx, "redis: dial failed", "network", network, "addr", addr, "error", err)
			return nil, err
		}
		slog.DebugContext(ctx, "redis: dialed", "network", network, "addr", addr)
		return conn, nil
	}
}

func (redisLog) ProcessHook(hook redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := hook(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "redis: command failed", "cmd", cmd.Name(), "error", err)
			return err
		}
		slog.DebugContext(ctx, "redis: command", "cmd", cmd.Name())
		return err
	}
}

func (redisLog) ProcessPipelineHook(hook redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := hook(ctx, cmds)
		slog.DebugContext(ctx, "redis: pipeline", "cmds", len(cmds), "error", err)
		return err
	}
}
