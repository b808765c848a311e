// Package app builds the shared infrastructure of the binaries from config.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/unclebandit/linkedin-outreach/internal/config"
	"github.com/unclebandit/linkedin-outreach/internal/db"
	"github.com/unclebandit/linkedin-outreach/internal/queue"
	"github.com/unclebandit/linkedin-outreach/internal/repository"
)

// OpenStore connects the backend named by cfg.StoreDriver. The returned func
// releases it.
func OpenStore(ctx context.Context, cfg config.Config) (repository.Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory, "":
		slog.Warn("using in-memory store, data is lost on exit and not shared between processes")
		return repository.NewMemoryStore(), func() error { return nil }, nil

	case config.StorePostgres:
		conn, err := db.Open(ctx, cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return &repository.PostgresStore{DB: conn}, conn.Close, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
		}
		slog.Info("connected to redis", "addr", cfg.Redis.Addr)
		return repository.NewRedisStore(client), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// OpenBus dials RabbitMQ when cfg.AMQPURL is set and falls back to an
// in-process bus otherwise.
func OpenBus(cfg config.Config) (queue.Bus, error) {
	if cfg.AMQPURL == "" {
		slog.Warn("AMQP_URL not set, commands only reach components in this process")
		return queue.NewInMemoryBus(), nil
	}
	bus, err := queue.DialAMQP(cfg.AMQPURL)
	if err != nil {
		return nil, err
	}
	slog.Info("connected to rabbitmq")
	return bus, nil
}
