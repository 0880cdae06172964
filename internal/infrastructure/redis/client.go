package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Config holds Redis connection settings.
type Config struct {
	URL string
	// PoolSize overrides the pool size from the URL when positive.
	PoolSize int
	// ConnectAttempts is how often the initial ping is tried. Defaults to 3.
	ConnectAttempts int
	// RetryInterval is the first wait between attempts. Defaults to 200ms.
	RetryInterval time.Duration
	Logger        zerolog.Logger
}

// NewClient creates a Redis client and waits until the server answers a ping.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	attempts := cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = 3
	}
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}

	client := redis.NewClient(opts)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.MaxElapsedTime = 0

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := client.Ping(ctx).Err(); err != nil {
			cfg.Logger.Warn().Err(err).Int("attempt", attempt).Msg("redis ping failed")
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx))
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis after %d attempts: %w", attempt, err)
	}

	return client, nil
}
