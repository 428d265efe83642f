package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vogiaan1904/ticketbottle-checkout/pkg/logger"
)

// RateLimitRepository counts hits per caller in a shared store so the
// limit holds across service instances.
type RateLimitRepository interface {
	Hit(ctx context.Context, scope, caller string, window time.Duration) (int64, error)
}

type redisRateLimitRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisRateLimitRepository(cli *redis.Client, l logger.Logger) RateLimitRepository {
	return &redisRateLimitRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisRateLimitRepository) limitKey(scope, caller string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, caller)
}

func (r *redisRateLimitRepository) Hit(ctx context.Context, scope, caller string, window time.Duration) (int64, error) {
	key := r.limitKey(scope, caller)

	count, err := r.cli.Incr(ctx, key).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisRateLimitRepository.Hit: %v", err)
		return 0, err
	}

	// First hit opens the window.
	if count == 1 {
		if err := r.cli.Expire(ctx, key, window).Err(); err != nil {
			r.l.Errorf(ctx, "redisRateLimitRepository.Hit: %v", err)
			return 0, err
		}
	}

	return count, nil
}
