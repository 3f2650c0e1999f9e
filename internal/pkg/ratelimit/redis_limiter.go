package ratelimit

import (
	"context"
	"fmt"
	"time"

	"campus-chatbot-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter caps turns per session per minute. Redis being down must
// never block chat traffic, so every limiter failure is fail-open.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	log    logger.ILogger
}

func NewRedisLimiter(redisURL string, limit int, log logger.ILogger) *RedisLimiter {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn("RATELIMIT", "Invalid redis URL, rate limiting disabled", map[string]interface{}{"error": err.Error()})
		return &RedisLimiter{limit: limit, log: log}
	}
	return &RedisLimiter{
		client: redis.NewClient(opts),
		limit:  limit,
		log:    log,
	}
}

// Allow reports whether this session may run another turn right now.
func (l *RedisLimiter) Allow(ctx context.Context, sessionID string) bool {
	if l.limit <= 0 || l.client == nil {
		return true
	}

	key := fmt.Sprintf("rl:turns:%s:%d", sessionID, time.Now().Unix()/60)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Warn("RATELIMIT", "Redis unavailable, allowing turn", map[string]interface{}{"error": err.Error()})
		return true
	}

	return incr.Val() <= int64(l.limit)
}

func (l *RedisLimiter) Close() error {
	if l.client == nil {
		return nil
	}
	return l.client.Close()
}
