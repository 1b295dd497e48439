package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects to redis and fails fast when the server is unreachable.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// RateStore keeps fixed window counters in redis so every instance shares them.
type RateStore struct {
	client *redis.Client
	prefix string
}

func NewRateStore(client *redis.Client) *RateStore {
	return &RateStore{client: client, prefix: "todoguard:"}
}

func (s *RateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	key = s.prefix + key

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis incr %s: %w", key, err)
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis pttl %s: %w", key, err)
	}

	// first hit of a window, or a counter left without expiry
	if count == 1 || ttl < 0 {
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("redis pexpire %s: %w", key, err)
		}
		ttl = window
	}

	return int(count), time.Now().Add(ttl), nil
}
