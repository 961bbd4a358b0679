package cache

import (
	"context"
	"fmt"
	"os"
	"time"

	"cinema-ticketing/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to redis and pings it with a short timeout. It
// returns nil when no address is configured or the server is unreachable,
// callers then run without a lease.
func NewRedisClient(config utils.RedisConfig) *redis.Client {
	if config.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}

const leasePrefix = "cinema-ticketing:sweep:"

// RedisLease grants a named lease to one instance at a time via SET NX PX.
// Leases are never released early, they lapse after ttl.
type RedisLease struct {
	client redis.Cmdable
	holder string
}

func NewRedisLease(client redis.Cmdable) *RedisLease {
	host, _ := os.Hostname()
	return &RedisLease{
		client: client,
		holder: fmt.Sprintf("%s-%s", host, uuid.NewString()),
	}
}

func (l *RedisLease) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, leasePrefix+name, l.holder, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lease %s: %w", name, err)
	}
	return ok, nil
}
