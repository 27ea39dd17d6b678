package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock holds keys with SET NX PX. Every acquisition writes a fresh token
// and Unlock deletes the key only while it still carries that token.
type RedisLock struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisLock(client redis.UniversalClient, prefix string) *RedisLock {
	if prefix == "" {
		prefix = "lock"
	}
	return &RedisLock{client: client, prefix: prefix}
}

func (r *RedisLock) key(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

func (r *RedisLock) Lock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	const op = "lock.RedisLock.Lock"

	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.key(key), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (r *RedisLock) Unlock(ctx context.Context, key, token string) error {
	const op = "lock.RedisLock.Unlock"

	n, err := releaseScript.Run(ctx, r.client, []string{r.key(key)}, token).Int64()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotHeld)
	}
	return nil
}

// NewRedisClient connects and pings before returning.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	const op = "lock.NewRedisClient"

	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return client, nil
}

// ReadyCheck pings Redis.
func ReadyCheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
