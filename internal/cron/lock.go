package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker hands out the cluster-wide maintenance lock. release is nil when
// the lock is held elsewhere.
type Locker interface {
	TryLock(ctx context.Context) (release func(context.Context) error, err error)
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLocker is a SETNX lock that expires after ttl if its holder dies.
type RedisLocker struct {
	store lockStore
	key   string
	ttl   time.Duration
}

// NewRedisLocker builds a locker over key.
func NewRedisLocker(store lockStore, key string, ttl time.Duration) (*RedisLocker, error) {
	switch {
	case store == nil:
		return nil, errors.New("lock store required")
	case key == "":
		return nil, errors.New("lock key required")
	case ttl <= 0:
		return nil, errors.New("lock ttl must be positive")
	}
	return &RedisLocker{store: store, key: key, ttl: ttl}, nil
}

func (l *RedisLocker) TryLock(ctx context.Context) (func(context.Context) error, error) {
	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if !ok {
		return nil, nil
	}
	return func(ctx context.Context) error {
		holder, err := l.store.Get(ctx, l.key)
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", l.key, err)
		}
		// expired and re-acquired by another worker
		if holder != token {
			return nil
		}
		if err := l.store.Del(ctx, l.key); err != nil {
			return fmt.Errorf("release %s: %w", l.key, err)
		}
		return nil
	}, nil
}
