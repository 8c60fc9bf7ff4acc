package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/example/reservation-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained — блокировку не удалось получить за отведённое число попыток.
var ErrNotObtained = errors.New("lock not obtained")

// Noop — политика last-writer-wins: блокировок нет, конкурентные upsert перезаписывают друг друга.
type Noop struct{}

func (Noop) Lock(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

// RedisLocker сериализует read-modify-write через распределённую блокировку redislock.
type RedisLocker struct {
	Client    *redislock.Client
	Namespace string
	// Retry — стратегия ожидания занятой блокировки.
	Retry redislock.RetryStrategy
	// OnReleaseError вызывается, если блокировку не удалось отпустить (например, истёк TTL).
	OnReleaseError func(key string, err error)
}

func NewRedisLocker(client redis.UniversalClient, namespace string) *RedisLocker {
	return &RedisLocker{
		Client:    redislock.New(client),
		Namespace: namespace,
		Retry:     redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 40),
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	name := "lock:" + key
	if l.Namespace != "" {
		name = l.Namespace + "/" + name
	}
	lk, err := l.Client.Obtain(ctx, name, ttl, &redislock.Options{RetryStrategy: l.Retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, name)
	}
	if err != nil {
		return nil, err
	}
	return func() {
		// контекст запроса мог быть отменён, отпускаем независимо от него
		if err := lk.Release(context.Background()); err != nil && l.OnReleaseError != nil {
			l.OnReleaseError(name, err)
		}
	}, nil
}

var (
	_ domain.Locker = Noop{}
	_ domain.Locker = (*RedisLocker)(nil)
)
