package kv

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/example/reservation-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 500

// RedisStore — key-value поверх Redis. Ключи хранятся как "<namespace>/<key>".
type RedisStore struct {
	Client    redis.UniversalClient
	Namespace string
}

func NewRedisStore(client redis.UniversalClient, namespace string) *RedisStore {
	return &RedisStore{Client: client, Namespace: namespace}
}

func (s *RedisStore) key(k string) string { return physicalKey(s.Namespace, k) }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.Client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.Client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.Client.Del(ctx, s.key(key)).Err()
}

// List обходит ключи командой SCAN; порядок выдачи Redis не гарантирует, поэтому результат сортируется.
func (s *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	base := s.key("")
	pattern := escapeGlob(s.key(prefix)) + "*"
	seen := make(map[string]struct{})
	var cursor uint64
	for {
		keys, next, err := s.Client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			seen[strings.TrimPrefix(k, base)] = struct{}{}
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

var _ domain.KVStore = (*RedisStore)(nil)

func escapeGlob(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

func physicalKey(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + "/" + key
}
