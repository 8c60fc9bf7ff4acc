package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/reservation-service/internal/adapter/kv"
	"github.com/example/reservation-service/internal/adapter/lock"
	"github.com/example/reservation-service/internal/domain"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

// countingStore считает обращения к хранилищу по ключам.
type countingStore struct {
	domain.KVStore
	mu   sync.Mutex
	gets map[string]int
	sets map[string]int
	// failOn — ошибка для любой операции с этим ключом.
	failOn string
}

func newCountingStore() *countingStore {
	return &countingStore{KVStore: kv.NewMemoryStore(), gets: map[string]int{}, sets: map[string]int{}}
}

var errBoom = errors.New("connection refused")

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	s.gets[key]++
	s.mu.Unlock()
	if key == s.failOn {
		return nil, false, errBoom
	}
	return s.KVStore.Get(ctx, key)
}

func (s *countingStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.sets[key]++
	s.mu.Unlock()
	if key == s.failOn {
		return errBoom
	}
	return s.KVStore.Set(ctx, key, value)
}

func (s *countingStore) reset() {
	s.mu.Lock()
	s.gets = map[string]int{}
	s.sets = map[string]int{}
	s.mu.Unlock()
}

func newTestReconciler(t *testing.T, store domain.KVStore) *Reconciler {
	t.Helper()
	logger, _ := test.NewNullLogger()
	rec := NewReconciler(store, domain.DefaultLayout(), lock.Noop{}, logger)
	rec.Now = func() time.Time { return fixedNow }
	return rec
}

func newTestRepo(t *testing.T, store domain.KVStore) *ReservationRepository {
	t.Helper()
	repo := NewReservationRepository(newTestReconciler(t, store))
	repo.Now = func() time.Time { return fixedNow }
	return repo
}

func put(t *testing.T, store domain.KVStore, key, doc string) {
	t.Helper()
	require.NoError(t, store.Set(context.Background(), key, []byte(doc)))
}

func record(t *testing.T, doc string) domain.Reservation {
	t.Helper()
	var r domain.Reservation
	require.NoError(t, json.Unmarshal([]byte(doc), &r))
	return r
}

func canonical(t *testing.T, store domain.KVStore) []domain.Reservation {
	t.Helper()
	raw, ok, err := store.Get(context.Background(), domain.DefaultLayout().CanonicalKey)
	require.NoError(t, err)
	if !ok {
		return nil
	}
	list, err := domain.DecodeRecordSet(raw)
	require.NoError(t, err)
	return list
}
