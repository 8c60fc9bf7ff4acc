package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/reservation-service/internal/domain"
	"github.com/sirupsen/logrus"
)

// TimeLayout — формат отметок времени (UTC, миллисекунды), как у Date.toISOString во фронтенде.
const TimeLayout = "2006-01-02T15:04:05.000Z"

const (
	defaultLockTTL = 10 * time.Second
	migrationNote  = "canonical set was empty; consolidated from legacy locations"
)

// SourceCount — сколько записей прочитано из одного исторического места.
type SourceCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// HealResult — итог Heal.
type HealResult struct {
	Records []domain.Reservation
	Healed  bool
	Sources []SourceCount
}

// MigrationMeta — служебная запись о последней миграции (Layout.MetaKey).
type MigrationMeta struct {
	MigratedAt string        `json:"migratedAt"`
	Note       string        `json:"note"`
	Canonical  string        `json:"canonical"`
	Total      int           `json:"total"`
	Sources    []SourceCount `json:"sources"`
}

// Reconciler — самовосстановление канонического набора из исторических ключей.
type Reconciler struct {
	Store   domain.KVStore
	Layout  domain.Layout
	Locker  domain.Locker
	Logger  logrus.FieldLogger
	Now     func() time.Time
	LockTTL time.Duration
}

func NewReconciler(store domain.KVStore, layout domain.Layout, locker domain.Locker, logger logrus.FieldLogger) *Reconciler {
	return &Reconciler{
		Store:   store,
		Layout:  layout.WithDefaults(),
		Locker:  locker,
		Logger:  logger,
		Now:     time.Now,
		LockTTL: defaultLockTTL,
	}
}

// ReadCanonical читает канонический набор. Нечитаемое значение считается пустым набором.
func (r *Reconciler) ReadCanonical(ctx context.Context) ([]domain.Reservation, error) {
	key := r.Layout.CanonicalKey
	raw, ok, err := r.Store.Get(ctx, key)
	if err != nil {
		return nil, domain.WrapStore("get", key, err)
	}
	if !ok {
		return nil, nil
	}
	list, err := domain.DecodeRecordSet(raw)
	if err != nil {
		r.Logger.WithFields(logrus.Fields{"key": key, "error": err}).Warn("canonical value is not a reservation set")
		return nil, nil
	}
	return list, nil
}

// WriteCanonical записывает канонический набор целиком.
func (r *Reconciler) WriteCanonical(ctx context.Context, list []domain.Reservation) error {
	raw, err := domain.EncodeRecordSet(list)
	if err != nil {
		return err
	}
	return domain.WrapStore("set", r.Layout.CanonicalKey, r.Store.Set(ctx, r.Layout.CanonicalKey, raw))
}

// Heal возвращает канонический набор. Пустой набор собирается из исторических мест,
// дедуплицируется (первая встреченная запись побеждает) и записывается в каноническое место.
// Повторный вызов на восстановленном наборе ничего не пишет.
func (r *Reconciler) Heal(ctx context.Context) (HealResult, error) {
	list, err := r.ReadCanonical(ctx)
	if err != nil || len(list) > 0 {
		return HealResult{Records: list}, err
	}

	release, err := r.lock(ctx)
	if err != nil {
		return HealResult{}, err
	}
	defer release()
	return r.healLocked(ctx)
}

func (r *Reconciler) lock(ctx context.Context) (func(), error) {
	if r.Locker == nil {
		return func() {}, nil
	}
	release, err := r.Locker.Lock(ctx, r.Layout.CanonicalKey, r.LockTTL)
	if err != nil {
		return nil, domain.WrapStore("lock", r.Layout.CanonicalKey, err)
	}
	return release, nil
}

// healLocked — Heal для вызывающего, который уже держит блокировку канонического ключа.
func (r *Reconciler) healLocked(ctx context.Context) (HealResult, error) {
	list, err := r.ReadCanonical(ctx)
	if err != nil || len(list) > 0 {
		return HealResult{Records: list}, err
	}

	all, sources, err := r.readLegacy(ctx)
	if err != nil {
		return HealResult{}, err
	}
	merged := domain.Dedupe(all)
	if len(merged) == 0 {
		return HealResult{Records: []domain.Reservation{}, Sources: sources}, nil
	}

	if err := r.WriteCanonical(ctx, merged); err != nil {
		return HealResult{}, err
	}
	meta := MigrationMeta{
		MigratedAt: r.Now().UTC().Format(TimeLayout),
		Note:       migrationNote,
		Canonical:  r.Layout.CanonicalKey,
		Total:      len(merged),
		Sources:    sources,
	}
	if err := r.writeMeta(ctx, meta); err != nil {
		return HealResult{}, err
	}

	r.Logger.WithFields(logrus.Fields{
		"canonical": r.Layout.CanonicalKey,
		"read":      len(all),
		"kept":      len(merged),
		"sources":   sources,
	}).Info("reservations healed from legacy locations")
	return HealResult{Records: merged, Healed: true, Sources: sources}, nil
}

// readLegacy читает исторические ключи в порядке Layout.LegacyKeys, затем записи под LegacyPrefixes.
func (r *Reconciler) readLegacy(ctx context.Context) ([]domain.Reservation, []SourceCount, error) {
	var all []domain.Reservation
	sources := make([]SourceCount, 0, len(r.Layout.LegacyKeys)+len(r.Layout.LegacyPrefixes))

	for _, key := range r.Layout.LegacyKeys {
		raw, ok, err := r.Store.Get(ctx, key)
		if err != nil {
			return nil, nil, domain.WrapStore("get", key, err)
		}
		var list []domain.Reservation
		if ok {
			list, err = domain.DecodeRecordSet(raw)
			if err != nil {
				r.Logger.WithFields(logrus.Fields{"key": key, "error": err}).Warn("skipping unreadable legacy location")
				list = nil
			}
		}
		all = append(all, list...)
		sources = append(sources, SourceCount{Key: key, Count: len(list)})
	}

	for _, prefix := range r.Layout.LegacyPrefixes {
		keys, err := r.Store.List(ctx, prefix)
		if err != nil {
			return nil, nil, domain.WrapStore("list", prefix, err)
		}
		n := 0
		for _, key := range keys {
			raw, ok, err := r.Store.Get(ctx, key)
			if err != nil {
				return nil, nil, domain.WrapStore("get", key, err)
			}
			if !ok {
				continue
			}
			rec, ok := domain.DecodeRecord(raw)
			if !ok {
				continue
			}
			all = append(all, rec)
			n++
		}
		sources = append(sources, SourceCount{Key: prefix + "*", Count: n})
	}
	return all, sources, nil
}

func (r *Reconciler) writeMeta(ctx context.Context, meta MigrationMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return domain.WrapStore("set", r.Layout.MetaKey, r.Store.Set(ctx, r.Layout.MetaKey, raw))
}
