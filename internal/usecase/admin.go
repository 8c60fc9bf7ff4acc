package usecase

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/example/reservation-service/internal/domain"
	"github.com/sirupsen/logrus"
)

// WipeConfirmPhrase — фраза, которую нужно ввести для полной очистки. Это защита от случайного
// нажатия, а не пароль.
const WipeConfirmPhrase = "전체삭제"

// WipeData — удалить все ключи под Layout.WipePrefixes.
type WipeData struct {
	Store  domain.KVStore
	Layout domain.Layout
	Logger logrus.FieldLogger
}

func (uc WipeData) Execute(ctx context.Context, phrase string) (int, error) {
	if phrase != WipeConfirmPhrase {
		return 0, domain.ErrConfirmationRequired
	}
	keys := make(map[string]struct{})
	for _, prefix := range uc.Layout.WithDefaults().WipePrefixes {
		listed, err := uc.Store.List(ctx, prefix)
		if err != nil {
			return 0, domain.WrapStore("list", prefix, err)
		}
		for _, k := range listed {
			keys[k] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	deleted := 0
	for _, k := range sorted {
		if err := uc.Store.Delete(ctx, k); err != nil {
			return deleted, domain.WrapStore("delete", k, err)
		}
		deleted++
	}
	if uc.Logger != nil {
		uc.Logger.WithField("deleted", deleted).Warn("store wiped")
	}
	return deleted, nil
}

// LocationCount — состояние одного места хранения.
type LocationCount struct {
	Key    string `json:"key"`
	Exists bool   `json:"exists"`
	Count  int    `json:"count"`
	Error  string `json:"error,omitempty"`
}

// Diagnostics — счётчики по всем местам хранения и метаданные последней миграции.
type Diagnostics struct {
	Canonical      LocationCount   `json:"canonical"`
	Legacy         []LocationCount `json:"legacy"`
	LegacyPrefixes []LocationCount `json:"legacyPrefixes"`
	Migration      json.RawMessage `json:"migration"`
}

// InspectStore — диагностика хранилища. Никогда не запускает восстановление.
type InspectStore struct {
	Store  domain.KVStore
	Layout domain.Layout
}

func (uc InspectStore) Execute(ctx context.Context) (Diagnostics, error) {
	layout := uc.Layout.WithDefaults()
	var d Diagnostics
	var err error
	if d.Canonical, err = uc.count(ctx, layout.CanonicalKey); err != nil {
		return Diagnostics{}, err
	}
	d.Legacy = make([]LocationCount, 0, len(layout.LegacyKeys))
	for _, key := range layout.LegacyKeys {
		lc, err := uc.count(ctx, key)
		if err != nil {
			return Diagnostics{}, err
		}
		d.Legacy = append(d.Legacy, lc)
	}
	d.LegacyPrefixes = make([]LocationCount, 0, len(layout.LegacyPrefixes))
	for _, prefix := range layout.LegacyPrefixes {
		keys, err := uc.Store.List(ctx, prefix)
		if err != nil {
			return Diagnostics{}, domain.WrapStore("list", prefix, err)
		}
		d.LegacyPrefixes = append(d.LegacyPrefixes, LocationCount{Key: prefix + "*", Exists: len(keys) > 0, Count: len(keys)})
	}

	meta, ok, err := uc.Store.Get(ctx, layout.MetaKey)
	if err != nil {
		return Diagnostics{}, domain.WrapStore("get", layout.MetaKey, err)
	}
	d.Migration = json.RawMessage("null")
	if ok && json.Valid(meta) {
		d.Migration = meta
	}
	return d, nil
}

func (uc InspectStore) count(ctx context.Context, key string) (LocationCount, error) {
	raw, ok, err := uc.Store.Get(ctx, key)
	if err != nil {
		return LocationCount{}, domain.WrapStore("get", key, err)
	}
	lc := LocationCount{Key: key, Exists: ok}
	if !ok {
		return lc, nil
	}
	list, err := domain.DecodeRecordSet(raw)
	if err != nil {
		lc.Error = err.Error()
		return lc, nil
	}
	lc.Count = len(list)
	return lc, nil
}
