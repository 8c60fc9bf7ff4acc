package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/reservation-service/internal/domain"
)

// KVNamespace — префикс ключей произвольного key-value API старого фронтенда.
const KVNamespace = "kv:"

// ErrReservedKey — ключ совпадает с местом хранения резерваций; менять его через kv API нельзя.
var ErrReservedKey = fmt.Errorf("%w: key is reserved for reservations", domain.ErrBadInput)

// KeyValue — произвольные JSON-значения под префиксом kv:.
// Запись и удаление ключей из Layout (исторических, канонического, метаданных) запрещены:
// эти места меняет только Heal.
type KeyValue struct {
	Store  domain.KVStore
	Layout domain.Layout
}

func (uc KeyValue) reserved(physical string) bool {
	layout := uc.Layout.WithDefaults()
	if physical == layout.CanonicalKey || physical == layout.MetaKey {
		return true
	}
	for _, k := range layout.LegacyKeys {
		if k == physical {
			return true
		}
	}
	return false
}

// Get возвращает значение или JSON null, если ключа нет.
func (uc KeyValue) Get(ctx context.Context, key string) (json.RawMessage, error) {
	if key = strings.TrimSpace(key); key == "" {
		return nil, domain.ErrBadInput
	}
	raw, ok, err := uc.Store.Get(ctx, KVNamespace+key)
	if err != nil {
		return nil, domain.WrapStore("get", KVNamespace+key, err)
	}
	if !ok || !json.Valid(raw) {
		return json.RawMessage("null"), nil
	}
	return raw, nil
}

func (uc KeyValue) Set(ctx context.Context, key string, value json.RawMessage) error {
	if key = strings.TrimSpace(key); key == "" {
		return domain.ErrBadInput
	}
	if uc.reserved(KVNamespace + key) {
		return ErrReservedKey
	}
	if len(value) == 0 {
		value = json.RawMessage("null")
	}
	return domain.WrapStore("set", KVNamespace+key, uc.Store.Set(ctx, KVNamespace+key, value))
}

func (uc KeyValue) Delete(ctx context.Context, key string) error {
	if key = strings.TrimSpace(key); key == "" {
		return domain.ErrBadInput
	}
	if uc.reserved(KVNamespace + key) {
		return ErrReservedKey
	}
	return domain.WrapStore("delete", KVNamespace+key, uc.Store.Delete(ctx, KVNamespace+key))
}
