package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/example/reservation-service/internal/domain"
)

// Registry — регистрация и вход магазинов и курьеров. Простые записи по коду, без слияния.
type Registry struct {
	Store domain.KVStore
	Now   func() time.Time
}

func NewRegistry(store domain.KVStore) *Registry {
	return &Registry{Store: store, Now: time.Now}
}

func (r *Registry) RegisterStore(ctx context.Context, name, code string) (domain.StoreAccount, error) {
	name, code = strings.TrimSpace(name), strings.TrimSpace(code)
	if name == "" || code == "" {
		return domain.StoreAccount{}, domain.ErrBadInput
	}
	acc := domain.StoreAccount{Name: name, Code: code, CreatedAt: r.stamp()}
	return acc, r.create(ctx, domain.StoreKeyPrefix+code, acc)
}

// LoginStore находит магазин по коду; имя должно совпасть.
func (r *Registry) LoginStore(ctx context.Context, name, code string) (domain.StoreAccount, error) {
	var acc domain.StoreAccount
	if err := r.load(ctx, domain.StoreKeyPrefix+strings.TrimSpace(code), &acc); err != nil {
		return domain.StoreAccount{}, err
	}
	if acc.Name != strings.TrimSpace(name) {
		return domain.StoreAccount{}, domain.ErrNotFound
	}
	return acc, nil
}

func (r *Registry) RegisterCourier(ctx context.Context, name, phone, code string) (domain.Courier, error) {
	name, phone, code = strings.TrimSpace(name), strings.TrimSpace(phone), strings.TrimSpace(code)
	if name == "" || phone == "" || code == "" {
		return domain.Courier{}, domain.ErrBadInput
	}
	c := domain.Courier{Name: name, Phone: phone, Code: code, CreatedAt: r.stamp()}
	return c, r.create(ctx, domain.CourierKeyPrefix+code, c)
}

func (r *Registry) LoginCourier(ctx context.Context, code string) (domain.Courier, error) {
	var c domain.Courier
	if err := r.load(ctx, domain.CourierKeyPrefix+strings.TrimSpace(code), &c); err != nil {
		return domain.Courier{}, err
	}
	return c, nil
}

func (r *Registry) stamp() string { return r.Now().UTC().Format(TimeLayout) }

func (r *Registry) create(ctx context.Context, key string, v any) error {
	_, exists, err := r.Store.Get(ctx, key)
	if err != nil {
		return domain.WrapStore("get", key, err)
	}
	if exists {
		return domain.ErrDuplicate
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return domain.WrapStore("set", key, r.Store.Set(ctx, key, raw))
}

func (r *Registry) load(ctx context.Context, key string, dst any) error {
	raw, ok, err := r.Store.Get(ctx, key)
	if err != nil {
		return domain.WrapStore("get", key, err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// старые записи могли сохраняться строкой с JSON внутри
		var s string
		if json.Unmarshal(raw, &s) != nil || json.Unmarshal([]byte(s), dst) != nil {
			return domain.ErrNotFound
		}
	}
	return nil
}
