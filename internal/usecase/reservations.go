package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/example/reservation-service/internal/domain"
)

// ReservationRepository — чтение и upsert резерваций над каноническим набором.
//
// Каждое чтение — двухшаговый конвейер: Reconciler.Heal (восстановление, если набор пуст), затем ответ.
// Upsert делает read-modify-write всего набора. Без блокировки (lock.Noop) конкурентные upsert
// работают по принципу last-writer-wins; с RedisLocker они сериализуются.
type ReservationRepository struct {
	Reconciler *Reconciler
	Now        func() time.Time
}

func NewReservationRepository(rec *Reconciler) *ReservationRepository {
	return &ReservationRepository{Reconciler: rec, Now: time.Now}
}

// UpsertResult — слитая запись и размер набора после записи.
type UpsertResult struct {
	Record  domain.Reservation
	Total   int
	Created bool
}

// List — все записи, свежие первыми.
func (r *ReservationRepository) List(ctx context.Context) ([]domain.Reservation, error) {
	res, err := r.Reconciler.Heal(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Reservation, len(res.Records))
	copy(out, res.Records)
	domain.SortByUpdatedDesc(out)
	return out, nil
}

// GetByReserve — точное совпадение номера резервации (после trim).
func (r *ReservationRepository) GetByReserve(ctx context.Context, reserveNo string) (domain.Reservation, error) {
	res, err := r.Reconciler.Heal(ctx)
	if err != nil {
		return domain.Reservation{}, err
	}
	i := domain.FindByReserve(res.Records, reserveNo)
	if i < 0 {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return res.Records[i], nil
}

// GetByWaybill — поиск по цифровой идентичности накладной среди всех алиасов записи.
func (r *ReservationRepository) GetByWaybill(ctx context.Context, waybillNo string) (domain.Reservation, error) {
	id := domain.CanonicalIdentity(waybillNo)
	if id == "" {
		return domain.Reservation{}, domain.ErrNotFound
	}
	res, err := r.Reconciler.Heal(ctx)
	if err != nil {
		return domain.Reservation{}, err
	}
	for _, rec := range res.Records {
		if domain.HasCandidate(rec, id) {
			return rec, nil
		}
	}
	return domain.Reservation{}, domain.ErrNotFound
}

// Upsert сливает входную запись с существующей (по накладной, затем по номеру резервации)
// или добавляет новую и записывает весь набор обратно.
func (r *ReservationRepository) Upsert(ctx context.Context, in domain.Reservation) (UpsertResult, error) {
	waybillID, _ := domain.WaybillIdentity(in)
	reserveNo := strings.TrimSpace(in.ReserveNo)
	if waybillID == "" && reserveNo == "" {
		return UpsertResult{}, domain.ErrBadInput
	}

	rec := r.Reconciler
	release, err := rec.lock(ctx)
	if err != nil {
		return UpsertResult{}, err
	}
	defer release()

	healed, err := rec.healLocked(ctx)
	if err != nil {
		return UpsertResult{}, err
	}
	list := healed.Records

	now := r.Now().UTC().Format(TimeLayout)
	idx := domain.FindMatch(list, waybillID, reserveNo)
	var merged domain.Reservation
	if idx >= 0 {
		merged = domain.Merge(&list[idx], in, now)
		next := make([]domain.Reservation, len(list))
		copy(next, list)
		next[idx] = merged
		list = next
	} else {
		merged = domain.Merge(nil, in, now)
		list = append(list[:len(list):len(list)], merged)
	}

	if err := rec.WriteCanonical(ctx, list); err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{Record: merged, Total: len(list), Created: idx < 0}, nil
}

// ParseUpsertBody разбирает тело upsert: объект резервации либо {"record": {...}}.
func ParseUpsertBody(raw []byte) (domain.Reservation, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return domain.Reservation{}, domain.ErrBadInput
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return domain.Reservation{}, domain.ErrBadInput
	}
	if inner := bytes.TrimSpace(envelope["record"]); len(inner) > 0 && !bytes.Equal(inner, []byte("null")) {
		if inner[0] != '{' {
			return domain.Reservation{}, domain.ErrBadInput
		}
		raw = inner
	}
	var rec domain.Reservation
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Reservation{}, domain.ErrBadInput
	}
	return rec, nil
}

// ProcessIncomingReservation — применить входящее сообщение резервации (upsert).
type ProcessIncomingReservation struct {
	Repo *ReservationRepository
}

func (uc ProcessIncomingReservation) Execute(ctx context.Context, raw []byte) error {
	rec, err := ParseUpsertBody(raw)
	if err != nil {
		return err
	}
	_, err = uc.Repo.Upsert(ctx, rec)
	return err
}
