package domain

import (
	"encoding/json"
	"strings"
)

// Merge применяет входную запись поверх существующей (existing может быть nil).
//
// Порядок:
//  1. поля существующей записи;
//  2. поверх них все поля входной записи;
//  3. waybillNo: текст первого алиаса входа, дающего идентичность (есть цифры), иначе существующий;
//  4. reserveNo: входной (trim), иначе существующий;
//  5. updatedAt: входной, иначе now.
func Merge(existing *Reservation, in Reservation, now string) Reservation {
	out := Reservation{Extra: make(map[string]json.RawMessage)}
	if existing != nil {
		for k, v := range existing.Extra {
			out.Extra[k] = v
		}
		out.WaybillNo = existing.WaybillNo
		out.ReserveNo = existing.ReserveNo
	}
	for k, v := range in.Extra {
		out.Extra[k] = v
	}

	if _, text := WaybillIdentity(in); text != "" {
		out.WaybillNo = text
	}
	if rn := strings.TrimSpace(in.ReserveNo); rn != "" {
		out.ReserveNo = rn
	}
	out.UpdatedAt = now
	if in.UpdatedAt != "" {
		out.UpdatedAt = in.UpdatedAt
	}
	return out
}

// FindMatch ищет цель слияния: сначала по идентичности накладной, затем по номеру резервации.
// Возвращает -1, если совпадений нет.
func FindMatch(list []Reservation, waybillID, reserveNo string) int {
	if waybillID != "" {
		for i := range list {
			if HasCandidate(list[i], waybillID) {
				return i
			}
		}
	}
	if reserveNo != "" {
		return FindByReserve(list, reserveNo)
	}
	return -1
}

// FindByReserve — точное совпадение номера резервации после trim.
func FindByReserve(list []Reservation, reserveNo string) int {
	reserveNo = strings.TrimSpace(reserveNo)
	if reserveNo == "" {
		return -1
	}
	for i := range list {
		if strings.TrimSpace(list[i].ReserveNo) == reserveNo {
			return i
		}
	}
	return -1
}

// Dedupe оставляет первую запись для каждой идентичности; записи без идентичности сохраняются все.
// Запись с накладной считается дубликатом, если любой её кандидат уже встречался, как и в FindMatch.
func Dedupe(list []Reservation) []Reservation {
	out := make([]Reservation, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, r := range list {
		if cands := ExtractIdentityCandidates(r); len(cands) > 0 {
			if anySeen(seen, cands) {
				continue
			}
			for _, c := range cands {
				seen["W:"+c] = struct{}{}
			}
			out = append(out, r)
			continue
		}
		token, ok := IdentityToken(r)
		if !ok {
			out = append(out, r)
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, r)
	}
	return out
}

func anySeen(seen map[string]struct{}, cands []string) bool {
	for _, c := range cands {
		if _, ok := seen["W:"+c]; ok {
			return true
		}
	}
	return false
}
