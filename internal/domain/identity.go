package domain

import "strings"

// WaybillAliases — известные имена поля номера накладной, в порядке приоритета.
// Первое — основное, остальные встречаются в исторических данных.
var WaybillAliases = []string{
	FieldWaybillNo,
	"invoiceNo",
	"invoice_no",
	"waybill",
	"wb",
	"trackingNo",
	"hblNo",
}

// Normalize оставляет от значения только цифры (после trim). Пустой ввод даёт "".
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// CanonicalIdentity — числовая идентичность для сравнения накладных:
// Normalize без ведущих нулей ("000002" и "2" совпадают).
func CanonicalIdentity(raw string) string {
	digits := Normalize(raw)
	if digits == "" {
		return ""
	}
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// ExtractIdentityCandidates возвращает различные непустые идентичности накладной,
// найденные во всех известных алиасах, в порядке алиасов.
func ExtractIdentityCandidates(r Reservation) []string {
	var out []string
	seen := make(map[string]struct{}, len(WaybillAliases))
	for _, alias := range WaybillAliases {
		id := CanonicalIdentity(r.Field(alias))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// WaybillIdentity — первая непустая идентичность накладной и исходный текст поля, из которого она взята.
func WaybillIdentity(r Reservation) (id, text string) {
	for _, alias := range WaybillAliases {
		v := strings.TrimSpace(r.Field(alias))
		if id := CanonicalIdentity(v); id != "" {
			return id, v
		}
	}
	return "", ""
}

// HasCandidate сообщает, входит ли идентичность id в кандидаты записи.
func HasCandidate(r Reservation, id string) bool {
	if id == "" {
		return false
	}
	for _, c := range ExtractIdentityCandidates(r) {
		if c == id {
			return true
		}
	}
	return false
}

// IdentityToken — ключ дедупликации: "W:<накладная>", иначе "R:<номер резервации>".
// ok=false, если у записи нет устойчивой идентичности.
func IdentityToken(r Reservation) (token string, ok bool) {
	if id, _ := WaybillIdentity(r); id != "" {
		return "W:" + id, true
	}
	if rn := strings.TrimSpace(r.ReserveNo); rn != "" {
		return "R:" + rn, true
	}
	return "", false
}
