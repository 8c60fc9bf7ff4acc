package domain

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Имена полей идентичности резервации.
const (
	FieldReserveNo = "reserveNo"
	FieldWaybillNo = "waybillNo"
	FieldUpdatedAt = "updatedAt"
)

// Reservation — доменная сущность резервации доставки.
// Поля идентичности типизированы, всё остальное, что прислал клиент, хранится как есть в Extra.
type Reservation struct {
	ReserveNo string
	WaybillNo string
	UpdatedAt string
	Extra     map[string]json.RawMessage
}

func (r *Reservation) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if fields == nil {
		return ErrBadInput
	}
	out := Reservation{Extra: make(map[string]json.RawMessage, len(fields))}
	for k, v := range fields {
		switch k {
		case FieldReserveNo:
			out.ReserveNo = strings.TrimSpace(Text(v))
		case FieldWaybillNo:
			out.WaybillNo = strings.TrimSpace(Text(v))
		case FieldUpdatedAt:
			out.UpdatedAt = Text(v)
		default:
			out.Extra[k] = v
		}
	}
	*r = out
	return nil
}

func (r Reservation) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(r.Extra)+3)
	for k, v := range r.Extra {
		fields[k] = v
	}
	for k, v := range map[string]string{
		FieldReserveNo: r.ReserveNo,
		FieldWaybillNo: r.WaybillNo,
		FieldUpdatedAt: r.UpdatedAt,
	} {
		if v == "" {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		fields[k] = raw
	}
	return json.Marshal(fields)
}

// Field возвращает текстовое значение произвольного поля, включая поля идентичности.
func (r Reservation) Field(name string) string {
	switch name {
	case FieldReserveNo:
		return r.ReserveNo
	case FieldWaybillNo:
		return r.WaybillNo
	case FieldUpdatedAt:
		return r.UpdatedAt
	}
	return Text(r.Extra[name])
}

// Text приводит JSON-значение к тексту: строка как есть, число и bool — литералом,
// null, объект, массив и отсутствующее значение — пустая строка.
func Text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	}
	return string(raw)
}

// SortByUpdatedDesc упорядочивает резервации: свежие (по строковому сравнению updatedAt) первыми.
func SortByUpdatedDesc(list []Reservation) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].UpdatedAt > list[j].UpdatedAt
	})
}
