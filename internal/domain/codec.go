package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Ключи-обёртки, под которыми старые клиенты сохраняли массив резерваций.
var wrapperKeys = []string{"data", "reservations", "items", "value"}

// errNotRecordSet — значение не похоже на набор резерваций.
var errNotRecordSet = errors.New("value is not a reservation set")

// DecodeRecordSet разбирает сохранённый набор резерваций. Принимает массив, объект с массивом
// под data/reservations/items/value, а также JSON-строку с любым из этих вариантов внутри.
// Элементы массива, не являющиеся объектами, пропускаются.
func DecodeRecordSet(raw []byte) ([]Reservation, error) {
	return decodeRecordSet(raw, 0)
}

func decodeRecordSet(raw []byte, depth int) ([]Reservation, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if depth > 2 {
		return nil, errNotRecordSet
	}
	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		out := make([]Reservation, 0, len(items))
		for _, item := range items {
			item = bytes.TrimSpace(item)
			if len(item) == 0 || item[0] != '{' {
				continue
			}
			var r Reservation
			if err := json.Unmarshal(item, &r); err != nil {
				continue
			}
			out = append(out, r)
		}
		return out, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		for _, k := range wrapperKeys {
			if v, ok := obj[k]; ok {
				return decodeRecordSet(v, depth+1)
			}
		}
		return nil, errNotRecordSet
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return decodeRecordSet([]byte(s), depth+1)
	}
	return nil, errNotRecordSet
}

// DecodeRecord разбирает одиночную запись (формат res:<номер>). Допускается JSON-строка с объектом.
func DecodeRecord(raw []byte) (Reservation, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Reservation{}, false
		}
		raw = bytes.TrimSpace([]byte(s))
	}
	if len(raw) == 0 || raw[0] != '{' {
		return Reservation{}, false
	}
	var r Reservation
	if err := json.Unmarshal(raw, &r); err != nil {
		return Reservation{}, false
	}
	return r, true
}

// EncodeRecordSet сериализует набор; nil кодируется как пустой массив.
func EncodeRecordSet(list []Reservation) ([]byte, error) {
	if list == nil {
		list = []Reservation{}
	}
	return json.Marshal(list)
}
