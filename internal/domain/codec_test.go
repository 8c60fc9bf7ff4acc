package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecordSet_Shapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"empty", ``, 0},
		{"null", `null`, 0},
		{"array", `[{"reserveNo":"A"},{"reserveNo":"B"}]`, 2},
		{"array with junk", `[{"reserveNo":"A"},1,"x",null]`, 1},
		{"wrapped data", `{"data":[{"reserveNo":"A"}]}`, 1},
		{"wrapped reservations", `{"reservations":[{"reserveNo":"A"},{"reserveNo":"B"}]}`, 2},
		{"stringified", `"[{\"reserveNo\":\"A\"}]"`, 1},
		{"stringified wrapper", `"{\"value\":[{\"reserveNo\":\"A\"}]}"`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRecordSet([]byte(tt.raw))
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestDecodeRecordSet_Rejects(t *testing.T) {
	for _, raw := range []string{`{"reserveNo":"A"}`, `42`, `"plain text"`, `[`} {
		_, err := DecodeRecordSet([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestDecodeRecord(t *testing.T) {
	r, ok := DecodeRecord([]byte(`"{\"reserveNo\":\" R9 \",\"waybillNo\":12345}"`))
	require.True(t, ok)
	assert.Equal(t, "R9", r.ReserveNo)
	assert.Equal(t, "12345", r.WaybillNo)

	_, ok = DecodeRecord([]byte(`[]`))
	assert.False(t, ok)
}

func TestEncodeRecordSet_Nil(t *testing.T) {
	raw, err := EncodeRecordSet(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}
