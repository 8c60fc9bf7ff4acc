package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"123-456", "123456"},
		{" 81 2345 6789 ", "8123456789"},
		{"ABC", ""},
		{"000002", "000002"},
		{"운송장 30-11", "3011"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "normalize must be idempotent")
		})
	}
}

func TestCanonicalIdentity(t *testing.T) {
	assert.Equal(t, "2", CanonicalIdentity("000002"))
	assert.Equal(t, "2", CanonicalIdentity("2"))
	assert.Equal(t, "0", CanonicalIdentity("000"))
	assert.Equal(t, "", CanonicalIdentity("n/a"))
	assert.Equal(t, "123456", CanonicalIdentity("123-456"))
}

func mustRecord(t *testing.T, doc string) Reservation {
	t.Helper()
	var r Reservation
	require.NoError(t, json.Unmarshal([]byte(doc), &r))
	return r
}

func TestExtractIdentityCandidates(t *testing.T) {
	r := mustRecord(t, `{"reserveNo":"R1","waybillNo":"123-456","invoice_no":"123456","wb":"999","trackingNo":77}`)
	assert.Equal(t, []string{"123456", "999", "77"}, ExtractIdentityCandidates(r))

	empty := mustRecord(t, `{"reserveNo":"42"}`)
	assert.Empty(t, ExtractIdentityCandidates(empty), "reserveNo is not a waybill alias")
}

func TestWaybillIdentity_FirstAliasWins(t *testing.T) {
	r := mustRecord(t, `{"waybillNo":"","invoiceNo":" 555-1 ","wb":"9"}`)
	id, text := WaybillIdentity(r)
	assert.Equal(t, "5551", id)
	assert.Equal(t, "555-1", text)
}

func TestIdentityToken(t *testing.T) {
	tok, ok := IdentityToken(mustRecord(t, `{"reserveNo":"X","waybillNo":"1"}`))
	assert.True(t, ok)
	assert.Equal(t, "W:1", tok)

	tok, ok = IdentityToken(mustRecord(t, `{"reserveNo":" X "}`))
	assert.True(t, ok)
	assert.Equal(t, "R:X", tok)

	_, ok = IdentityToken(mustRecord(t, `{"status":"NEW"}`))
	assert.False(t, ok)
}
