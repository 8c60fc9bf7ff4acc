package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/reservation-service/internal/adapter/customs"
	"github.com/example/reservation-service/internal/adapter/kv"
	"github.com/example/reservation-service/internal/adapter/lock"
	"github.com/example/reservation-service/internal/domain"
	"github.com/example/reservation-service/internal/usecase"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type fakeCustoms struct {
	resp customs.Response
	err  error
	got  customs.Query
}

func (f *fakeCustoms) Lookup(_ context.Context, q customs.Query) (customs.Response, error) {
	f.got = q
	return f.resp, f.err
}

func newTestServer(tb testing.TB, store domain.KVStore) *Server {
	tb.Helper()
	logger, _ := test.NewNullLogger()
	layout := domain.DefaultLayout()
	rec := usecase.NewReconciler(store, layout, lock.Noop{}, logger)
	rec.Now = func() time.Time { return fixedNow }
	repo := usecase.NewReservationRepository(rec)
	repo.Now = rec.Now
	reg := usecase.NewRegistry(store)
	reg.Now = rec.Now
	s := NewServer(Deps{
		Repo:     repo,
		Inspect:  usecase.InspectStore{Store: store, Layout: layout},
		Wipe:     usecase.WipeData{Store: store, Layout: layout, Logger: logger},
		KV:       usecase.KeyValue{Store: store, Layout: layout},
		Registry: reg,
		Logger:   logger,
	})
	s.Now = rec.Now
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHandleGet(t *testing.T) {
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "DELIVERY_RESERVATIONS_V1",
		[]byte(`[{"reserveNo":"R1","waybillNo":"8100-0000-0001","status":"READY"}]`)))
	h := newTestServer(t, store).Handler()

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantErr  string
	}{
		{"list", "/reservations", http.StatusOK, ""},
		{"list under /api", "/api/reservations", http.StatusOK, ""},
		{"by waybill digits", "/reservations/byWaybill/810000000001", http.StatusOK, ""},
		{"by waybill formatted", "/api/reservations/byWaybill/8100-0000-0001", http.StatusOK, ""},
		{"by waybill miss", "/reservations/byWaybill/1", http.StatusNotFound, "NOT_FOUND"},
		{"by reserve", "/reservations/byReserve/R1", http.StatusOK, ""},
		{"by reserve miss", "/api/reservations/byReserve/R2", http.StatusNotFound, "NOT_FOUND"},
		{"no route", "/api/nothing", http.StatusNotFound, "NO_ROUTE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, "no-store, max-age=0", w.Header().Get("Cache-Control"))
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decode(t, w)["error"])
			}
		})
	}
}

func TestHandleUpsert_MergesAndLists(t *testing.T) {
	h := newTestServer(t, kv.NewMemoryStore()).Handler()

	w := do(t, h, http.MethodPost, "/api/reservations/upsert", `{"record":{"reserveNo":"R1","waybillNo":"123-456","store":"S01"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(1), body["total"])

	w = do(t, h, http.MethodPost, "/reservations", `{"waybillNo":"123456","status":"DELIVERED"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, map[string]any{
		"reserveNo": "R1",
		"waybillNo": "123456",
		"store":     "S01",
		"status":    "DELIVERED",
		"updatedAt": "2024-03-01T09:30:00.000Z",
	}, body["record"])

	w = do(t, h, http.MethodGet, "/reservations", "")
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "DELIVERED", list[0]["status"])
}

func TestHandleUpsert_BadBody(t *testing.T) {
	h := newTestServer(t, kv.NewMemoryStore()).Handler()
	for _, body := range []string{"", "not json", "[1,2]", `{"status":"x"}`, `{"record":"x"}`} {
		w := do(t, h, http.MethodPost, "/reservations/upsert", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "BAD_BODY", decode(t, w)["error"], body)
	}
}

func TestHandleList_HealsLegacy(t *testing.T) {
	store := kv.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "kv:DELIVERY_RESERVATIONS_V1", []byte(`[{"reserveNo":"X","waybillNo":"1"}]`)))
	require.NoError(t, store.Set(ctx, "DELIVERY_RESERVATIONS", []byte(`[{"reserveNo":"X","waybillNo":"1"},{"reserveNo":"Y","waybillNo":"2"}]`)))
	h := newTestServer(t, store).Handler()

	w := do(t, h, http.MethodGet, "/api/debug/reservations", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["canonical"].(map[string]any)["exists"])

	w = do(t, h, http.MethodGet, "/api/reservations", "")
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = do(t, h, http.MethodGet, "/api/reservations/byWaybill/000002", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Y", decode(t, w)["reserveNo"])

	w = do(t, h, http.MethodGet, "/api/debug/reservations", "")
	d := decode(t, w)
	assert.Equal(t, float64(2), d["canonical"].(map[string]any)["count"])
	assert.Equal(t, float64(2), d["migration"].(map[string]any)["total"])
}

func TestHandleWipe(t *testing.T) {
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "res:1", []byte(`{}`)))
	h := newTestServer(t, store).Handler()

	for _, body := range []string{"", `{"confirm":"wrong"}`, "garbage"} {
		w := do(t, h, http.MethodPost, "/admin/wipe", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "CONFIRM_TEXT_REQUIRED", decode(t, w)["error"])
	}

	w := do(t, h, http.MethodPost, "/api/admin/wipe", `{"confirm":"전체삭제"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"ok": true, "deleted": float64(1)}, decode(t, w))
}

func TestHandleKV(t *testing.T) {
	h := newTestServer(t, kv.NewMemoryStore()).Handler()

	w := do(t, h, http.MethodGet, "/api/kv/get", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_KEY", decode(t, w)["error"])

	w = do(t, h, http.MethodPost, "/api/kv/set", `{"key":"theme","value":{"dark":true}}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/kv/get?key=theme", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"key": "theme", "value": map[string]any{"dark": true}}, decode(t, w))

	w = do(t, h, http.MethodDelete, "/api/kv/set?key=theme", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/kv/get?key=theme", "")
	assert.Nil(t, decode(t, w)["value"])

	w = do(t, h, http.MethodPost, "/api/kv/set", `{"value":1}`)
	assert.Equal(t, "MISSING_KEY", decode(t, w)["error"])

	w = do(t, h, http.MethodPost, "/api/kv/set", `{"key":"DELIVERY_RESERVATIONS_V1","value":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "RESERVED_KEY", decode(t, w)["error"])

	w = do(t, h, http.MethodDelete, "/api/kv/set?key=reservations", "")
	assert.Equal(t, "RESERVED_KEY", decode(t, w)["error"])
}

func TestHandleRegistry(t *testing.T) {
	h := newTestServer(t, kv.NewMemoryStore()).Handler()

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"store register", "/stores/register", `{"name":"선우상회","code":"S01"}`, http.StatusOK, ""},
		{"store duplicate", "/stores/register", `{"name":"x","code":"S01"}`, http.StatusConflict, "DUPLICATE_CODE"},
		{"store missing name", "/stores/register", `{"code":"S02"}`, http.StatusBadRequest, "BAD_BODY"},
		{"store login", "/stores/login", `{"name":"선우상회","code":"S01"}`, http.StatusOK, ""},
		{"store login wrong name", "/stores/login", `{"name":"x","code":"S01"}`, http.StatusNotFound, "NO_STORE"},
		{"courier register", "/couriers/register", `{"name":"Kim","phone":"010","code":"C01"}`, http.StatusOK, ""},
		{"courier missing phone", "/couriers/register", `{"name":"Kim","code":"C02"}`, http.StatusBadRequest, "BAD_BODY"},
		{"courier login", "/couriers/login", `{"code":"C01"}`, http.StatusOK, ""},
		{"courier login miss", "/couriers/login", `{"code":"C09"}`, http.StatusNotFound, "NO_COURIER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decode(t, w)["error"])
			}
		})
	}
}

func TestHandleCustoms(t *testing.T) {
	s := newTestServer(t, kv.NewMemoryStore())
	fake := &fakeCustoms{resp: customs.Response{Status: http.StatusOK, ContentType: "application/xml", Body: []byte("<ok/>")}}
	s.Customs = fake
	h := s.Handler()

	w := do(t, h, http.MethodGet, "/api/customs/status?hblNo=123&blYy=2024", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<ok/>", w.Body.String())
	assert.Equal(t, "public, max-age=90", w.Header().Get("Cache-Control"))
	assert.Equal(t, customs.Query{Type: customs.TypeHBL, No: "123", BlYy: "2024"}, fake.got)

	w = do(t, h, http.MethodGet, "/api/unipass?type=carg&no=C1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	fake.resp = customs.Response{Status: http.StatusServiceUnavailable, ContentType: "text/xml", Body: []byte("<down/>")}
	w = do(t, h, http.MethodGet, "/api/customs/status?hblNo=1&blYy=2024", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	fake.err = domain.ErrBadInput
	w = do(t, h, http.MethodGet, "/api/unipass", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_QUERY", decode(t, w)["error"])

	s.Customs = nil
	w = do(t, s.Handler(), http.MethodGet, "/api/unipass?no=1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "CUSTOMS_NOT_CONFIGURED", decode(t, w)["error"])
}

func TestPreflightAndMethods(t *testing.T) {
	h := newTestServer(t, kv.NewMemoryStore()).Handler()

	w := do(t, h, http.MethodOptions, "/api/reservations", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET,POST,DELETE,OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))

	w = do(t, h, http.MethodPut, "/reservations", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", decode(t, w)["error"])

	w = do(t, h, http.MethodGet, "/ping", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"ok": true, "time": "2024-03-01T09:30:00.000Z"}, decode(t, w))
}

type brokenStore struct{ domain.KVStore }

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, assert.AnError
}

func TestStoreUnavailable(t *testing.T) {
	h := newTestServer(t, brokenStore{kv.NewMemoryStore()}).Handler()
	w := do(t, h, http.MethodGet, "/api/reservations", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "STORE_UNAVAILABLE", decode(t, w)["error"])
}

func TestRecoverFromPanic(t *testing.T) {
	s := newTestServer(t, kv.NewMemoryStore())
	s.Router.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
	w := do(t, s.Handler(), http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "SERVER_ERROR", decode(t, w)["error"])
}
