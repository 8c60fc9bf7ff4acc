package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/reservation-service/internal/adapter/customs"
	"github.com/example/reservation-service/internal/domain"
	"github.com/example/reservation-service/internal/logging"
	"github.com/example/reservation-service/internal/usecase"
)

func (s *Server) handleKVGet(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	v, err := s.KV.Get(r.Context(), key)
	if err != nil {
		s.fail(w, r, err, missingKey(err), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "value": v})
}

type kvSetRequest struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func (s *Server) handleKVSet(w http.ResponseWriter, r *http.Request) {
	var req kvSetRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err, "", nil)
		return
	}
	if err := s.KV.Set(r.Context(), req.Key, req.Value); err != nil {
		s.fail(w, r, err, missingKey(err), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "key": req.Key})
}

func (s *Server) handleKVDelete(w http.ResponseWriter, r *http.Request) {
	var req kvSetRequest
	_ = decodeBody(w, r, &req)
	if req.Key == "" {
		req.Key = r.URL.Query().Get("key")
	}
	if err := s.KV.Delete(r.Context(), req.Key); err != nil {
		s.fail(w, r, err, missingKey(err), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": req.Key})
}

func missingKey(err error) string {
	if errors.Is(err, usecase.ErrReservedKey) {
		return "RESERVED_KEY"
	}
	if status, _ := errorCode(err); status == http.StatusBadRequest {
		return "MISSING_KEY"
	}
	return ""
}

type partyRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (s *Server) handleStoreRegister(w http.ResponseWriter, r *http.Request) {
	var req partyRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err, "", nil)
		return
	}
	if _, err := s.Registry.RegisterStore(r.Context(), req.Name, req.Code); err != nil {
		s.fail(w, r, err, "", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleStoreLogin(w http.ResponseWriter, r *http.Request) {
	var req partyRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err, "", nil)
		return
	}
	acc, err := s.Registry.LoginStore(r.Context(), req.Name, req.Code)
	if err != nil {
		s.fail(w, r, err, notFoundAs(err, "NO_STORE"), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "store": acc})
}

func (s *Server) handleCourierRegister(w http.ResponseWriter, r *http.Request) {
	var req partyRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err, "", nil)
		return
	}
	if _, err := s.Registry.RegisterCourier(r.Context(), req.Name, req.Phone, req.Code); err != nil {
		s.fail(w, r, err, "", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleCourierLogin(w http.ResponseWriter, r *http.Request) {
	var req partyRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err, "", nil)
		return
	}
	c, err := s.Registry.LoginCourier(r.Context(), req.Code)
	if err != nil {
		s.fail(w, r, err, notFoundAs(err, "NO_COURIER"), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "courier": c})
}

func notFoundAs(err error, code string) string {
	if status, _ := errorCode(err); status == http.StatusNotFound {
		return code
	}
	return ""
}

// handleCustomsStatus — запрос по HBL; успешный ответ кэшируется на 90 секунд.
func (s *Server) handleCustomsStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.proxyCustoms(w, r, customs.Query{Type: customs.TypeHBL, No: q.Get("hblNo"), BlYy: q.Get("blYy")}, "public, max-age=90")
}

func (s *Server) handleUnipass(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.proxyCustoms(w, r, customs.Query{Type: q.Get("type"), No: q.Get("no"), BlYy: q.Get("blYy")}, "no-store")
}

func (s *Server) proxyCustoms(w http.ResponseWriter, r *http.Request, q customs.Query, okCache string) {
	if s.Customs == nil {
		s.fail(w, r, customs.ErrNotConfigured, "", nil)
		return
	}
	resp, err := s.Customs.Lookup(r.Context(), q)
	switch {
	case errors.Is(err, domain.ErrBadInput):
		s.fail(w, r, err, "BAD_QUERY", map[string]any{"message": err.Error()})
		return
	case errors.Is(err, customs.ErrNotConfigured):
		s.fail(w, r, err, "", nil)
		return
	case err != nil:
		if s.Logger != nil {
			logging.LogError(s.Logger, "httpapi", "proxyCustoms", "upstream request failed", q.Type, err)
		}
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "UPSTREAM_ERROR", "message": err.Error()})
		return
	}
	cache := "no-store"
	if resp.Status == http.StatusOK {
		cache = okCache
	}
	w.Header().Set("Content-Type", resp.ContentType)
	w.Header().Set("Cache-Control", cache)
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
