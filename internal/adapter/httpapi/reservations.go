package httpapi

import (
	"net/http"

	"github.com/example/reservation-service/internal/domain"
	"github.com/example/reservation-service/internal/usecase"
	"github.com/gorilla/mux"
)

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.Repo.List(r.Context())
	if err != nil {
		s.fail(w, r, err, "", nil)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleByWaybill(w http.ResponseWriter, r *http.Request) {
	no := mux.Vars(r)["no"]
	rec, err := s.Repo.GetByWaybill(r.Context(), no)
	if err != nil {
		s.fail(w, r, err, "", map[string]any{"waybillNo": domain.Normalize(no)})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleByReserve(w http.ResponseWriter, r *http.Request) {
	no := mux.Vars(r)["no"]
	rec, err := s.Repo.GetByReserve(r.Context(), no)
	if err != nil {
		s.fail(w, r, err, "", map[string]any{"reserveNo": no})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		s.fail(w, r, err, "", nil)
		return
	}
	in, err := usecase.ParseUpsertBody(raw)
	if err != nil {
		s.fail(w, r, err, "", nil)
		return
	}
	res, err := s.Repo.Upsert(r.Context(), in)
	if err != nil {
		s.fail(w, r, err, "", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "record": res.Record, "total": res.Total})
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	d, err := s.Inspect.Execute(r.Context())
	if err != nil {
		s.fail(w, r, err, "", nil)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type wipeRequest struct {
	Confirm string `json:"confirm"`
}

func (s *Server) handleWipe(w http.ResponseWriter, r *http.Request) {
	var req wipeRequest
	// битое тело равносильно отсутствию подтверждения
	_ = decodeBody(w, r, &req)
	n, err := s.Wipe.Execute(r.Context(), req.Confirm)
	if err != nil {
		s.fail(w, r, err, "", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": n})
}
