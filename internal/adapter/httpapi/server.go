package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/example/reservation-service/internal/adapter/customs"
	"github.com/example/reservation-service/internal/usecase"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// CustomsLookup — порт прокси статуса растаможки.
type CustomsLookup interface {
	Lookup(ctx context.Context, q customs.Query) (customs.Response, error)
}

// Deps — зависимости HTTP-слоя.
type Deps struct {
	Repo     *usecase.ReservationRepository
	Inspect  usecase.InspectStore
	Wipe     usecase.WipeData
	KV       usecase.KeyValue
	Registry *usecase.Registry
	Customs  CustomsLookup
	Logger   logrus.FieldLogger
}

type Server struct {
	Router *mux.Router
	Deps
	Now func() time.Time
}

// NewServer регистрирует маршруты и без префикса, и под /api (фронтенд ходит в /api/...).
func NewServer(d Deps) *Server {
	s := &Server{Router: mux.NewRouter(), Deps: d, Now: time.Now}
	s.routes(s.Router.PathPrefix("/api").Subrouter())
	s.routes(s.Router)
	s.Router.NotFoundHandler = http.HandlerFunc(s.handleNoRoute)
	s.Router.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)
	return s
}

func (s *Server) routes(r *mux.Router) {
	r.HandleFunc("/ping", s.handlePing).Methods(http.MethodGet)

	r.HandleFunc("/reservations", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/reservations", s.handleUpsert).Methods(http.MethodPost)
	r.HandleFunc("/reservations/upsert", s.handleUpsert).Methods(http.MethodPost)
	r.HandleFunc("/reservations/byWaybill/{no}", s.handleByWaybill).Methods(http.MethodGet)
	r.HandleFunc("/reservations/byReserve/{no}", s.handleByReserve).Methods(http.MethodGet)

	r.HandleFunc("/debug/reservations", s.handleDebug).Methods(http.MethodGet)
	r.HandleFunc("/admin/wipe", s.handleWipe).Methods(http.MethodPost)

	r.HandleFunc("/kv/get", s.handleKVGet).Methods(http.MethodGet)
	r.HandleFunc("/kv/set", s.handleKVSet).Methods(http.MethodPost)
	r.HandleFunc("/kv/set", s.handleKVDelete).Methods(http.MethodDelete)

	r.HandleFunc("/stores/register", s.handleStoreRegister).Methods(http.MethodPost)
	r.HandleFunc("/stores/login", s.handleStoreLogin).Methods(http.MethodPost)
	r.HandleFunc("/couriers/register", s.handleCourierRegister).Methods(http.MethodPost)
	r.HandleFunc("/couriers/login", s.handleCourierLogin).Methods(http.MethodPost)

	r.HandleFunc("/customs/status", s.handleCustomsStatus).Methods(http.MethodGet)
	r.HandleFunc("/unipass", s.handleUnipass).Methods(http.MethodGet)
}

// Handler — роутер, обёрнутый в middleware. CORS и recover снаружи mux,
// чтобы preflight и 404/405 тоже их получали.
func (s *Server) Handler() http.Handler {
	return withCORS(s.withRequestLog(s.withRecover(s.Router)))
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "time": s.now()})
}

func (s *Server) handleNoRoute(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{"error": "NO_ROUTE", "method": r.Method, "path": r.URL.Path})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "METHOD_NOT_ALLOWED", "method": r.Method, "path": r.URL.Path})
}

func (s *Server) now() string {
	return s.Now().UTC().Format(usecase.TimeLayout)
}
