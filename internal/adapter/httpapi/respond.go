package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/example/reservation-service/internal/adapter/customs"
	"github.com/example/reservation-service/internal/domain"
	"github.com/example/reservation-service/internal/logging"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorCode сопоставляет доменную ошибку HTTP-статусу и коду ответа.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrBadInput):
		return http.StatusBadRequest, "BAD_BODY"
	case errors.Is(err, domain.ErrConfirmationRequired):
		return http.StatusBadRequest, "CONFIRM_TEXT_REQUIRED"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrDuplicate):
		return http.StatusConflict, "DUPLICATE_CODE"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusInternalServerError, "STORE_UNAVAILABLE"
	case errors.Is(err, customs.ErrNotConfigured):
		return http.StatusInternalServerError, "CUSTOMS_NOT_CONFIGURED"
	}
	return http.StatusInternalServerError, "SERVER_ERROR"
}

// fail пишет ответ об ошибке. extra дополняет тело; code, если не пуст, заменяет код по умолчанию.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, code string, extra map[string]any) {
	status, defCode := errorCode(err)
	if code == "" {
		code = defCode
	}
	body := map[string]any{"error": code}
	for k, v := range extra {
		body[k] = v
	}
	if status >= http.StatusInternalServerError {
		body["message"] = err.Error()
		if s.Logger != nil {
			logging.LogError(s.Logger, "httpapi", r.Method+" "+r.URL.Path, code, nil, err)
		}
	}
	writeJSON(w, status, body)
}

// readBody читает тело запроса с ограничением размера.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.ErrBadInput
	}
	return raw, nil
}

// decodeBody разбирает JSON-тело; пустое или битое тело — ErrBadInput.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	raw, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return domain.ErrBadInput
	}
	return nil
}
