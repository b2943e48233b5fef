package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	authdomain "storefront/backend/internal/domain/auth"
	categorydomain "storefront/backend/internal/domain/category"
	productdomain "storefront/backend/internal/domain/product"
	"storefront/backend/internal/domain/storage"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

var errInvalidID = errors.New("invalid id")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "invalid JSON payload"
		if errors.Is(err, io.EOF) {
			msg = "request body required"
		}
		writeError(w, http.StatusBadRequest, msg)
		return false
	}
	if dec.More() {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

// pathID parses a positive integer route variable.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidID, raw)
	}
	return id, nil
}

// statusFor maps a service error onto its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, authdomain.ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, authdomain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, categorydomain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, categorydomain.ErrNameExists):
		return http.StatusConflict
	case errors.Is(err, authdomain.ErrValidation),
		errors.Is(err, authdomain.ErrInvalidRole),
		errors.Is(err, authdomain.ErrEmailExists),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, productdomain.ErrValidation),
		errors.Is(err, categorydomain.ErrValidation),
		errors.Is(err, errInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders err. Server-side failures get a generic message
// and the cause goes to the log.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusServiceUnavailable:
		s.requestLogger(r).WithError(err).Error("storage unavailable")
		writeError(w, status, "service temporarily unavailable")
	case http.StatusInternalServerError:
		s.requestLogger(r).WithError(err).Error("unexpected error")
		writeError(w, status, "internal server error")
	default:
		writeError(w, status, err.Error())
	}
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "resource not found")
	})
}

func methodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}
