package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/kozaktomas/names-to-faces/internal/app"
	"github.com/kozaktomas/names-to-faces/internal/loop"
	"github.com/kozaktomas/names-to-faces/internal/persistence"
	"github.com/kozaktomas/names-to-faces/internal/person"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// Runner executes work on the main loop and waits for it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondAppError maps an error from the app core or the main loop to a response.
func respondAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrLocked):
		respondError(w, http.StatusUnauthorized, "locked")
	case errors.Is(err, person.ErrIndexOutOfRange):
		respondError(w, http.StatusConflict, "index out of range")
	case errors.Is(err, persistence.ErrInvalidImage):
		respondError(w, http.StatusBadRequest, "not a supported image")
	case errors.Is(err, loop.ErrStopped):
		respondError(w, http.StatusServiceUnavailable, "shutting down")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		respondError(w, http.StatusServiceUnavailable, "request timed out")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseIndex reads the {index} URL parameter. Range is checked by the store.
func parseIndex(r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	return i, err == nil
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
