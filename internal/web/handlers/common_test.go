package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/kozaktomas/names-to-faces/internal/app"
	"github.com/kozaktomas/names-to-faces/internal/loop"
	"github.com/kozaktomas/names-to-faces/internal/persistence"
	"github.com/kozaktomas/names-to-faces/internal/person"
)

func TestRespondJSON_SetsContentType(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondJSON(recorder, http.StatusOK, map[string]string{"status": "ok"})

	if contentType := recorder.Header().Get("Content-Type"); contentType != "application/json" {
		t.Errorf("expected Content-Type 'application/json', got '%s'", contentType)
	}
}

func TestRespondJSON_SetsStatusCode(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"OK", http.StatusOK},
		{"Created", http.StatusCreated},
		{"BadRequest", http.StatusBadRequest},
		{"Conflict", http.StatusConflict},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondJSON(recorder, tc.statusCode, nil)

			if recorder.Code != tc.statusCode {
				t.Errorf("expected status %d, got %d", tc.statusCode, recorder.Code)
			}
			if recorder.Body.Len() != 0 {
				t.Errorf("expected empty body for nil data, got %q", recorder.Body.String())
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondError(recorder, http.StatusBadRequest, "bad things")

	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result["error"] != "bad things" {
		t.Errorf("expected error 'bad things', got %q", result["error"])
	}
}

func TestRespondAppError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"locked", app.ErrLocked, http.StatusUnauthorized},
		{"index", fmt.Errorf("%w: 3 not in [0, 1)", person.ErrIndexOutOfRange), http.StatusConflict},
		{"invalid image", fmt.Errorf("%w: unknown format", persistence.ErrInvalidImage), http.StatusBadRequest},
		{"loop stopped", loop.ErrStopped, http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondAppError(recorder, tc.err)
			if recorder.Code != tc.want {
				t.Errorf("expected status %d, got %d", tc.want, recorder.Code)
			}
		})
	}
}

func TestParseIndex(t *testing.T) {
	tests := []struct {
		param  string
		want   int
		wantOK bool
	}{
		{"0", 0, true},
		{"12", 12, true},
		{"-1", -1, true},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tc := range tests {
		r := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"index": tc.param})
		got, ok := parseIndex(r)
		if ok != tc.wantOK || (ok && got != tc.want) {
			t.Errorf("parseIndex(%q) = %d, %v; want %d, %v", tc.param, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("face\r\n.png"); got != "face.png" {
		t.Errorf("expected newlines stripped, got %q", got)
	}
}

func TestHealthCheck(t *testing.T) {
	recorder := httptest.NewRecorder()

	HealthCheck(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", recorder.Code)
	}
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", result["status"])
	}
}
