package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/kozaktomas/names-to-faces/internal/app"
	"github.com/kozaktomas/names-to-faces/internal/auth"
	"github.com/kozaktomas/names-to-faces/internal/web/middleware"
)

var errPasswordRequired = errors.New("password required")

// LifecycleHandler turns foreground and background requests into app
// lifecycle events.
type LifecycleHandler struct {
	app            *app.App
	runner         Runner
	sessionManager *middleware.SessionManager
	logger         *slog.Logger
}

// NewLifecycleHandler creates a new lifecycle handler.
func NewLifecycleHandler(a *app.App, runner Runner, sm *middleware.SessionManager, logger *slog.Logger) *LifecycleHandler {
	return &LifecycleHandler{
		app:            a,
		runner:         runner,
		sessionManager: sm,
		logger:         logger,
	}
}

type foregroundRequest struct {
	Password *string `json:"password"`
}

// Dialog is a message the gate showed while handling the request.
type Dialog struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ForegroundResponse represents the result of a foreground event.
type ForegroundResponse struct {
	State     string   `json:"state"`
	Unlocked  bool     `json:"unlocked"`
	Enrolled  bool     `json:"enrolled,omitempty"`
	Dialogs   []Dialog `json:"dialogs"`
	SessionID string   `json:"session_id,omitempty"`
	ExpiresAt string   `json:"expires_at,omitempty"`
}

// requestPrompter answers the gate from the request body and records the
// dialogs it would have shown.
type requestPrompter struct {
	password *string
	dialogs  []Dialog
}

func (p *requestPrompter) Acknowledge(ctx context.Context, title, message string) {
	p.dialogs = append(p.dialogs, Dialog{Title: title, Message: message})
}

func (p *requestPrompter) Password(ctx context.Context, enroll bool) (string, error) {
	if p.password == nil {
		return "", errPasswordRequired
	}
	return *p.password, nil
}

// Foreground locks the app, drops every session and runs the gate. An unlock
// issues a new session.
func (h *LifecycleHandler) Foreground(w http.ResponseWriter, r *http.Request) {
	var req foregroundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	ctx := r.Context()
	prompter := &requestPrompter{password: req.Password}
	var (
		outcomes <-chan auth.Outcome
		epoch    uint64
	)
	if err := h.runner.Do(ctx, func() {
		h.sessionManager.DeleteAll()
		outcomes = h.app.OnAppForeground(ctx, prompter)
		epoch = h.app.Epoch()
	}); err != nil {
		respondAppError(w, err)
		return
	}

	var outcome auth.Outcome
	select {
	case o, ok := <-outcomes:
		if !ok {
			h.respondSuperseded(w)
			return
		}
		outcome = o
	case <-ctx.Done():
		respondAppError(w, ctx.Err())
		return
	}

	resp := ForegroundResponse{
		State:    outcome.State.String(),
		Unlocked: outcome.Unlocked(),
		Enrolled: outcome.Enrolled,
		Dialogs:  prompter.dialogs,
	}
	if resp.Dialogs == nil {
		resp.Dialogs = []Dialog{}
	}

	if !outcome.Unlocked() {
		h.logger.Info("foreground stayed locked", "state", resp.State)
		h.sessionManager.ClearSessionCookie(w)
		status := http.StatusUnauthorized
		if outcome.State == auth.StateBiometryUnavailable {
			status = http.StatusForbidden
		}
		respondJSON(w, status, resp)
		return
	}

	// Sessions are only created and dropped on the main loop, so a later
	// lifecycle event either drops this one or has already moved the epoch on.
	var session *middleware.Session
	if err := h.runner.Do(ctx, func() {
		if h.app.Epoch() == epoch && h.app.Unlocked() {
			session = h.sessionManager.CreateSession()
		}
	}); err != nil {
		respondAppError(w, err)
		return
	}
	if session == nil {
		h.logger.Info("unlock superseded before session was issued")
		h.respondSuperseded(w)
		return
	}

	h.sessionManager.SetSessionCookie(w, r, session)
	resp.SessionID = session.ID
	resp.ExpiresAt = session.ExpiresAt.Format(time.RFC3339)
	respondJSON(w, http.StatusOK, resp)
}

func (h *LifecycleHandler) respondSuperseded(w http.ResponseWriter) {
	h.sessionManager.ClearSessionCookie(w)
	respondError(w, http.StatusConflict, "superseded by another lifecycle event")
}

// Background saves and locks the app and drops every session.
func (h *LifecycleHandler) Background(w http.ResponseWriter, r *http.Request) {
	h.sessionManager.ClearSessionCookie(w)

	if err := h.runner.Do(r.Context(), func() {
		h.sessionManager.DeleteAll()
		h.app.OnAppBackground(r.Context())
	}); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"state": "locked"})
}
