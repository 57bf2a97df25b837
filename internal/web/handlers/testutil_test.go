package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/names-to-faces/internal/app"
	"github.com/kozaktomas/names-to-faces/internal/auth"
	"github.com/kozaktomas/names-to-faces/internal/loop"
	"github.com/kozaktomas/names-to-faces/internal/persistence"
	"github.com/kozaktomas/names-to-faces/internal/person"
	"github.com/kozaktomas/names-to-faces/internal/storage"
	"github.com/kozaktomas/names-to-faces/internal/storage/mock"
	"github.com/kozaktomas/names-to-faces/internal/web/middleware"
)

// fakeBiometric is a scripted biometric verifier.
type fakeBiometric struct {
	available bool
	err       error
}

func (f *fakeBiometric) Available() bool { return f.available }

func (f *fakeBiometric) Verify(ctx context.Context, reason string) error { return f.err }

// testEnv is an app core running on its own main loop over in-memory storage.
type testEnv struct {
	app      *app.App
	loop     *loop.Loop
	store    *mock.MockStore
	adapter  *persistence.Adapter
	sessions *middleware.SessionManager
	logger   *slog.Logger
}

func newTestEnv(t *testing.T, bio auth.Biometric) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	l := loop.New(16)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})

	m := mock.NewMockStore()
	adapter := persistence.New(m, m, persistence.Options{PlaceholderSize: 16, Logger: logger})
	gate := auth.NewGate(bio, m, l, auth.Options{Logger: logger})
	return &testEnv{
		app:      app.New(adapter, gate, nil, logger),
		loop:     l,
		store:    m,
		adapter:  adapter,
		sessions: middleware.NewSessionManager("test-secret"),
		logger:   logger,
	}
}

func (e *testEnv) lifecycle() *LifecycleHandler {
	return NewLifecycleHandler(e.app, e.loop, e.sessions, e.logger)
}

func (e *testEnv) people() *PeopleHandler {
	return NewPeopleHandler(e.app, e.loop, e.logger)
}

// seed saves people as if a previous run had stored them.
func (e *testEnv) seed(people ...person.Person) {
	e.adapter.Save(context.Background(), person.NewStore(people...))
}

func (e *testEnv) setPassword(password string) {
	e.store.SetSecret(context.Background(), storage.PasswordSlot, password)
}

// unlock runs a foreground event through the handler and fails unless it unlocks.
func (e *testEnv) unlock(t *testing.T) {
	t.Helper()
	w := httptest.NewRecorder()
	e.lifecycle().Foreground(w, httptest.NewRequest(http.MethodPost, "/api/v1/lifecycle/foreground", strings.NewReader(`{"password":"pw"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("unlock failed: %d %s", w.Code, w.Body.String())
	}
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// multipartImage builds a multipart body with data in the given field.
func multipartImage(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "face.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(data)
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(2, 2, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
