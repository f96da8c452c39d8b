package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/secrets/internal/api/middleware"
	"github.com/sirpyerre/secrets/internal/core/domain"
	"github.com/sirpyerre/secrets/internal/core/ports"
	"github.com/sirpyerre/secrets/internal/core/service"
	"github.com/sirpyerre/secrets/internal/infrastructure/db/memory"
)

type recordingRenderer struct {
	name string
	data any
}

func (r *recordingRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	r.name = name
	r.data = data
	_, err := io.WriteString(w, name)
	return err
}

type stubCredentials struct {
	registerFn func(ctx context.Context, username, password string) (*domain.User, error)
	verifyFn   func(ctx context.Context, username, password string) (*domain.User, error)
}

func (s *stubCredentials) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return s.registerFn(ctx, username, password)
}

func (s *stubCredentials) Verify(ctx context.Context, username, password string) (*domain.User, error) {
	return s.verifyFn(ctx, username, password)
}

type stubFederation struct {
	beginFn    func(ctx context.Context) (string, string, error)
	completeFn func(ctx context.Context, cb ports.HandshakeCallback) (*domain.User, error)
}

func (s *stubFederation) BeginHandshake(ctx context.Context) (string, string, error) {
	return s.beginFn(ctx)
}

func (s *stubFederation) CompleteHandshake(ctx context.Context, cb ports.HandshakeCallback) (*domain.User, error) {
	return s.completeFn(ctx, cb)
}

// harness wires real session handling over in-memory stores.
type harness struct {
	e        *echo.Echo
	renderer *recordingRenderer
	svc      *service.SessionService
	codec    *middleware.CookieCodec
	sessions *Sessions
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	r := &recordingRenderer{}
	e.Renderer = r

	store := memory.NewSessionStore()
	svc := service.NewSessionService(store, time.Hour, zerolog.Nop())
	codec := middleware.NewCookieCodec("test-secret", false)
	return &harness{
		e:        e,
		renderer: r,
		svc:      svc,
		codec:    codec,
		sessions: NewSessions(svc, codec, zerolog.Nop()),
	}
}

// login establishes a session for user and returns its signed cookie.
func (h *harness) login(t *testing.T, user *domain.User) (*http.Cookie, string) {
	t.Helper()
	token, err := h.svc.Establish(context.Background(), user)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	rec := httptest.NewRecorder()
	if err := h.codec.SetToken(h.e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), token); err != nil {
		t.Fatalf("set token: %v", err)
	}
	return rec.Result().Cookies()[0], token
}

// serve runs handler behind the session middleware.
func (h *harness) serve(req *http.Request, handler echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	rec := httptest.NewRecorder()
	c := h.e.NewContext(req, rec)
	mw := middleware.Session(middleware.SessionConfig{Sessions: h.svc, Cookies: h.codec, Log: zerolog.Nop()})
	return rec, mw(handler)(c)
}

func formRequest(path string, values url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func getRequest(path string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderLocation); got != want {
		t.Fatalf("expected redirect to %s, got %s", want, got)
	}
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}
