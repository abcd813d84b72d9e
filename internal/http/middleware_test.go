package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/relationship-reminder/internal/application"
)

type sessionValidatorStub struct {
	principal application.Principal
	err       error

	tokens []string
}

func (s *sessionValidatorStub) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	s.tokens = append(s.tokens, token)
	if s.err != nil {
		return application.Principal{}, s.err
	}
	return s.principal, nil
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	t.Run("skips public paths", func(t *testing.T) {
		t.Parallel()

		validator := &sessionValidatorStub{}
		middleware := RequireSession(validator, nil, "/auth/login")

		called := false
		handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))

		if !called {
			t.Fatal("expected the public path to reach the handler")
		}
		if len(validator.tokens) != 0 {
			t.Fatalf("expected no validation on a public path, got %v", validator.tokens)
		}
	})

	t.Run("rejects requests without a token", func(t *testing.T) {
		t.Parallel()

		middleware := RequireSession(&sessionValidatorStub{}, nil)
		handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("the handler must not run without a session")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contacts", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects invalid sessions", func(t *testing.T) {
		t.Parallel()

		validator := &sessionValidatorStub{err: application.ErrSessionExpired}
		middleware := RequireSession(validator, nil)
		handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("the handler must not run with an expired session")
		}))

		req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
		req.Header.Set("Authorization", "Bearer stale-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if len(validator.tokens) != 1 || validator.tokens[0] != "stale-token" {
			t.Fatalf("expected the bearer token to be validated, got %v", validator.tokens)
		}
	})

	t.Run("attaches the principal for valid sessions", func(t *testing.T) {
		t.Parallel()

		validator := &sessionValidatorStub{principal: application.Principal{UserID: "user-1"}}
		middleware := RequireSession(validator, nil)

		var seen application.Principal
		handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = PrincipalFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if seen.UserID != "user-1" {
			t.Fatalf("expected the principal in context, got %+v", seen)
		}
		if len(validator.tokens) != 1 || validator.tokens[0] != "cookie-token" {
			t.Fatalf("expected the cookie token to be validated, got %v", validator.tokens)
		}
	})
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	middleware := RequestLogger(nil)

	var hadLogger bool
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hadLogger = LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contacts", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected the response to pass through, got %d", rec.Code)
	}
	if !hadLogger {
		t.Fatal("expected a request-scoped logger in context")
	}
}

func TestExtractTokenFromRequest(t *testing.T) {
	t.Parallel()

	t.Run("prefers the bearer header over the cookie", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})

		if got := extractTokenFromRequest(req); got != "header-token" {
			t.Fatalf("expected the header token, got %q", got)
		}
	})

	t.Run("falls back to the cookie", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})

		if got := extractTokenFromRequest(req); got != "cookie-token" {
			t.Fatalf("expected the cookie token, got %q", got)
		}
	})

	t.Run("ignores non-bearer authorization schemes", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		if got := extractTokenFromRequest(req); got != "" {
			t.Fatalf("expected no token, got %q", got)
		}
	})
}
