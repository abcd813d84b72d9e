package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/relationship-reminder/internal/application"
)

type authServiceStub struct {
	registerResult application.RegisterResult
	registerErr    error

	authResult application.AuthenticateResult
	authErr    error

	refreshResult application.RefreshSessionResult
	refreshErr    error

	revokeErr     error
	revokedTokens []string

	currentUser application.User
	currentErr  error
}

func (s *authServiceStub) Register(ctx context.Context, params application.RegisterParams) (application.RegisterResult, error) {
	return s.registerResult, s.registerErr
}

func (s *authServiceStub) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	return s.authResult, s.authErr
}

func (s *authServiceStub) RefreshSession(ctx context.Context, params application.RefreshSessionParams) (application.RefreshSessionResult, error) {
	return s.refreshResult, s.refreshErr
}

func (s *authServiceStub) RevokeSession(ctx context.Context, token string) error {
	s.revokedTokens = append(s.revokedTokens, token)
	return s.revokeErr
}

func (s *authServiceStub) CurrentUser(ctx context.Context, principal application.Principal) (application.User, error) {
	return s.currentUser, s.currentErr
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "session_token" {
			return cookie
		}
	}
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	t.Parallel()

	t.Run("issues a session on success", func(t *testing.T) {
		t.Parallel()

		expires := time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)
		service := &authServiceStub{registerResult: application.RegisterResult{
			User:    application.User{ID: "user-1", Email: "alice@example.com", Name: "Alice"},
			Session: application.Session{Token: "fresh-token", ExpiresAt: expires},
		}}
		handler := NewAuthHandler(service, nil)

		body := `{"name":"Alice","email":"Alice@Example.com","password":"Sup3rSecret"}`
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Register(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := rec.Header().Get("X-Session-Token"); got != "fresh-token" {
			t.Fatalf("expected the token header, got %q", got)
		}
		cookie := sessionCookie(t, rec)
		if cookie == nil || cookie.Value != "fresh-token" {
			t.Fatalf("expected a session cookie, got %+v", cookie)
		}
		if !cookie.HttpOnly || !cookie.Secure {
			t.Fatalf("expected an http-only secure cookie, got %+v", cookie)
		}

		var resp struct {
			Token string `json:"token"`
			User  struct {
				ID    string `json:"id"`
				Email string `json:"email"`
			} `json:"user"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Token != "fresh-token" || resp.User.ID != "user-1" || resp.User.Email != "alice@example.com" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(&authServiceStub{}, nil)
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		handler.Register(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("maps validation failures to 422", func(t *testing.T) {
		t.Parallel()

		service := &authServiceStub{registerErr: &application.ValidationError{
			FieldErrors: map[string]string{"password": "password must be at least 8 characters"},
		}}
		handler := NewAuthHandler(service, nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"name":"A","email":"a@b.c","password":"x"}`))
		rec := httptest.NewRecorder()
		handler.Register(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		var resp errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if _, ok := resp.Errors["password"]; !ok {
			t.Fatalf("expected a password field error, got %+v", resp)
		}
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()

	t.Run("returns the session details", func(t *testing.T) {
		t.Parallel()

		service := &authServiceStub{authResult: application.AuthenticateResult{
			User:    application.User{ID: "user-1", Email: "alice@example.com"},
			Session: application.Session{Token: "login-token", ExpiresAt: time.Now().Add(time.Hour)},
		}}
		handler := NewAuthHandler(service, nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"alice@example.com","password":"Sup3rSecret"}`))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if cookie := sessionCookie(t, rec); cookie == nil || cookie.Value != "login-token" {
			t.Fatalf("expected a session cookie, got %+v", cookie)
		}
	})

	t.Run("maps bad credentials to 401 with an error code", func(t *testing.T) {
		t.Parallel()

		service := &authServiceStub{authErr: application.ErrInvalidCredentials}
		handler := NewAuthHandler(service, nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"alice@example.com","password":"wrong"}`))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		var resp errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
			t.Fatalf("expected the credentials error code, got %+v", resp)
		}
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("rotates the token", func(t *testing.T) {
		t.Parallel()

		service := &authServiceStub{refreshResult: application.RefreshSessionResult{
			Session: application.Session{ID: "session-1", Token: "rotated-token", ExpiresAt: time.Now().Add(time.Hour)},
		}}
		handler := NewAuthHandler(service, nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		req.Header.Set("Authorization", "Bearer old-token")
		rec := httptest.NewRecorder()
		handler.Refresh(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := rec.Header().Get("X-Session-Token"); got != "rotated-token" {
			t.Fatalf("expected the rotated token header, got %q", got)
		}
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(&authServiceStub{}, nil)
		rec := httptest.NewRecorder()
		handler.Refresh(rec, httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		var resp errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.ErrorCode != "AUTH_SESSION_EXPIRED" {
			t.Fatalf("expected the expiry error code, got %+v", resp)
		}
	})

	t.Run("maps an expired session to 401", func(t *testing.T) {
		t.Parallel()

		service := &authServiceStub{refreshErr: application.ErrSessionExpired}
		handler := NewAuthHandler(service, nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		req.Header.Set("Authorization", "Bearer stale-token")
		rec := httptest.NewRecorder()
		handler.Refresh(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Parallel()

	service := &authServiceStub{}
	handler := NewAuthHandler(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer live-token")
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(service.revokedTokens) != 1 || service.revokedTokens[0] != "live-token" {
		t.Fatalf("expected the token to be revoked, got %v", service.revokedTokens)
	}
	cookie := sessionCookie(t, rec)
	if cookie == nil || cookie.Value != "" || cookie.MaxAge != -1 {
		t.Fatalf("expected the cookie to be cleared, got %+v", cookie)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	t.Parallel()

	t.Run("returns the current user", func(t *testing.T) {
		t.Parallel()

		service := &authServiceStub{currentUser: application.User{ID: "user-1", Email: "alice@example.com", Name: "Alice"}}
		handler := NewAuthHandler(service, nil)

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req = req.WithContext(ContextWithPrincipal(req.Context(), application.Principal{UserID: "user-1"}))
		rec := httptest.NewRecorder()
		handler.Me(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp userResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.User.ID != "user-1" || resp.User.Name != "Alice" {
			t.Fatalf("unexpected user: %+v", resp.User)
		}
	})

	t.Run("rejects requests without a principal", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(&authServiceStub{}, nil)
		rec := httptest.NewRecorder()
		handler.Me(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}
