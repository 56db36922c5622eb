package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cloudkenya/hostpanel/internal/api"
	"github.com/cloudkenya/hostpanel/internal/api/handler"
	"github.com/cloudkenya/hostpanel/internal/core/domain"
	"github.com/cloudkenya/hostpanel/internal/core/ports"
)

type stubAuthService struct {
	registerResult *ports.RegisterResult
	registerErr    error
	loginResult    *ports.LoginResult
	loginErr       error
	verifyToken    string
	verifyErr      error

	lastEmail string
	lastMeta  ports.RequestMeta
}

func (s *stubAuthService) Register(_ context.Context, _, email, _ string, meta ports.RequestMeta) (*ports.RegisterResult, error) {
	s.lastEmail = email
	s.lastMeta = meta
	return s.registerResult, s.registerErr
}

func (s *stubAuthService) Login(_ context.Context, email, _ string, meta ports.RequestMeta) (*ports.LoginResult, error) {
	s.lastEmail = email
	s.lastMeta = meta
	return s.loginResult, s.loginErr
}

func (s *stubAuthService) VerifyTwoFactor(_ context.Context, _, _ string, _ ports.RequestMeta) (string, error) {
	return s.verifyToken, s.verifyErr
}

func (s *stubAuthService) ChangePassword(context.Context, string, string, string, ports.RequestMeta) error {
	return nil
}

func (s *stubAuthService) UpdateProfile(context.Context, string, domain.ProfileUpdate, ports.RequestMeta) error {
	return nil
}

func (s *stubAuthService) CurrentAccount(context.Context, string) (*domain.Account, error) {
	return nil, domain.ErrAccountNotFound
}

func newTestServer(svc ports.AuthService) *echo.Echo {
	e := echo.New()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(zerolog.Nop())

	h := handler.NewAuthHandler(svc)
	e.POST("/auth/register", h.Register)
	e.POST("/auth/login", h.Login)
	e.POST("/auth/verify-2fa", h.VerifyTwoFactor)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return got
}

func TestRegister_Created(t *testing.T) {
	svc := &stubAuthService{
		registerResult: &ports.RegisterResult{
			Account:   &domain.Account{ID: "acc_1", Username: "alice", Email: "alice@x.com"},
			Token:     "jwt-token",
			APIKey:    "ck_abc",
			APISecret: "deadbeef",
		},
	}
	e := newTestServer(svc)

	rec := doJSON(e, http.MethodPost, "/auth/register", `{"username":"alice","email":"alice@x.com","password":"secret1"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	got := decode(t, rec)
	if got["token"] != "jwt-token" || got["api_key"] != "ck_abc" || got["api_secret"] != "deadbeef" {
		t.Fatalf("unexpected body: %v", got)
	}
	user, ok := got["user"].(map[string]any)
	if !ok || user["username"] != "alice" {
		t.Fatalf("unexpected user: %v", got["user"])
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password hash leaked in response")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	svc := &stubAuthService{registerErr: domain.ErrDuplicateIdentity}
	e := newTestServer(svc)

	rec := doJSON(e, http.MethodPost, "/auth/register", `{"username":"alice","email":"alice@x.com","password":"secret1"}`)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if got := decode(t, rec); got["error"] != "account already exists" {
		t.Fatalf("unexpected body: %v", got)
	}
}

func TestRegister_ValidationFailure(t *testing.T) {
	svc := &stubAuthService{}
	e := newTestServer(svc)

	cases := []struct {
		name string
		body string
	}{
		{"short username", `{"username":"al","email":"alice@x.com","password":"secret1"}`},
		{"bad email", `{"username":"alice","email":"not-an-email","password":"secret1"}`},
		{"short password", `{"username":"alice","email":"alice@x.com","password":"abc"}`},
		{"missing fields", `{}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/auth/register", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if svc.lastEmail != "" {
				t.Fatalf("service reached despite invalid payload")
			}
		})
	}
}

func TestLogin_Token(t *testing.T) {
	svc := &stubAuthService{loginResult: &ports.LoginResult{Token: "jwt-token", AccountID: "acc_1"}}
	e := newTestServer(svc)

	rec := doJSON(e, http.MethodPost, "/auth/login", `{"email":"alice@x.com","password":"secret1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode(t, rec)
	if got["token"] != "jwt-token" {
		t.Fatalf("unexpected body: %v", got)
	}
	if _, present := got["requires_2fa"]; present {
		t.Fatalf("requires_2fa leaked into plain login response: %v", got)
	}
}

func TestLogin_TwoFactorChallenge(t *testing.T) {
	svc := &stubAuthService{loginResult: &ports.LoginResult{Requires2FA: true, AccountID: "acc_1"}}
	e := newTestServer(svc)

	rec := doJSON(e, http.MethodPost, "/auth/login", `{"email":"alice@x.com","password":"secret1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode(t, rec)
	if got["requires_2fa"] != true || got["user_id"] != "acc_1" {
		t.Fatalf("unexpected challenge body: %v", got)
	}
	if _, present := got["token"]; present {
		t.Fatalf("token issued before second factor: %v", got)
	}
}

func TestLogin_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"locked", domain.ErrAccountLocked, http.StatusLocked, "account locked, try again later"},
		{"throttled", domain.ErrTooManyAttempts, http.StatusTooManyRequests, "too many attempts, slow down"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestServer(&stubAuthService{loginErr: tc.err})

			rec := doJSON(e, http.MethodPost, "/auth/login", `{"email":"alice@x.com","password":"secret1"}`)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got := decode(t, rec); got["error"] != tc.wantMsg {
				t.Fatalf("message = %v, want %s", got["error"], tc.wantMsg)
			}
		})
	}
}

func TestVerifyTwoFactor(t *testing.T) {
	svc := &stubAuthService{verifyToken: "jwt-token"}
	e := newTestServer(svc)

	rec := doJSON(e, http.MethodPost, "/auth/verify-2fa", `{"user_id":"acc_1","code":"123456"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode(t, rec); got["token"] != "jwt-token" {
		t.Fatalf("unexpected body: %v", got)
	}

	// A code of the wrong length is rejected before it reaches the service.
	rec = doJSON(e, http.MethodPost, "/auth/verify-2fa", `{"user_id":"acc_1","code":"12345"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestVerifyTwoFactor_InvalidCode(t *testing.T) {
	svc := &stubAuthService{verifyErr: domain.ErrInvalidCode}
	e := newTestServer(svc)

	rec := doJSON(e, http.MethodPost, "/auth/verify-2fa", `{"user_id":"acc_1","code":"000000"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := decode(t, rec); got["error"] != "invalid two-factor code" {
		t.Fatalf("unexpected body: %v", got)
	}
}

func TestLogin_RequestMetaForwarded(t *testing.T) {
	svc := &stubAuthService{loginResult: &ports.LoginResult{Token: "jwt-token"}}
	e := newTestServer(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"alice@x.com","password":"secret1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("User-Agent", "integration-test")
	req.RemoteAddr = "192.0.2.10:4444"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.lastMeta.IPAddress != "192.0.2.10" {
		t.Fatalf("ip = %q", svc.lastMeta.IPAddress)
	}
	if svc.lastMeta.UserAgent != "integration-test" {
		t.Fatalf("user agent = %q", svc.lastMeta.UserAgent)
	}
}
