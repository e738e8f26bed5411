package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testCfg = Config{
	SigningKey: []byte("0123456789abcdef0123456789abcdef"),
	Issuer:     "frontdesk-test",
	TokenTTL:   time.Hour,
}

func makeRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured []string
	handler := mw(func(c echo.Context) error {
		captured = RolesFromContext(c.Request().Context())
		_ = captured
		return c.NoContent(http.StatusOK)
	})
	return rec, handler(c)
}

func TestMiddleware_MissingHeader(t *testing.T) {
	_, err := makeRequest(t, Middleware(testCfg), "")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddleware_MalformedHeader(t *testing.T) {
	_, err := makeRequest(t, Middleware(testCfg), "Token abc")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddleware_ValidToken(t *testing.T) {
	token, err := MintToken(testCfg, "user-1", "Dr. Smith", []string{"doctor"})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	rec, err := makeRequest(t, Middleware(testCfg), "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMiddleware_WrongKey(t *testing.T) {
	otherCfg := testCfg
	otherCfg.SigningKey = []byte("ffffffffffffffffffffffffffffffff")
	token, err := MintToken(otherCfg, "user-1", "Dr. Smith", []string{"doctor"})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	_, err = makeRequest(t, Middleware(testCfg), "Bearer "+token)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	expiredCfg := testCfg
	expiredCfg.TokenTTL = -time.Hour
	token, err := MintToken(expiredCfg, "user-1", "Dr. Smith", []string{"doctor"})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	_, err = makeRequest(t, Middleware(testCfg), "Bearer "+token)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestDevMiddleware_GrantsAdmin(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var roles []string
	handler := DevMiddleware()(func(c echo.Context) error {
		roles = RolesFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roles) != 1 || roles[0] != "admin" {
		t.Errorf("expected admin role, got %v", roles)
	}
}
