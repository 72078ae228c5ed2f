package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/louisbranch/studyhall/internal/platform/requestctx"
)

var authSecret = []byte("test-secret")

func signToken(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(authSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func runAuth(t *testing.T, cfg AuthConfig, prepare func(*http.Request)) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	var actor string
	handler := AuthMiddleware(cfg)(func(c echo.Context) error {
		actor = requestctx.ActorIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	prepare(req)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	return rec, actor
}

func TestAuthValidToken(t *testing.T) {
	cfg := AuthConfig{
		Secret:   authSecret,
		Issuer:   "studyhall",
		Audience: "studyhall-api",
		Now:      func() time.Time { return fixedTime },
	}
	token := signToken(t, jwt.RegisteredClaims{
		Subject:   "student-1",
		Issuer:    "studyhall",
		Audience:  jwt.ClaimStrings{"studyhall-api"},
		ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
	})

	rec, actor := runAuth(t, cfg, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if actor != "student-1" {
		t.Fatalf("expected actor student-1, got %q", actor)
	}
}

func TestAuthRejections(t *testing.T) {
	cfg := AuthConfig{
		Secret: authSecret,
		Issuer: "studyhall",
		Now:    func() time.Time { return fixedTime },
	}

	tests := []struct {
		name   string
		claims jwt.RegisteredClaims
	}{
		{
			name: "expired token",
			claims: jwt.RegisteredClaims{
				Subject:   "student-1",
				Issuer:    "studyhall",
				ExpiresAt: jwt.NewNumericDate(fixedTime.Add(-time.Minute)),
			},
		},
		{
			name: "missing exp",
			claims: jwt.RegisteredClaims{
				Subject: "student-1",
				Issuer:  "studyhall",
			},
		},
		{
			name: "issuer mismatch",
			claims: jwt.RegisteredClaims{
				Subject:   "student-1",
				Issuer:    "other",
				ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
			},
		},
		{
			name: "missing subject",
			claims: jwt.RegisteredClaims{
				Issuer:    "studyhall",
				ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
			},
		},
		{
			name: "not active yet",
			claims: jwt.RegisteredClaims{
				Subject:   "student-1",
				Issuer:    "studyhall",
				NotBefore: jwt.NewNumericDate(fixedTime.Add(time.Minute)),
				ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token := signToken(t, tc.claims)
			rec, _ := runAuth(t, cfg, func(req *http.Request) {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
			})
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAuthBadSignature(t *testing.T) {
	cfg := AuthConfig{Secret: authSecret, Now: func() time.Time { return fixedTime }}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "student-1",
		ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
	}).SignedString([]byte("wrong-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	rec, _ := runAuth(t, cfg, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMissingHeader(t *testing.T) {
	cfg := AuthConfig{Secret: authSecret, Now: func() time.Time { return fixedTime }}
	rec, _ := runAuth(t, cfg, func(req *http.Request) {})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthInsecureHeaderMode(t *testing.T) {
	cfg := AuthConfig{Now: func() time.Time { return fixedTime }}

	rec, actor := runAuth(t, cfg, func(req *http.Request) {
		req.Header.Set(insecureActorHeader, "student-1")
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if actor != "student-1" {
		t.Fatalf("expected actor student-1, got %q", actor)
	}

	rec, _ = runAuth(t, cfg, func(req *http.Request) {})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", rec.Code)
	}
}
