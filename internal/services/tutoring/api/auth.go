package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/louisbranch/studyhall/internal/platform/requestctx"
)

// AuthConfig defines how bearer tokens are verified. An empty Secret disables
// token verification and trusts the X-Actor-ID header instead; that mode is
// for local development only.
type AuthConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	Now      func() time.Time
}

// insecureActorHeader names the header trusted when no secret is configured.
const insecureActorHeader = "X-Actor-ID"

// AuthMiddleware resolves the caller identity for a request and stores it in
// the request context. Requests without a verifiable identity are rejected.
func AuthMiddleware(cfg AuthConfig) echo.MiddlewareFunc {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := resolveActor(c, cfg)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
			}
			req := c.Request()
			c.SetRequest(req.WithContext(requestctx.WithActorID(req.Context(), actor)))
			return next(c)
		}
	}
}

func resolveActor(c echo.Context, cfg AuthConfig) (string, error) {
	if len(cfg.Secret) == 0 {
		actor := strings.TrimSpace(c.Request().Header.Get(insecureActorHeader))
		if actor == "" {
			return "", fmt.Errorf("%s header is required", insecureActorHeader)
		}
		return actor, nil
	}

	header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("bearer token is required")
	}
	return validateToken(strings.TrimSpace(header[len(prefix):]), cfg)
}

// validateToken verifies an HS256 bearer token and returns its subject.
func validateToken(token string, cfg AuthConfig) (string, error) {
	if token == "" {
		return "", errors.New("bearer token is required")
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", mapJWTError(err)
	}

	if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
		return "", errors.New("token issuer mismatch")
	}
	if cfg.Audience != "" && !audienceContains(claims.Audience, cfg.Audience) {
		return "", errors.New("token audience mismatch")
	}

	now := cfg.Now().UTC()
	if claims.ExpiresAt == nil {
		return "", errors.New("token exp is required")
	}
	if !claims.ExpiresAt.Time.UTC().After(now) {
		return "", errors.New("token is expired")
	}
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time.UTC()) {
		return "", errors.New("token not active yet")
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	return subject, nil
}

// mapJWTError translates jwt library errors to stable messages.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return errors.New("token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return errors.New("token alg is invalid")
	}
	return errors.New("token is invalid")
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}
