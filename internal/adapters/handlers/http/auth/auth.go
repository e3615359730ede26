package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chunk-transfer/internal/config"
	"chunk-transfer/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const ownerKey contextKey = "owner"

// Middleware verifies HMAC signed bearer tokens. The `sub` claim becomes the
// owner of every file touched by the request.
func Middleware(cfg config.AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	secret := []byte(cfg.JWTSecret)

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || tokenStr == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			var claims jwt.RegisteredClaims
			token, err := parser.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
				return secret, nil
			})
			if err != nil || !token.Valid {
				logger.Debug("rejected bearer token", "error", err)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if err := domain.ValidateOwner(claims.Subject); err != nil {
				logger.Debug("rejected token subject", "error", err)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), claims.Subject)))
		})
	}
}

// WithOwner returns a context carrying the authenticated owner
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey, owner)
}

// OwnerFromContext returns the authenticated owner of the request
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey).(string)
	return owner, ok && owner != ""
}

// SignToken issues a token for owner, used by clients and tests
func SignToken(cfg config.AuthConfig, owner string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   owner,
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}
