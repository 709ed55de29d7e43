package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/roperito/roperito-backend/api/responses"
	pkgAuth "github.com/roperito/roperito-backend/pkg/auth"
	"github.com/roperito/roperito-backend/pkg/auth/session"
	"github.com/roperito/roperito-backend/pkg/config"
	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
	"github.com/roperito/roperito-backend/pkg/logger"
)

// Auth validates a bearer token against its live session and seeds the
// request context with the user.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			claims, err := VerifyAccessToken(r.Context(), cfg, verifier, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return raw, nil
}

// VerifyAccessToken checks signature, issuer and expiry, then requires the
// token's session to still exist.
func VerifyAccessToken(ctx context.Context, cfg config.JWTConfig, verifier session.AccessSessionChecker, token string) (*pkgAuth.AccessTokenClaims, error) {
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if verifier != nil {
		ok, err := verifier.HasSession(ctx, claims.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
		}
	}
	return claims, nil
}

// WithClaims stores the identity carried by claims on ctx.
func WithClaims(ctx context.Context, claims *pkgAuth.AccessTokenClaims) context.Context {
	ctx = WithUserID(ctx, claims.UserID)
	ctx = context.WithValue(ctx, ctxEmail, claims.Email)
	return context.WithValue(ctx, ctxJTI, claims.ID)
}
