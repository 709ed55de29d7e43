package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/roperito/roperito-backend/api/middleware"
	"github.com/roperito/roperito-backend/api/responses"
	"github.com/roperito/roperito-backend/api/validators"
	pkgAuth "github.com/roperito/roperito-backend/pkg/auth"
	"github.com/roperito/roperito-backend/pkg/auth/session"
	"github.com/roperito/roperito-backend/pkg/config"
	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
	"github.com/roperito/roperito-backend/pkg/logger"
)

type sessionTokenRotator interface {
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, uuid.UUID, error)
	Revoke(ctx context.Context, accessID string) error
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// presentedClaims reads the bearer token, accepting an expired one so a
// stale client can still log out or refresh.
func presentedClaims(r *http.Request, cfg config.JWTConfig) (*pkgAuth.AccessTokenClaims, error) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		return nil, err
	}
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	return claims, nil
}

// AuthLogout revokes the session tied to the presented access token.
func AuthLogout(manager sessionTokenRotator, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			unavailable(w, r, logg, "session manager")
			return
		}

		claims, err := presentedClaims(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := manager.Revoke(r.Context(), claims.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AuthRefresh rotates the refresh token and mints a new access token.
func AuthRefresh(manager sessionTokenRotator, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			unavailable(w, r, logg, "session manager")
			return
		}

		var body refreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claims, err := presentedClaims(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		newAccessID, newRefreshToken, owner, err := manager.Rotate(r.Context(), claims.ID, body.RefreshToken)
		if err != nil {
			if errors.Is(err, session.ErrInvalidRefreshToken) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session"))
			return
		}
		if owner != claims.UserID {
			_ = manager.Revoke(r.Context(), newAccessID)
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token does not match session"))
			return
		}

		accessToken, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
			UserID: claims.UserID,
			Email:  claims.Email,
			JTI:    newAccessID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt"))
			return
		}

		responses.WriteSuccess(w, refreshResponse{
			AccessToken:  accessToken,
			RefreshToken: newRefreshToken,
		})
	}
}
