package controllers

import (
	"net/http"

	"github.com/roperito/roperito-backend/api/responses"
	"github.com/roperito/roperito-backend/api/validators"
	"github.com/roperito/roperito-backend/internal/auth"
	"github.com/roperito/roperito-backend/pkg/logger"
)

// AuthLogin exchanges credentials for a token pair.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth service")
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
