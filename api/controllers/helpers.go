package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/roperito/roperito-backend/api/middleware"
	"github.com/roperito/roperito-backend/api/responses"
	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
	"github.com/roperito/roperito-backend/pkg/logger"
)

// currentUser writes a 401 and returns false when the request carries no identity.
func currentUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return uuid.Nil, false
	}
	return userID, true
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable"))
}
