package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/roperito/roperito-backend/api/responses"
	"github.com/roperito/roperito-backend/api/validators"
	"github.com/roperito/roperito-backend/internal/ratings"
	"github.com/roperito/roperito-backend/pkg/logger"
)

type createRatingRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
	Value   int       `json:"value" validate:"required,min=1,max=5"`
	Comment *string   `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

type updateRatingRequest struct {
	Value   *int    `json:"value,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

type reportRatingRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func CreateRating(svc ratings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}

		var req createRatingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := validators.Struct(req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rating, err := svc.Create(ctx, ratings.CreateInput{
			OrderID: req.OrderID,
			BuyerID: userID,
			Value:   req.Value,
			Comment: req.Comment,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCreated(w, rating)
	}
}

// SellerRatingSummary is public: count and average for the seller in the path.
func SellerRatingSummary(svc ratings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := validators.URLParamUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func PendingRating(svc ratings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		pending, err := svc.PendingFor(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pending)
	}
}

func UpdateRating(svc ratings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		ratingID, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req updateRatingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := validators.Struct(req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rating, err := svc.Update(ctx, ratings.UpdateInput{
			RatingID: ratingID,
			BuyerID:  userID,
			Value:    req.Value,
			Comment:  req.Comment,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rating)
	}
}

func DeleteRating(svc ratings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		ratingID, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), ratingID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": ratingID, "deleted": true})
	}
}

func ReportRating(svc ratings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		ratingID, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req reportRatingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := validators.Struct(req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Report(ctx, ratings.ReportInput{RatingID: ratingID, ReporterID: userID, Reason: req.Reason}); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCreated(w, map[string]any{"rating_id": ratingID, "reported": true})
	}
}
