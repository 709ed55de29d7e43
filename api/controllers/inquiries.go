package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/roperito/roperito-backend/api/responses"
	"github.com/roperito/roperito-backend/api/validators"
	"github.com/roperito/roperito-backend/internal/inquiries"
	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
	"github.com/roperito/roperito-backend/pkg/logger"
)

type sendInquiryRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	SellerID  *uuid.UUID `json:"seller_id,omitempty"`
	Message   string     `json:"message" validate:"required,max=2000"`
}

type replyInquiryRequest struct {
	InquiryID uuid.UUID `json:"inquiry_id" validate:"required"`
	Response  string    `json:"response" validate:"required,max=2000"`
}

type potentialBuyerResponse struct {
	ProductID        uuid.UUID `json:"product_id"`
	IsPotentialBuyer bool      `json:"is_potential_buyer"`
}

func SendInquiry(svc inquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}

		var req sendInquiryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := validators.Struct(req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		inquiry, err := svc.Send(ctx, inquiries.SendInput{
			ProductID: req.ProductID,
			BuyerID:   userID,
			SellerID:  req.SellerID,
			Message:   req.Message,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCreated(w, inquiry)
	}
}

func ListInquiries(svc inquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ReplyInquiry(svc inquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}

		var req replyInquiryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := validators.Struct(req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		inquiry, err := svc.Reply(ctx, inquiries.ReplyInput{
			InquiryID: req.InquiryID,
			SellerID:  userID,
			Response:  req.Response,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, inquiry)
	}
}

// InquirySent answers whether the caller already wrote to the seller of ?product_id.
func InquirySent(svc inquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if productID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Invalid("product_id", "product_id is required"))
			return
		}
		sent, err := svc.IsPotentialBuyer(r.Context(), userID, *productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, potentialBuyerResponse{ProductID: *productID, IsPotentialBuyer: sent})
	}
}

func PotentialBuyers(svc inquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		buyers, err := svc.PotentialBuyers(r.Context(), productID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, buyers)
	}
}
