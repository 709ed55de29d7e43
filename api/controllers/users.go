package controllers

import (
	"net/http"

	"github.com/roperito/roperito-backend/api/responses"
	"github.com/roperito/roperito-backend/api/validators"
	"github.com/roperito/roperito-backend/internal/orders"
	productsvc "github.com/roperito/roperito-backend/internal/products"
	"github.com/roperito/roperito-backend/internal/ratings"
	"github.com/roperito/roperito-backend/internal/users"
	"github.com/roperito/roperito-backend/pkg/logger"
)

type updateProfileRequest struct {
	Name    *string         `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone   *string         `json:"phone,omitempty" validate:"omitempty,max=30"`
	Address *addressRequest `json:"address,omitempty"`
}

type addressRequest struct {
	City     string `json:"city" validate:"max=100"`
	Region   string `json:"region" validate:"max=100"`
	Country  string `json:"country" validate:"max=100"`
	Province string `json:"province" validate:"max=100"`
}

func (b updateProfileRequest) toInput() users.UpdateProfileInput {
	input := users.UpdateProfileInput{Name: b.Name, Phone: b.Phone}
	if b.Address != nil {
		input.Address = &users.AddressInput{
			City:     b.Address.City,
			Region:   b.Address.Region,
			Country:  b.Address.Country,
			Province: b.Address.Province,
		}
	}
	return input
}

func UserMe(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		user, err := svc.Me(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func UserUpdateMe(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		var body updateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.UpdateMe(r.Context(), userID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// UserProducts lists the caller's own active listings in every status.
func UserProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListProducts(r.Context(), productsvc.ListProductsInput{SellerID: &userID, Pagination: params})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UserOrders lists orders where the caller plays role.
func UserOrders(svc orders.Service, role orders.PartyRole, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), userID, role, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// UserRatings lists ratings the caller received as seller or gave as buyer.
func UserRatings(svc ratings.Service, dir ratings.Direction, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), userID, dir, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
