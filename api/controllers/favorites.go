package controllers

import (
	"net/http"

	"github.com/roperito/roperito-backend/api/responses"
	"github.com/roperito/roperito-backend/api/validators"
	"github.com/roperito/roperito-backend/internal/favorites"
	"github.com/roperito/roperito-backend/pkg/logger"
)

const mostFavoritedDefault = 10

func AddFavorite(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
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
		if err := svc.Add(r.Context(), userID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, favorites.Check{ProductID: productID, IsFavorite: true})
	}
}

func RemoveFavorite(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
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
		if err := svc.Remove(r.Context(), userID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, favorites.Check{ProductID: productID, IsFavorite: false})
	}
}

func ListFavorites(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
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
		page, err := svc.List(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func CheckFavorite(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
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
		check, err := svc.Check(r.Context(), userID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, check)
	}
}

func MostFavorited(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", mostFavoritedDefault, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cards, err := svc.MostFavorited(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cards)
	}
}
