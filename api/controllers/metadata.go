package controllers

import (
	"net/http"

	"github.com/roperito/roperito-backend/api/responses"
	"github.com/roperito/roperito-backend/api/validators"
	productsvc "github.com/roperito/roperito-backend/internal/products"
	"github.com/roperito/roperito-backend/pkg/logger"
)

func MetadataCategories(catalog productsvc.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := catalog.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// MetadataSizes lists sizes, optionally narrowed to one category plus the generic sizes.
func MetadataSizes(catalog productsvc.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sizes, err := catalog.Sizes(r.Context(), categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sizes)
	}
}

func MetadataFilters(catalog productsvc.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := catalog.Filters(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, filters)
	}
}
