package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/roperito/roperito-backend/api/responses"
	"github.com/roperito/roperito-backend/api/validators"
	productsvc "github.com/roperito/roperito-backend/internal/products"
	"github.com/roperito/roperito-backend/pkg/logger"
)

type imageRequest struct {
	URL    string `json:"url" validate:"required,url,max=2048"`
	IsMain bool   `json:"is_main,omitempty"`
}

type createProductRequest struct {
	Title       string         `json:"title" validate:"required,max=200"`
	Description string         `json:"description" validate:"required,max=5000"`
	Price       int64          `json:"price" validate:"gte=0"`
	CategoryID  uuid.UUID      `json:"category_id" validate:"required"`
	SizeID      uuid.UUID      `json:"size_id" validate:"required"`
	Images      []imageRequest `json:"images" validate:"max=5,dive"`
}

type updateProductRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,min=1,max=5000"`
	Price       *int64     `json:"price,omitempty" validate:"omitempty,gte=0"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	SizeID      *uuid.UUID `json:"size_id,omitempty"`
}

type replaceImagesRequest struct {
	Images []imageRequest `json:"images" validate:"required,min=1,max=5,dive"`
}

func toImageInputs(in []imageRequest) []productsvc.ImageInput {
	out := make([]productsvc.ImageInput, 0, len(in))
	for _, img := range in {
		out = append(out, productsvc.ImageInput{URL: img.URL, IsMain: img.IsMain})
	}
	return out
}

// parseListFilters reads the public catalog filters from the query string.
func parseListFilters(r *http.Request) (productsvc.ProductListFilters, error) {
	q := r.URL.Query()
	filters := productsvc.ProductListFilters{Query: strings.TrimSpace(q.Get("q"))}

	var err error
	if filters.CategoryID, err = validators.ParseQueryUUID(r, "category_id"); err != nil {
		return filters, err
	}
	if filters.SizeID, err = validators.ParseQueryUUID(r, "size_id"); err != nil {
		return filters, err
	}
	for field, dest := range map[string]**int64{"min_price": &filters.MinPrice, "max_price": &filters.MaxPrice} {
		raw := strings.TrimSpace(q.Get(field))
		if raw == "" {
			continue
		}
		v, err := productsvc.ParsePrice(field, raw)
		if err != nil {
			return filters, err
		}
		*dest = &v
	}
	return filters, nil
}

// ListProducts serves the public catalog. When scoped is set the category
// comes from the path instead of the query.
func ListProducts(svc productsvc.Service, scoped bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if scoped {
			categoryID, err := validators.URLParamUUID(r, "categoryId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filters.CategoryID = &categoryID
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProducts(r.Context(), productsvc.ListProductsInput{Filters: filters, Pagination: params})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), productsvc.CreateProductInput{
			SellerID:    userID,
			Title:       body.Title,
			Description: body.Description,
			Price:       body.Price,
			CategoryID:  body.CategoryID,
			SizeID:      body.SizeID,
			Images:      toImageInputs(body.Images),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, product)
	}
}

func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), userID, productID, productsvc.UpdateProductInput{
			Title:       body.Title,
			Description: body.Description,
			Price:       body.Price,
			CategoryID:  body.CategoryID,
			SizeID:      body.SizeID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ReplaceProductImages(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		var body replaceImagesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.ReplaceImages(r.Context(), userID, productID, toImageInputs(body.Images))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		if err := svc.DeleteProduct(r.Context(), userID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": productID, "deleted": true})
	}
}
