package product

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roperito/roperito-backend/pkg/db"
	"github.com/roperito/roperito-backend/pkg/db/models"
	"github.com/roperito/roperito-backend/pkg/enums"
	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
	"github.com/roperito/roperito-backend/pkg/pagination"
)

// Service exposes listing management and browsing.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	ReplaceImages(ctx context.Context, sellerID, productID uuid.UUID, images []ImageInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService constructs a product service instance.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// CreateProduct inserts an available listing with its images.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.Invalid("title", "title is required")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, pkgerrors.Invalid("description", "description is required")
	}
	if input.Price < 0 {
		return nil, pkgerrors.Invalid("price", "price must not be negative")
	}
	images, err := buildImages(input.Images)
	if err != nil {
		return nil, err
	}

	var productID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := s.ensureCatalogRefs(ctx, txRepo, input.CategoryID, input.SizeID); err != nil {
			return err
		}
		product := &models.Product{
			UserID:      input.SellerID,
			Title:       title,
			Description: description,
			Price:       input.Price,
			CategoryID:  input.CategoryID,
			SizeID:      input.SizeID,
			Status:      enums.ProductStatusAvailable,
			IsActive:    true,
			Images:      images,
		}
		if err := txRepo.CreateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "db: insert product")
		}
		productID = product.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, productID)
}

// UpdateProduct applies a partial update to the seller's listing. Status is
// not editable here; it only moves through orders.
func (s *service) UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if input.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	fields := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.Invalid("title", "title must not be empty")
		}
		fields["title"] = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, pkgerrors.Invalid("description", "description must not be empty")
		}
		fields["description"] = description
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, pkgerrors.Invalid("price", "price must not be negative")
		}
		fields["price"] = *input.Price
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := s.owned(ctx, txRepo, sellerID, productID)
		if err != nil {
			return err
		}
		if input.CategoryID != nil || input.SizeID != nil {
			categoryID, sizeID := product.CategoryID, product.SizeID
			if input.CategoryID != nil {
				categoryID = *input.CategoryID
				fields["category_id"] = categoryID
			}
			if input.SizeID != nil {
				sizeID = *input.SizeID
				fields["size_id"] = sizeID
			}
			if err := s.ensureCatalogRefs(ctx, txRepo, categoryID, sizeID); err != nil {
				return err
			}
		}
		if err := txRepo.UpdateFields(ctx, productID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "db: update product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, productID)
}

// ReplaceImages swaps the listing's image set.
func (s *service) ReplaceImages(ctx context.Context, sellerID, productID uuid.UUID, inputs []ImageInput) (*ProductDTO, error) {
	images, err := buildImages(inputs)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := s.owned(ctx, txRepo, sellerID, productID); err != nil {
			return err
		}
		for i := range images {
			images[i].ProductID = productID
		}
		if err := txRepo.ReplaceImages(ctx, productID, images); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "db: replace images")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, productID)
}

// DeleteProduct soft-deletes the listing. A reserved listing has an open
// order and cannot be removed until it is cancelled or delivered.
func (s *service) DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := s.owned(ctx, txRepo, sellerID, productID)
		if err != nil {
			return err
		}
		if product.Status == enums.ProductStatusReserved {
			return pkgerrors.Conflict("product has an open order")
		}
		changed, err := txRepo.Deactivate(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "db: deactivate product")
		}
		if !changed {
			return pkgerrors.Conflict("product changed concurrently")
		}
		return nil
	})
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	detail, err := s.repo.GetProductDetail(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFound("product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product detail")
	}
	return detail, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Invalid("cursor", "invalid cursor")
	}
	f := input.Filters
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, pkgerrors.Invalid("min_price", "min_price must not exceed max_price")
	}
	result, err := s.repo.ListProductSummaries(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return result, nil
}

func (s *service) owned(ctx context.Context, repo *Repository, sellerID, productID uuid.UUID) (*models.Product, error) {
	product, err := repo.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFound("product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.NotFound("product")
	}
	if product.UserID != sellerID {
		return nil, pkgerrors.Forbidden("product does not belong to you")
	}
	return product, nil
}

func (s *service) ensureCatalogRefs(ctx context.Context, repo *Repository, categoryID, sizeID uuid.UUID) error {
	ok, err := repo.CategoryExists(ctx, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	if !ok {
		return pkgerrors.Invalid("category_id", "unknown category")
	}
	ok, err = repo.SizeFits(ctx, sizeID, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load size")
	}
	if !ok {
		return pkgerrors.Invalid("size_id", "size does not exist for this category")
	}
	return nil
}

// buildImages validates the image list and marks exactly one as main, the
// first one when the client flagged none.
func buildImages(inputs []ImageInput) ([]models.ProductImage, error) {
	if len(inputs) > MaxImages {
		return nil, pkgerrors.Invalid("images", fmt.Sprintf("at most %d images are allowed", MaxImages))
	}
	images := make([]models.ProductImage, 0, len(inputs))
	mainIdx := -1
	for i, in := range inputs {
		raw := strings.TrimSpace(in.URL)
		parsed, err := url.Parse(raw)
		if raw == "" || err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, pkgerrors.Invalid(fmt.Sprintf("images[%d].url", i), "image url must be absolute")
		}
		if in.IsMain {
			if mainIdx >= 0 {
				return nil, pkgerrors.Invalid("images", "only one image can be the main image")
			}
			mainIdx = i
		}
		images = append(images, models.ProductImage{URL: raw, DisplayOrder: i})
	}
	if len(images) > 0 {
		if mainIdx < 0 {
			mainIdx = 0
		}
		images[mainIdx].IsMain = true
	}
	return images, nil
}
