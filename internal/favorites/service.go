package favorites

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roperito/roperito-backend/pkg/db"
	"github.com/roperito/roperito-backend/pkg/db/models"
	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
	"github.com/roperito/roperito-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes business rules for favorites.
type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error)
	Check(ctx context.Context, userID, productID uuid.UUID) (*Check, error)
	MostFavorited(ctx context.Context, limit int) ([]ProductCard, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favorites repo is required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Add favorites an active product owned by someone else and bumps its counter.
func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.Invalid("product_id", "product id is required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindActiveProduct(ctx, productID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.NotFound("product")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if product.UserID == userID {
			return pkgerrors.Invalid("product_id", "you cannot favorite your own product")
		}
		if err := repo.Insert(ctx, &models.Favorite{UserID: userID, ProductID: productID}); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Conflict("product already in favorites")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add favorite")
		}
		if err := repo.AdjustCount(ctx, productID, 1); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count favorite")
		}
		return nil
	})
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.Invalid("product_id", "product id is required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		removed, err := repo.Remove(ctx, userID, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove favorite")
		}
		if !removed {
			return pkgerrors.NotFound("favorite")
		}
		if err := repo.AdjustCount(ctx, productID, -1); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count favorite")
		}
		return nil
	})
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Invalid("cursor", "invalid cursor")
	}
	page, err := s.repo.List(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list favorites")
	}
	return page, nil
}

func (s *service) Check(ctx context.Context, userID, productID uuid.UUID) (*Check, error) {
	ok, err := s.repo.Exists(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check favorite")
	}
	return &Check{ProductID: productID, IsFavorite: ok}, nil
}

func (s *service) MostFavorited(ctx context.Context, limit int) ([]ProductCard, error) {
	rows, err := s.repo.MostFavorited(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("load top %d favorites", pagination.NormalizeLimit(limit)))
	}
	if rows == nil {
		rows = []ProductCard{}
	}
	return rows, nil
}
