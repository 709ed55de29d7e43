package ratings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/roperito/roperito-backend/pkg/db"
	"github.com/roperito/roperito-backend/pkg/db/models"
	"github.com/roperito/roperito-backend/pkg/enums"
	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
	"github.com/roperito/roperito-backend/pkg/pagination"
)

const averagePlaces = 2

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the rating ledger: buyers score sellers once per delivered order.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Rating, error)
	Update(ctx context.Context, input UpdateInput) (*models.Rating, error)
	Delete(ctx context.Context, ratingID, buyerID uuid.UUID) error
	Report(ctx context.Context, input ReportInput) error
	Summary(ctx context.Context, sellerID uuid.UUID) (*Summary, error)
	PendingFor(ctx context.Context, buyerID uuid.UUID) (*Pending, error)
	List(ctx context.Context, userID uuid.UUID, dir Direction, params pagination.Params) (*RatingList, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ratings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Rating, error) {
	if err := validateValue(input.Value); err != nil {
		return nil, err
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.Invalid("order_id", "order_id is required")
	}

	var rating *models.Rating
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			return notFoundOr(err, "order", "load order")
		}
		if order.BuyerID != input.BuyerID {
			return pkgerrors.Forbidden("only the buyer can rate this order")
		}
		if order.Status != enums.OrderStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered orders can be rated")
		}

		rating = &models.Rating{
			SellerID: order.SellerID,
			BuyerID:  order.BuyerID,
			OrderID:  order.ID,
			Value:    input.Value,
			Comment:  trimmed(input.Comment),
		}
		if err := repo.Create(ctx, rating); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Conflict("order already rated")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create rating")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Rating, error) {
	fields := map[string]any{}
	if input.Value != nil {
		if err := validateValue(*input.Value); err != nil {
			return nil, err
		}
		fields["value"] = *input.Value
	}
	if input.Comment != nil {
		fields["comment"] = trimmed(input.Comment)
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	fields["updated_at"] = time.Now().UTC()

	var rating *models.Rating
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.owned(ctx, repo, input.RatingID, input.BuyerID); err != nil {
			return err
		}
		if err := repo.Update(ctx, input.RatingID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update rating")
		}
		var err error
		rating, err = repo.FindByID(ctx, input.RatingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload rating")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

func (s *service) Delete(ctx context.Context, ratingID, buyerID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.owned(ctx, repo, ratingID, buyerID); err != nil {
			return err
		}
		if err := repo.Delete(ctx, ratingID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete rating")
		}
		return nil
	})
}

func (s *service) owned(ctx context.Context, repo Repository, ratingID, buyerID uuid.UUID) (*models.Rating, error) {
	rating, err := repo.FindByID(ctx, ratingID)
	if err != nil {
		return nil, notFoundOr(err, "rating", "load rating")
	}
	if rating.BuyerID != buyerID {
		return nil, pkgerrors.Forbidden("only the author can change this rating")
	}
	return rating, nil
}

// Report files one report per (rating, reporter) and bumps the rating's
// report counter in the same transaction.
func (s *service) Report(ctx context.Context, input ReportInput) error {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return pkgerrors.Invalid("reason", "reason is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rating, err := repo.FindByID(ctx, input.RatingID)
		if err != nil {
			return notFoundOr(err, "rating", "load rating")
		}
		if rating.BuyerID == input.ReporterID {
			return pkgerrors.Invalid("id", "you cannot report your own rating")
		}
		report := &models.RatingReport{RatingID: rating.ID, ReportedBy: input.ReporterID, Reason: reason}
		if err := repo.CreateReport(ctx, report); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Conflict("rating already reported")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create report")
		}
		if err := repo.IncrementReports(ctx, rating.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count report")
		}
		return nil
	})
}

func (s *service) Summary(ctx context.Context, sellerID uuid.UUID) (*Summary, error) {
	count, sum, err := s.repo.Totals(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load rating totals")
	}
	return &Summary{SellerID: sellerID, Count: count, Average: Average(count, sum)}, nil
}

// Average divides sum by count rounded half away from zero to two places.
func Average(count, sum int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(count), averagePlaces)
}

func (s *service) PendingFor(ctx context.Context, buyerID uuid.UUID) (*Pending, error) {
	order, err := s.repo.OldestUnrated(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find unrated order")
	}
	if order == nil {
		return &Pending{}, nil
	}
	return &Pending{OrderID: &order.ID, SellerID: &order.SellerID}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, dir Direction, params pagination.Params) (*RatingList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Invalid("cursor", "invalid cursor")
	}
	list, err := s.repo.List(ctx, userID, dir, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list ratings")
	}
	return list, nil
}

func validateValue(value int) error {
	if value < MinValue || value > MaxValue {
		return pkgerrors.Invalid("value", fmt.Sprintf("value must be between %d and %d", MinValue, MaxValue))
	}
	return nil
}

func notFoundOr(err error, entity, action string) error {
	if db.IsNotFound(err) {
		return pkgerrors.NotFound(entity)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.TrimSpace(*v)
	if out == "" {
		return nil
	}
	return &out
}
