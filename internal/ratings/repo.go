package ratings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roperito/roperito-backend/internal/repo"
	"github.com/roperito/roperito-backend/pkg/db/models"
	"github.com/roperito/roperito-backend/pkg/enums"
	"github.com/roperito/roperito-backend/pkg/pagination"
)

// Direction selects which side of the ratings a listing is for.
type Direction int

const (
	Received Direction = iota
	Given
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Create(ctx context.Context, rating *models.Rating) error
	FindByID(ctx context.Context, ratingID uuid.UUID) (*models.Rating, error)
	Update(ctx context.Context, ratingID uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, ratingID uuid.UUID) error
	Totals(ctx context.Context, sellerID uuid.UUID) (count int64, sum int64, err error)
	OldestUnrated(ctx context.Context, buyerID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, userID uuid.UUID, dir Direction, params pagination.Params) (*RatingList, error)
	CreateReport(ctx context.Context, report *models.RatingReport) error
	IncrementReports(ctx context.Context, ratingID uuid.UUID) error
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Create(ctx context.Context, rating *models.Rating) error {
	return r.DB(ctx).Create(rating).Error
}

func (r *repository) FindByID(ctx context.Context, ratingID uuid.UUID) (*models.Rating, error) {
	var rating models.Rating
	if err := r.DB(ctx).Where("id = ?", ratingID).First(&rating).Error; err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *repository) Update(ctx context.Context, ratingID uuid.UUID, fields map[string]any) error {
	return r.DB(ctx).Model(&models.Rating{}).Where("id = ?", ratingID).Updates(fields).Error
}

func (r *repository) Delete(ctx context.Context, ratingID uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", ratingID).Delete(&models.Rating{}).Error
}

// Totals returns the number of ratings and the sum of their values; the
// caller does the division so rounding stays in decimal arithmetic.
func (r *repository) Totals(ctx context.Context, sellerID uuid.UUID) (int64, int64, error) {
	var row struct {
		Count int64 `gorm:"column:count"`
		Sum   int64 `gorm:"column:sum"`
	}
	err := r.DB(ctx).Model(&models.Rating{}).
		Select("COUNT(*) AS count, COALESCE(SUM(value), 0) AS sum").
		Where("seller_id = ?", sellerID).
		Scan(&row).Error
	return row.Count, row.Sum, err
}

func (r *repository) OldestUnrated(ctx context.Context, buyerID uuid.UUID) (*models.Order, error) {
	var rows []models.Order
	err := r.DB(ctx).
		Table("orders o").
		Select("o.*").
		Joins("LEFT JOIN ratings r ON r.order_id = o.id").
		Where("o.buyer_id = ? AND o.status = ? AND r.id IS NULL", buyerID, enums.OrderStatusDelivered).
		Order("o.created_at ASC").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repository) List(ctx context.Context, userID uuid.UUID, dir Direction, params pagination.Params) (*RatingList, error) {
	column := "r.seller_id"
	if dir == Given {
		column = "r.buyer_id"
	}
	query := r.DB(ctx).
		Table("ratings r").
		Select(`r.id, r.order_id, p.title AS product_title, r.seller_id, s.name AS seller_name,
			r.buyer_id, b.name AS buyer_name, r.value, r.comment, r.report_count, r.created_at, r.updated_at`).
		Joins("JOIN orders o ON o.id = r.order_id").
		Joins("JOIN products p ON p.id = o.product_id").
		Joins("JOIN users s ON s.id = r.seller_id").
		Joins("JOIN users b ON b.id = r.buyer_id").
		Where(column+" = ?", userID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(r.created_at < ? OR (r.created_at = ? AND r.id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []RatingDetail
	err = query.Order("r.created_at DESC").Order("r.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	page, next := pagination.Trim(rows, params.Limit, cursorOf)
	if page == nil {
		page = []RatingDetail{}
	}
	return &RatingList{Ratings: page, NextCursor: next}, nil
}

func (r *repository) CreateReport(ctx context.Context, report *models.RatingReport) error {
	return r.DB(ctx).Create(report).Error
}

func (r *repository) IncrementReports(ctx context.Context, ratingID uuid.UUID) error {
	return r.DB(ctx).Model(&models.Rating{}).
		Where("id = ?", ratingID).
		UpdateColumn("report_count", gorm.Expr("report_count + 1")).Error
}
