package favorites

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roperito/roperito-backend/internal/repo"
	"github.com/roperito/roperito-backend/pkg/db/models"
	"github.com/roperito/roperito-backend/pkg/enums"
	"github.com/roperito/roperito-backend/pkg/pagination"
)

var cardColumns = []string{
	"p.id AS product_id",
	"p.title",
	"p.price",
	"p.status",
	"p.favorites_count",
	"pi.url AS main_image",
	"p.user_id AS seller_id",
	"u.name AS seller_name",
	"p.created_at",
}

// Repository encapsulates favorite persistence and the favorites_count mirror.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	Insert(ctx context.Context, favorite *models.Favorite) error
	Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	AdjustCount(ctx context.Context, productID uuid.UUID, delta int) error
	Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error)
	MostFavorited(ctx context.Context, limit int) ([]ProductCard, error)
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

func (r *repository) FindActiveProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Where("id = ? AND is_active = ?", productID, true).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) Insert(ctx context.Context, favorite *models.Favorite) error {
	return r.DB(ctx).Create(favorite).Error
}

func (r *repository) Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.Favorite{})
	return res.RowsAffected > 0, res.Error
}

// AdjustCount shifts favorites_count by delta without letting it go negative.
func (r *repository) AdjustCount(ctx context.Context, productID uuid.UUID, delta int) error {
	return r.DB(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("favorites_count",
			gorm.Expr("CASE WHEN favorites_count + ? < 0 THEN 0 ELSE favorites_count + ? END", delta, delta)).
		Error
}

func (r *repository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

// withCard joins the seller and main image onto a query that already has p.
func withCard(query *gorm.DB) *gorm.DB {
	return query.
		Joins("JOIN users u ON u.id = p.user_id").
		Joins("LEFT JOIN product_images pi ON pi.product_id = p.id AND pi.is_main = ?", true)
}

// List returns the user's favorites on active products, newest first.
func (r *repository) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	columns := append([]string{"f.id AS favorite_id", "f.created_at AS favorited_at"}, cardColumns...)
	query := withCard(r.DB(ctx).
		Table("favorites f").
		Select(strings.Join(columns, ", ")).
		Joins("JOIN products p ON p.id = f.product_id")).
		Where("f.user_id = ? AND p.is_active = ?", userID, true)
	if cursor != nil {
		query = query.Where("(f.created_at < ? OR (f.created_at = ? AND f.id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []Item
	err = query.Order("f.created_at DESC").Order("f.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	items, next := pagination.Trim(rows, params.Limit, cursorOf)
	if items == nil {
		items = []Item{}
	}
	return &Page{Items: items, NextCursor: next}, nil
}

func (r *repository) MostFavorited(ctx context.Context, limit int) ([]ProductCard, error) {
	var rows []ProductCard
	err := withCard(r.DB(ctx).Table("products p").Select(strings.Join(cardColumns, ", "))).
		Where("p.is_active = ? AND p.status = ?", true, enums.ProductStatusAvailable).
		Order("p.favorites_count DESC").Order("p.created_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
