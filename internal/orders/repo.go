package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roperito/roperito-backend/internal/repo"
	"github.com/roperito/roperito-backend/pkg/db/models"
	"github.com/roperito/roperito-backend/pkg/enums"
	"github.com/roperito/roperito-backend/pkg/pagination"
)

// Repository persists orders and drives the product status they hold.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	MoveProductStatus(ctx context.Context, productID uuid.UUID, from, to enums.ProductStatus) (bool, error)
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindDetail(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error)
	FindLatestOpenByProduct(ctx context.Context, productID uuid.UUID) (*models.Order, error)
	MoveStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error)
	MarkCancelled(ctx context.Context, orderID uuid.UUID, from enums.OrderStatus, reason *string, by *uuid.UUID) (bool, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID, role PartyRole, params pagination.Params) (*OrderList, error)
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

// PartyRole selects which side of the order a listing is for.
type PartyRole string

const (
	RoleBuyer  PartyRole = "buyer"
	RoleSeller PartyRole = "seller"
)

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Where("id = ?", productID).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// MoveProductStatus is a compare-and-set on products.status. It reports
// false when the product was not in from.
func (r *repository) MoveProductStatus(ctx context.Context, productID uuid.UUID, from, to enums.ProductStatus) (bool, error) {
	res := r.DB(ctx).Model(&models.Product{}).
		Where("id = ? AND status = ?", productID, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) detailQuery(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Table("orders o").
		Select(`o.id, o.product_id, o.seller_id, o.buyer_id, o.price, o.status,
			o.shipping_address, o.payment_method, o.cancellation_reason, o.cancelled_by,
			o.created_at, o.updated_at,
			p.title AS product_title, p.description AS product_description,
			pi.url AS product_image,
			s.name AS seller_name, b.name AS buyer_name`).
		Joins("JOIN products p ON p.id = o.product_id").
		Joins("LEFT JOIN product_images pi ON pi.product_id = p.id AND pi.is_main = ?", true).
		Joins("JOIN users s ON s.id = o.seller_id").
		Joins("JOIN users b ON b.id = o.buyer_id")
}

func (r *repository) FindDetail(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	var rows []OrderDetail
	if err := r.detailQuery(ctx).Where("o.id = ?", orderID).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *repository) FindLatestOpenByProduct(ctx context.Context, productID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Where("product_id = ? AND status <> ?", productID, enums.OrderStatusCancelled).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) MoveStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.DB(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) MarkCancelled(ctx context.Context, orderID uuid.UUID, from enums.OrderStatus, reason *string, by *uuid.UUID) (bool, error) {
	res := r.DB(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(map[string]any{
			"status":              enums.OrderStatusCancelled,
			"cancellation_reason": reason,
			"cancelled_by":        by,
			"updated_at":          time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) Delete(ctx context.Context, orderID uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", orderID).Delete(&models.Order{}).Error
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, role PartyRole, params pagination.Params) (*OrderList, error) {
	column := "o.buyer_id"
	if role == RoleSeller {
		column = "o.seller_id"
	}
	query := r.detailQuery(ctx).Where(column+" = ?", userID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(o.created_at < ? OR (o.created_at = ? AND o.id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []OrderDetail
	err = query.Order("o.created_at DESC").Order("o.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	page, next := pagination.Trim(rows, params.Limit, cursorOf)
	if page == nil {
		page = []OrderDetail{}
	}
	return &OrderList{Orders: page, NextCursor: next}, nil
}

func (r *repository) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	query := r.DB(ctx).
		Where("status = ? AND created_at < ?", enums.OrderStatusPending, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
