package inquiries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roperito/roperito-backend/internal/repo"
	"github.com/roperito/roperito-backend/pkg/db/models"
)

// Repository persists inquiries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	Upsert(ctx context.Context, inquiry *models.Inquiry) error
	FindByID(ctx context.Context, inquiryID uuid.UUID) (*models.Inquiry, error)
	FindDetail(ctx context.Context, inquiryID uuid.UUID) (*InquiryDetail, error)
	FindDetailByPair(ctx context.Context, userID, productID uuid.UUID) (*InquiryDetail, error)
	SetResponse(ctx context.Context, inquiryID uuid.UUID, response string, at time.Time) error
	ListVisibleTo(ctx context.Context, userID uuid.UUID) ([]InquiryDetail, error)
	Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	ListPotentialBuyers(ctx context.Context, productID uuid.UUID) ([]PotentialBuyer, error)
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

func (r *repository) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Where("id = ? AND is_active = ?", productID, true).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Upsert inserts the inquiry or, for an existing (user, product) pair,
// replaces the message and refreshes updated_at. A previous reply is kept.
func (r *repository) Upsert(ctx context.Context, inquiry *models.Inquiry) error {
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"message", "updated_at"}),
	}).Create(inquiry).Error
}

func (r *repository) FindByID(ctx context.Context, inquiryID uuid.UUID) (*models.Inquiry, error) {
	var inquiry models.Inquiry
	if err := r.DB(ctx).Where("id = ?", inquiryID).First(&inquiry).Error; err != nil {
		return nil, err
	}
	return &inquiry, nil
}

func (r *repository) detailQuery(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Table("inquiries i").
		Select(`i.id, i.product_id, p.title AS product_title, pi.url AS product_image,
			i.user_id AS buyer_id, b.name AS buyer_name,
			p.user_id AS seller_id, s.name AS seller_name,
			i.message, i.seller_response, i.responded_at, i.created_at, i.updated_at`).
		Joins("JOIN products p ON p.id = i.product_id").
		Joins("LEFT JOIN product_images pi ON pi.product_id = p.id AND pi.is_main = ?", true).
		Joins("JOIN users b ON b.id = i.user_id").
		Joins("JOIN users s ON s.id = p.user_id")
}

func (r *repository) first(query *gorm.DB) (*InquiryDetail, error) {
	var rows []InquiryDetail
	if err := query.Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *repository) FindDetail(ctx context.Context, inquiryID uuid.UUID) (*InquiryDetail, error) {
	return r.first(r.detailQuery(ctx).Where("i.id = ?", inquiryID))
}

func (r *repository) FindDetailByPair(ctx context.Context, userID, productID uuid.UUID) (*InquiryDetail, error) {
	return r.first(r.detailQuery(ctx).Where("i.user_id = ? AND i.product_id = ?", userID, productID))
}

func (r *repository) SetResponse(ctx context.Context, inquiryID uuid.UUID, response string, at time.Time) error {
	return r.DB(ctx).Model(&models.Inquiry{}).
		Where("id = ?", inquiryID).
		Updates(map[string]any{"seller_response": response, "responded_at": at, "updated_at": at}).Error
}

// ListVisibleTo returns every inquiry on the user's products plus the user's
// own inquiries that already have a reply.
func (r *repository) ListVisibleTo(ctx context.Context, userID uuid.UUID) ([]InquiryDetail, error) {
	var rows []InquiryDetail
	err := r.detailQuery(ctx).
		Where("p.user_id = ? OR (i.user_id = ? AND i.seller_response IS NOT NULL)", userID, userID).
		Order("i.updated_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Inquiry{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListPotentialBuyers(ctx context.Context, productID uuid.UUID) ([]PotentialBuyer, error) {
	var rows []PotentialBuyer
	err := r.DB(ctx).
		Table("inquiries i").
		Select("i.user_id, u.name, i.message, i.seller_response IS NOT NULL AS replied, i.updated_at").
		Joins("JOIN users u ON u.id = i.user_id").
		Where("i.product_id = ?", productID).
		Order("i.updated_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
