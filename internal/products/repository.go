package product

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

var summaryColumns = []string{
	"p.id",
	"p.title",
	"p.price",
	"p.status",
	"p.favorites_count",
	"pi.url AS main_image",
	"p.category_id",
	"c.name AS category_name",
	"p.size_id",
	"s.name AS size_name",
	"p.user_id AS seller_id",
	"u.name AS seller_name",
	"p.created_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository encapsulates listing persistence.
type Repository struct {
	repo.Base
}

// NewRepository constructs a product repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

// FindByID loads a listing regardless of is_active.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts the listing and its images.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

// UpdateFields applies a partial update.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields).Error
}

// ReplaceImages swaps the full image set of a listing.
func (r *Repository) ReplaceImages(ctx context.Context, productID uuid.UUID, images []models.ProductImage) error {
	if err := r.DB(ctx).Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	if len(images) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&images).Error
}

// Deactivate soft-deletes a listing unless it is reserved. It reports whether
// a row changed.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Model(&models.Product{}).
		Where("id = ? AND is_active = ? AND status <> ?", id, true, enums.ProductStatusReserved).
		Update("is_active", false)
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// SizeFits reports whether the size exists and is generic or tied to categoryID.
func (r *Repository) SizeFits(ctx context.Context, sizeID, categoryID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Size{}).
		Where("id = ? AND (category_id IS NULL OR category_id = ?)", sizeID, categoryID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) summaries(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Table("products p").
		Select(strings.Join(summaryColumns, ", ")).
		Joins("JOIN users u ON u.id = p.user_id").
		Joins("JOIN categories c ON c.id = p.category_id").
		Joins("JOIN sizes s ON s.id = p.size_id").
		Joins("LEFT JOIN product_images pi ON pi.product_id = p.id AND pi.is_main = ?", true)
}

// GetProductDetail loads an active listing with its ordered images.
func (r *Repository) GetProductDetail(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	var rows []ProductSummary
	if err := r.summaries(ctx).Where("p.id = ? AND p.is_active = ?", id, true).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var product models.Product
	err := r.DB(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC").Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}

	images := make([]ImageDTO, 0, len(product.Images))
	for _, img := range product.Images {
		images = append(images, ImageDTO{ID: img.ID, URL: img.URL, DisplayOrder: img.DisplayOrder, IsMain: img.IsMain})
	}
	return &ProductDTO{
		ProductSummary: rows[0],
		Description:    product.Description,
		Images:         images,
		UpdatedAt:      product.UpdatedAt,
	}, nil
}

// ListProductSummaries pages through active listings newest first.
func (r *Repository) ListProductSummaries(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.summaries(ctx).Where("p.is_active = ?", true)
	if input.SellerID != nil {
		query = query.Where("p.user_id = ?", *input.SellerID)
	} else {
		query = query.Where("p.status = ?", enums.ProductStatusAvailable)
	}

	f := input.Filters
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
		query = query.Where(`(LOWER(p.title) LIKE ? ESCAPE '\' OR LOWER(p.description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if f.CategoryID != nil {
		query = query.Where("p.category_id = ?", *f.CategoryID)
	}
	if f.SizeID != nil {
		query = query.Where("p.size_id = ?", *f.SizeID)
	}
	if f.MinPrice != nil {
		query = query.Where("p.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("p.price <= ?", *f.MaxPrice)
	}
	if cursor != nil {
		query = query.Where("(p.created_at < ? OR (p.created_at = ? AND p.id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []ProductSummary
	err = query.Order("p.created_at DESC").Order("p.id DESC").
		Limit(pagination.LimitWithBuffer(input.Pagination.Limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	page, next := pagination.Trim(rows, input.Pagination.Limit, cursorOf)
	if page == nil {
		page = []ProductSummary{}
	}
	return &ProductListResult{Products: page, NextCursor: next}, nil
}

// ListCategories returns every category with its active listing count.
func (r *Repository) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	var rows []CategoryDTO
	err := r.DB(ctx).
		Table("categories c").
		Select("c.id, c.name, COUNT(p.id) AS product_count").
		Joins("LEFT JOIN products p ON p.category_id = c.id AND p.is_active = ?", true).
		Group("c.id, c.name").
		Order("c.name ASC").
		Scan(&rows).Error
	return rows, err
}

// ListSizes returns sizes, optionally limited to the generic ones plus those
// of categoryID.
func (r *Repository) ListSizes(ctx context.Context, categoryID *uuid.UUID) ([]SizeDTO, error) {
	query := r.DB(ctx).
		Table("sizes s").
		Select("s.id, s.name, s.category_id, COUNT(p.id) AS product_count").
		Joins("LEFT JOIN products p ON p.size_id = s.id AND p.is_active = ?", true)
	if categoryID != nil {
		query = query.Where("s.category_id IS NULL OR s.category_id = ?", *categoryID)
	}
	var rows []SizeDTO
	err := query.Group("s.id, s.name, s.category_id").Order("s.name ASC").Scan(&rows).Error
	return rows, err
}
