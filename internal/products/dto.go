package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/roperito/roperito-backend/pkg/enums"
	"github.com/roperito/roperito-backend/pkg/pagination"
)

// MaxImages caps how many images a listing can carry.
const MaxImages = 5

// ImageInput is a client supplied image URL.
type ImageInput struct {
	URL    string
	IsMain bool
}

// CreateProductInput holds the validated payload to create a listing.
type CreateProductInput struct {
	SellerID    uuid.UUID
	Title       string
	Description string
	Price       int64
	CategoryID  uuid.UUID
	SizeID      uuid.UUID
	Images      []ImageInput
}

// UpdateProductInput holds optional mutation values for a listing.
type UpdateProductInput struct {
	Title       *string
	Description *string
	Price       *int64
	CategoryID  *uuid.UUID
	SizeID      *uuid.UUID
}

func (in UpdateProductInput) empty() bool {
	return in.Title == nil && in.Description == nil && in.Price == nil && in.CategoryID == nil && in.SizeID == nil
}

type ImageDTO struct {
	ID           uuid.UUID `json:"id"`
	URL          string    `json:"url"`
	DisplayOrder int       `json:"display_order"`
	IsMain       bool      `json:"is_main"`
}

// ProductSummary is the list card.
type ProductSummary struct {
	ID             uuid.UUID           `json:"id" gorm:"column:id"`
	Title          string              `json:"title" gorm:"column:title"`
	Price          int64               `json:"price" gorm:"column:price"`
	Status         enums.ProductStatus `json:"status" gorm:"column:status"`
	FavoritesCount int                 `json:"favorites_count" gorm:"column:favorites_count"`
	MainImage      *string             `json:"main_image,omitempty" gorm:"column:main_image"`
	CategoryID     uuid.UUID           `json:"category_id" gorm:"column:category_id"`
	CategoryName   string              `json:"category_name" gorm:"column:category_name"`
	SizeID         uuid.UUID           `json:"size_id" gorm:"column:size_id"`
	SizeName       string              `json:"size_name" gorm:"column:size_name"`
	SellerID       uuid.UUID           `json:"seller_id" gorm:"column:seller_id"`
	SellerName     string              `json:"seller_name" gorm:"column:seller_name"`
	CreatedAt      time.Time           `json:"created_at" gorm:"column:created_at"`
}

// ProductDTO is the full listing with ordered images.
type ProductDTO struct {
	ProductSummary
	Description string     `json:"description"`
	Images      []ImageDTO `json:"images"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ProductListResult struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func cursorOf(p ProductSummary) pagination.Cursor {
	return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
}
