package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roperito/roperito-backend/pkg/enums"
)

// Product is a single second-hand listing. Status only changes through the
// order lifecycle; IsActive=false is a soft delete.
type Product struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:products_user_id_idx"`
	Title          string              `gorm:"column:title;not null"`
	Description    string              `gorm:"column:description;not null"`
	Price          int64               `gorm:"column:price;not null"`
	CategoryID     uuid.UUID           `gorm:"column:category_id;type:uuid;not null"`
	SizeID         uuid.UUID           `gorm:"column:size_id;type:uuid;not null"`
	Status         enums.ProductStatus `gorm:"column:status;type:text;not null;default:available"`
	IsActive       bool                `gorm:"column:is_active;not null;default:true"`
	FavoritesCount int                 `gorm:"column:favorites_count;not null;default:0"`
	Images         []ProductImage      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

type ProductImage struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:product_images_product_id_idx"`
	URL          string    `gorm:"column:url;not null"`
	DisplayOrder int       `gorm:"column:display_order;not null;default:0"`
	IsMain       bool      `gorm:"column:is_main;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *ProductImage) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
