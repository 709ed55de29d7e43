package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Inquiry is a buyer's pre-order message about a product, one per
// (user, product). The seller may answer it once.
type Inquiry struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:inquiries_user_product_key"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:inquiries_user_product_key;index:inquiries_product_id_idx"`
	Message        string     `gorm:"column:message;not null"`
	SellerResponse *string    `gorm:"column:seller_response"`
	RespondedAt    *time.Time `gorm:"column:responded_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Inquiry) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

func (Inquiry) TableName() string {
	return "inquiries"
}
