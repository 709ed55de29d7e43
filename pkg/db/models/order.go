package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roperito/roperito-backend/pkg/enums"
)

// Order reserves one product for one buyer. SellerID and Price are
// snapshots taken when the order is created.
type Order struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID          uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index:orders_product_id_idx"`
	SellerID           uuid.UUID         `gorm:"column:seller_id;type:uuid;not null;index:orders_seller_id_idx"`
	BuyerID            uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index:orders_buyer_id_idx"`
	Price              int64             `gorm:"column:price;not null"`
	Status             enums.OrderStatus `gorm:"column:status;type:text;not null;default:pending"`
	ShippingAddress    *string           `gorm:"column:shipping_address"`
	PaymentMethod      *string           `gorm:"column:payment_method"`
	CancellationReason *string           `gorm:"column:cancellation_reason"`
	CancelledBy        *uuid.UUID        `gorm:"column:cancelled_by;type:uuid"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// IsParty reports whether userID is the buyer or the seller.
func (o Order) IsParty(userID uuid.UUID) bool {
	return o.BuyerID == userID || o.SellerID == userID
}
