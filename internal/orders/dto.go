package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/roperito/roperito-backend/pkg/enums"
	"github.com/roperito/roperito-backend/pkg/pagination"
)

// CreateOrderInput carries a buyer's request to reserve a product.
type CreateOrderInput struct {
	ProductID       uuid.UUID
	BuyerID         uuid.UUID
	ShippingAddress *string
	PaymentMethod   *string
}

// UpdateStatusInput is a seller moving an order forward.
type UpdateStatusInput struct {
	OrderID     uuid.UUID
	Status      string
	RequesterID uuid.UUID
}

// CancelInput is either party withdrawing from an order.
type CancelInput struct {
	OrderID     uuid.UUID
	Reason      string
	RequesterID uuid.UUID
}

// OrderDetail is an order enriched with product and party display fields.
type OrderDetail struct {
	ID                 uuid.UUID         `json:"id" gorm:"column:id"`
	ProductID          uuid.UUID         `json:"product_id" gorm:"column:product_id"`
	SellerID           uuid.UUID         `json:"seller_id" gorm:"column:seller_id"`
	BuyerID            uuid.UUID         `json:"buyer_id" gorm:"column:buyer_id"`
	Price              int64             `json:"price" gorm:"column:price"`
	Status             enums.OrderStatus `json:"status" gorm:"column:status"`
	ShippingAddress    *string           `json:"shipping_address,omitempty" gorm:"column:shipping_address"`
	PaymentMethod      *string           `json:"payment_method,omitempty" gorm:"column:payment_method"`
	CancellationReason *string           `json:"cancellation_reason,omitempty" gorm:"column:cancellation_reason"`
	CancelledBy        *uuid.UUID        `json:"cancelled_by,omitempty" gorm:"column:cancelled_by"`
	CreatedAt          time.Time         `json:"created_at" gorm:"column:created_at"`
	UpdatedAt          time.Time         `json:"updated_at" gorm:"column:updated_at"`

	ProductTitle       string  `json:"product_title" gorm:"column:product_title"`
	ProductDescription string  `json:"product_description" gorm:"column:product_description"`
	ProductImage       *string `json:"product_image,omitempty" gorm:"column:product_image"`
	SellerName         string  `json:"seller_name" gorm:"column:seller_name"`
	BuyerName          string  `json:"buyer_name" gorm:"column:buyer_name"`
}

// OrderEvent is the realtime payload for order lifecycle events.
type OrderEvent struct {
	Order          *OrderDetail      `json:"order"`
	PreviousStatus enums.OrderStatus `json:"previous_status,omitempty"`
	Deleted        bool              `json:"deleted,omitempty"`
}

// OrderList is one page of enriched orders.
type OrderList struct {
	Orders     []OrderDetail `json:"orders"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func cursorOf(o OrderDetail) pagination.Cursor {
	return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
}
