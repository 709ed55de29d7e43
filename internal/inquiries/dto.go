package inquiries

import (
	"time"

	"github.com/google/uuid"
)

// SendInput is a buyer writing to the seller of a product.
type SendInput struct {
	ProductID uuid.UUID
	BuyerID   uuid.UUID
	// SellerID is optional; when present it must match the product owner.
	SellerID *uuid.UUID
	Message  string
}

// ReplyInput is the seller answering an inquiry.
type ReplyInput struct {
	InquiryID uuid.UUID
	SellerID  uuid.UUID
	Response  string
}

// InquiryDetail is an inquiry with the product and both parties resolved.
type InquiryDetail struct {
	ID             uuid.UUID  `json:"id" gorm:"column:id"`
	ProductID      uuid.UUID  `json:"product_id" gorm:"column:product_id"`
	ProductTitle   string     `json:"product_title" gorm:"column:product_title"`
	ProductImage   *string    `json:"product_image,omitempty" gorm:"column:product_image"`
	BuyerID        uuid.UUID  `json:"buyer_id" gorm:"column:buyer_id"`
	BuyerName      string     `json:"buyer_name" gorm:"column:buyer_name"`
	SellerID       uuid.UUID  `json:"seller_id" gorm:"column:seller_id"`
	SellerName     string     `json:"seller_name" gorm:"column:seller_name"`
	Message        string     `json:"message" gorm:"column:message"`
	SellerResponse *string    `json:"seller_response,omitempty" gorm:"column:seller_response"`
	RespondedAt    *time.Time `json:"responded_at,omitempty" gorm:"column:responded_at"`
	CreatedAt      time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

// PotentialBuyer is a user who asked about a product.
type PotentialBuyer struct {
	UserID    uuid.UUID `json:"user_id" gorm:"column:user_id"`
	Name      string    `json:"name" gorm:"column:name"`
	Message   string    `json:"message" gorm:"column:message"`
	Replied   bool      `json:"replied" gorm:"column:replied"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}
