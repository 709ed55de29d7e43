package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rating is the buyer's score of a delivered order, at most one per order.
type Rating struct {
	ID          uuid.UUID `json:"id" gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID    uuid.UUID `json:"seller_id" gorm:"column:seller_id;type:uuid;not null;index:ratings_seller_id_idx"`
	BuyerID     uuid.UUID `json:"buyer_id" gorm:"column:buyer_id;type:uuid;not null;index:ratings_buyer_id_idx"`
	OrderID     uuid.UUID `json:"order_id" gorm:"column:order_id;type:uuid;not null;uniqueIndex:ratings_order_id_key"`
	Value       int       `json:"value" gorm:"column:value;not null"`
	Comment     *string   `json:"comment,omitempty" gorm:"column:comment"`
	ReportCount int       `json:"report_count" gorm:"column:report_count;not null;default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Rating) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}

type RatingReport struct {
	ID         uuid.UUID `json:"id" gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RatingID   uuid.UUID `json:"rating_id" gorm:"column:rating_id;type:uuid;not null;uniqueIndex:rating_reports_rating_reporter_key"`
	ReportedBy uuid.UUID `json:"reported_by" gorm:"column:reported_by;type:uuid;not null;uniqueIndex:rating_reports_rating_reporter_key"`
	Reason     string    `json:"reason" gorm:"column:reason;not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (r *RatingReport) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}
