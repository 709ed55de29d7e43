package ratings

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roperito/roperito-backend/pkg/pagination"
)

const (
	MinValue = 1
	MaxValue = 5
)

type CreateInput struct {
	OrderID uuid.UUID
	BuyerID uuid.UUID
	Value   int
	Comment *string
}

// UpdateInput changes the score and/or comment; nil fields are left alone.
type UpdateInput struct {
	RatingID uuid.UUID
	BuyerID  uuid.UUID
	Value    *int
	Comment  *string
}

type ReportInput struct {
	RatingID   uuid.UUID
	ReporterID uuid.UUID
	Reason     string
}

// Summary is a seller's rating aggregate, computed on read.
type Summary struct {
	SellerID uuid.UUID       `json:"seller_id"`
	Count    int64           `json:"total_ratings"`
	Average  decimal.Decimal `json:"average_rating"`
}

// MarshalJSON writes the average as a JSON number rounded to two places.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SellerID uuid.UUID   `json:"seller_id"`
		Count    int64       `json:"total_ratings"`
		Average  json.Number `json:"average_rating"`
	}{
		SellerID: s.SellerID,
		Count:    s.Count,
		Average:  json.Number(s.Average.Round(averagePlaces).String()),
	})
}

// Pending points a buyer at the oldest delivered order they have not rated.
type Pending struct {
	OrderID  *uuid.UUID `json:"order_id"`
	SellerID *uuid.UUID `json:"seller_id"`
}

type RatingDetail struct {
	ID           uuid.UUID `json:"id" gorm:"column:id"`
	OrderID      uuid.UUID `json:"order_id" gorm:"column:order_id"`
	ProductTitle string    `json:"product_title" gorm:"column:product_title"`
	SellerID     uuid.UUID `json:"seller_id" gorm:"column:seller_id"`
	SellerName   string    `json:"seller_name" gorm:"column:seller_name"`
	BuyerID      uuid.UUID `json:"buyer_id" gorm:"column:buyer_id"`
	BuyerName    string    `json:"buyer_name" gorm:"column:buyer_name"`
	Value        int       `json:"value" gorm:"column:value"`
	Comment      *string   `json:"comment,omitempty" gorm:"column:comment"`
	ReportCount  int       `json:"report_count" gorm:"column:report_count"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at"`
}

type RatingList struct {
	Ratings    []RatingDetail `json:"ratings"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func cursorOf(r RatingDetail) pagination.Cursor {
	return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
}
