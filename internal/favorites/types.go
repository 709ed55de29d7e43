package favorites

import (
	"time"

	"github.com/google/uuid"

	"github.com/roperito/roperito-backend/pkg/enums"
	"github.com/roperito/roperito-backend/pkg/pagination"
)

// ProductCard is the product summary shown in favorite and popularity lists.
type ProductCard struct {
	ProductID      uuid.UUID           `json:"product_id" gorm:"column:product_id"`
	Title          string              `json:"title" gorm:"column:title"`
	Price          int64               `json:"price" gorm:"column:price"`
	Status         enums.ProductStatus `json:"status" gorm:"column:status"`
	FavoritesCount int                 `json:"favorites_count" gorm:"column:favorites_count"`
	MainImage      *string             `json:"main_image,omitempty" gorm:"column:main_image"`
	SellerID       uuid.UUID           `json:"seller_id" gorm:"column:seller_id"`
	SellerName     string              `json:"seller_name" gorm:"column:seller_name"`
	CreatedAt      time.Time           `json:"created_at" gorm:"column:created_at"`
}

// Item is one favorited product.
type Item struct {
	FavoriteID  uuid.UUID `json:"favorite_id" gorm:"column:favorite_id"`
	FavoritedAt time.Time `json:"favorited_at" gorm:"column:favorited_at"`
	ProductCard
}

type Page struct {
	Items      []Item `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// Check is the answer to "did I favorite this product".
type Check struct {
	ProductID  uuid.UUID `json:"product_id"`
	IsFavorite bool      `json:"is_favorite"`
}

func cursorOf(i Item) pagination.Cursor {
	return pagination.Cursor{CreatedAt: i.FavoritedAt, ID: i.FavoriteID}
}
