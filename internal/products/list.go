package product

import (
	"github.com/google/uuid"

	"github.com/roperito/roperito-backend/pkg/pagination"
)

// ProductListFilters describe the supported filter knobs for the browse endpoint.
type ProductListFilters struct {
	Query      string     `json:"q,omitempty"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	SizeID     *uuid.UUID `json:"size_id,omitempty"`
	MinPrice   *int64     `json:"min_price,omitempty"`
	MaxPrice   *int64     `json:"max_price,omitempty"`
}

// ListProductsInput selects either the public catalog (SellerID nil, only
// available listings) or one seller's own listings in every status.
type ListProductsInput struct {
	SellerID   *uuid.UUID
	Filters    ProductListFilters
	Pagination pagination.Params
}
