package product

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
)

type CategoryDTO struct {
	ID           uuid.UUID `json:"id" gorm:"column:id"`
	Name         string    `json:"name" gorm:"column:name"`
	ProductCount int64     `json:"product_count" gorm:"column:product_count"`
}

type SizeDTO struct {
	ID           uuid.UUID  `json:"id" gorm:"column:id"`
	Name         string     `json:"name" gorm:"column:name"`
	CategoryID   *uuid.UUID `json:"category_id,omitempty" gorm:"column:category_id"`
	ProductCount int64      `json:"product_count" gorm:"column:product_count"`
}

// PriceRange is a browse shortcut; a nil Max is open ended.
type PriceRange struct {
	Min   int64  `json:"min"`
	Max   *int64 `json:"max"`
	Label string `json:"label"`
}

type FiltersDTO struct {
	Categories  []CategoryDTO `json:"categories"`
	Sizes       []SizeDTO     `json:"sizes"`
	PriceRanges []PriceRange  `json:"price_ranges"`
}

var priceBounds = []int64{0, 1000, 5000, 10000}

// PriceRanges builds the fixed browse ranges from priceBounds.
func PriceRanges() []PriceRange {
	ranges := make([]PriceRange, 0, len(priceBounds))
	for i, lo := range priceBounds {
		if i == len(priceBounds)-1 {
			ranges = append(ranges, PriceRange{Min: lo, Label: "over " + formatPrice(lo)})
			continue
		}
		hi := priceBounds[i+1]
		label := fmt.Sprintf("%s - %s", formatPrice(lo), formatPrice(hi))
		if lo == 0 {
			label = "up to " + formatPrice(hi)
		}
		ranges = append(ranges, PriceRange{Min: lo, Max: &hi, Label: label})
	}
	return ranges
}

func formatPrice(v int64) string {
	return "$" + decimal.NewFromInt(v).StringFixed(0)
}

// ParsePrice accepts prices like "1500" or "1500.00" and rejects fractions
// and negatives.
func ParsePrice(field, raw string) (int64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, pkgerrors.Invalid(field, field+" must be a number")
	}
	if d.IsNegative() {
		return 0, pkgerrors.Invalid(field, field+" must not be negative")
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, pkgerrors.Invalid(field, field+" must be a whole amount")
	}
	return d.IntPart(), nil
}

// Catalog serves category, size and filter metadata.
type Catalog interface {
	Categories(ctx context.Context) ([]CategoryDTO, error)
	Sizes(ctx context.Context, categoryID *uuid.UUID) ([]SizeDTO, error)
	Filters(ctx context.Context) (*FiltersDTO, error)
}

type catalog struct {
	repo *Repository
}

func NewCatalog(repo *Repository) (Catalog, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &catalog{repo: repo}, nil
}

func (c *catalog) Categories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := c.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	if rows == nil {
		rows = []CategoryDTO{}
	}
	return rows, nil
}

func (c *catalog) Sizes(ctx context.Context, categoryID *uuid.UUID) ([]SizeDTO, error) {
	rows, err := c.repo.ListSizes(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sizes")
	}
	if rows == nil {
		rows = []SizeDTO{}
	}
	return rows, nil
}

func (c *catalog) Filters(ctx context.Context) (*FiltersDTO, error) {
	categories, err := c.Categories(ctx)
	if err != nil {
		return nil, err
	}
	sizes, err := c.Sizes(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &FiltersDTO{Categories: categories, Sizes: sizes, PriceRanges: PriceRanges()}, nil
}
