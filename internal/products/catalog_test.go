package product

import (
	"context"
	"testing"

	"github.com/roperito/roperito-backend/internal/testdb"
	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
)

func TestCatalogCountsActiveListings(t *testing.T) {
	conn := testdb.Open(t)
	fx := testdb.NewFixtures(t, conn)
	catalog, err := NewCatalog(NewRepository(conn))
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	seller := fx.User("Sofia")
	kept := fx.Product(seller.ID, "Kept", 100)
	gone := fx.Product(seller.ID, "Gone", 100)
	fx.Deactivate(gone.ID)

	categories, err := catalog.Categories(context.Background())
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}
	counts := map[string]int64{}
	for _, c := range categories {
		counts[c.ID.String()] = c.ProductCount
	}
	if counts[kept.CategoryID.String()] != 1 || counts[gone.CategoryID.String()] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}

	sizes, err := catalog.Sizes(context.Background(), &kept.CategoryID)
	if err != nil {
		t.Fatalf("sizes: %v", err)
	}
	if len(sizes) != 1 || sizes[0].ID != kept.SizeID {
		t.Fatalf("expected only the size of the category, got %+v", sizes)
	}

	filters, err := catalog.Filters(context.Background())
	if err != nil {
		t.Fatalf("filters: %v", err)
	}
	if len(filters.Sizes) != 2 || len(filters.PriceRanges) != 4 {
		t.Fatalf("unexpected filters %+v", filters)
	}
}

func TestPriceRanges(t *testing.T) {
	ranges := PriceRanges()
	if ranges[0].Label != "up to $1000" || ranges[0].Max == nil || *ranges[0].Max != 1000 {
		t.Fatalf("unexpected first range %+v", ranges[0])
	}
	if ranges[1].Label != "$1000 - $5000" {
		t.Fatalf("unexpected label %q", ranges[1].Label)
	}
	last := ranges[len(ranges)-1]
	if last.Max != nil || last.Label != "over $10000" {
		t.Fatalf("unexpected open range %+v", last)
	}
}

func TestParsePrice(t *testing.T) {
	cases := map[string]int64{"1500": 1500, "1500.00": 1500, "0": 0}
	for raw, want := range cases {
		got, err := ParsePrice("min_price", raw)
		if err != nil || got != want {
			t.Fatalf("ParsePrice(%q) = %d, %v", raw, got, err)
		}
	}
	for _, raw := range []string{"abc", "-1", "10.5"} {
		if _, err := ParsePrice("min_price", raw); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %q, got %v", raw, err)
		}
	}
}
