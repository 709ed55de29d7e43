package product

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/roperito/roperito-backend/internal/testdb"
	"github.com/roperito/roperito-backend/pkg/db"
	"github.com/roperito/roperito-backend/pkg/db/models"
	"github.com/roperito/roperito-backend/pkg/enums"
	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
	"github.com/roperito/roperito-backend/pkg/pagination"
)

type productEnv struct {
	svc      Service
	fx       *testdb.Fixtures
	seller   *models.User
	category *models.Category
	size     *models.Size
}

func newProductEnv(t *testing.T) *productEnv {
	t.Helper()
	conn := testdb.Open(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	fx := testdb.NewFixtures(t, conn)
	category := fx.Category("Shoes")
	return &productEnv{
		svc:      svc,
		fx:       fx,
		seller:   fx.User("Sofia"),
		category: category,
		size:     fx.Size("38", category.ID),
	}
}

func (e *productEnv) create(t *testing.T, title string, price int64, images ...ImageInput) *ProductDTO {
	t.Helper()
	created, err := e.svc.CreateProduct(context.Background(), CreateProductInput{
		SellerID:    e.seller.ID,
		Title:       title,
		Description: title + " in good condition",
		Price:       price,
		CategoryID:  e.category.ID,
		SizeID:      e.size.ID,
		Images:      images,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return created
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if got := pkgerrors.CodeOf(err); err == nil || got != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestCreateProductDefaultsFirstImageToMain(t *testing.T) {
	env := newProductEnv(t)
	created := env.create(t, "Leather boots", 25000,
		ImageInput{URL: "https://img.example.com/a.jpg"},
		ImageInput{URL: "https://img.example.com/b.jpg"},
	)

	if created.Status != enums.ProductStatusAvailable {
		t.Fatalf("expected available, got %s", created.Status)
	}
	if created.SellerName != "Sofia" || created.CategoryName != "Shoes" || created.SizeName != "38" {
		t.Fatalf("unexpected enrichment: %+v", created.ProductSummary)
	}
	if len(created.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(created.Images))
	}
	if !created.Images[0].IsMain || created.Images[1].IsMain {
		t.Fatalf("expected first image to be main: %+v", created.Images)
	}
	if created.MainImage == nil || *created.MainImage != "https://img.example.com/a.jpg" {
		t.Fatalf("unexpected main image %v", created.MainImage)
	}
}

func TestCreateProductValidation(t *testing.T) {
	env := newProductEnv(t)
	ctx := context.Background()
	other := env.fx.Category("Coats")
	tooMany := make([]ImageInput, MaxImages+1)
	for i := range tooMany {
		tooMany[i] = ImageInput{URL: "https://img.example.com/x.jpg"}
	}

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"blank title", CreateProductInput{Title: " ", Description: "d", CategoryID: env.category.ID, SizeID: env.size.ID}},
		{"negative price", CreateProductInput{Title: "t", Description: "d", Price: -1, CategoryID: env.category.ID, SizeID: env.size.ID}},
		{"unknown category", CreateProductInput{Title: "t", Description: "d", CategoryID: uuid.New(), SizeID: env.size.ID}},
		{"size of another category", CreateProductInput{Title: "t", Description: "d", CategoryID: other.ID, SizeID: env.size.ID}},
		{"too many images", CreateProductInput{Title: "t", Description: "d", CategoryID: env.category.ID, SizeID: env.size.ID, Images: tooMany}},
		{"relative url", CreateProductInput{Title: "t", Description: "d", CategoryID: env.category.ID, SizeID: env.size.ID, Images: []ImageInput{{URL: "/uploads/a.jpg"}}}},
		{"two main images", CreateProductInput{Title: "t", Description: "d", CategoryID: env.category.ID, SizeID: env.size.ID, Images: []ImageInput{
			{URL: "https://img.example.com/a.jpg", IsMain: true},
			{URL: "https://img.example.com/b.jpg", IsMain: true},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.input.SellerID = env.seller.ID
			_, err := env.svc.CreateProduct(ctx, tc.input)
			expectCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestUpdateProductOwnerOnly(t *testing.T) {
	env := newProductEnv(t)
	ctx := context.Background()
	created := env.create(t, "Sneakers", 9000)

	title := "Running sneakers"
	price := int64(8500)
	updated, err := env.svc.UpdateProduct(ctx, env.seller.ID, created.ID, UpdateProductInput{Title: &title, Price: &price})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title || updated.Price != price {
		t.Fatalf("update not applied: %+v", updated.ProductSummary)
	}

	stranger := env.fx.User("Bruno")
	_, err = env.svc.UpdateProduct(ctx, stranger.ID, created.ID, UpdateProductInput{Title: &title})
	expectCode(t, err, pkgerrors.CodeForbidden)

	_, err = env.svc.UpdateProduct(ctx, env.seller.ID, created.ID, UpdateProductInput{})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = env.svc.UpdateProduct(ctx, env.seller.ID, uuid.New(), UpdateProductInput{Title: &title})
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestReplaceImages(t *testing.T) {
	env := newProductEnv(t)
	ctx := context.Background()
	created := env.create(t, "Hat", 3000, ImageInput{URL: "https://img.example.com/old.jpg"})

	replaced, err := env.svc.ReplaceImages(ctx, env.seller.ID, created.ID, []ImageInput{
		{URL: "https://img.example.com/1.jpg"},
		{URL: "https://img.example.com/2.jpg", IsMain: true},
	})
	if err != nil {
		t.Fatalf("replace images: %v", err)
	}
	if len(replaced.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(replaced.Images))
	}
	if replaced.Images[0].IsMain || !replaced.Images[1].IsMain {
		t.Fatalf("expected second image to be main: %+v", replaced.Images)
	}
}

func TestDeleteProductIsSoftAndBlockedWhileReserved(t *testing.T) {
	env := newProductEnv(t)
	ctx := context.Background()
	reserved := env.create(t, "Reserved coat", 12000)
	env.fx.SetProductStatus(reserved.ID, enums.ProductStatusReserved)

	expectCode(t, env.svc.DeleteProduct(ctx, env.seller.ID, reserved.ID), pkgerrors.CodeConflict)

	listed := env.create(t, "Old jeans", 4000)
	expectCode(t, env.svc.DeleteProduct(ctx, env.fx.User("Bruno").ID, listed.ID), pkgerrors.CodeForbidden)
	if err := env.svc.DeleteProduct(ctx, env.seller.ID, listed.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if env.fx.Reload(listed.ID).IsActive {
		t.Fatal("expected product to be inactive")
	}
	_, err := env.svc.GetProduct(ctx, listed.ID)
	expectCode(t, err, pkgerrors.CodeNotFound)
	expectCode(t, env.svc.DeleteProduct(ctx, env.seller.ID, listed.ID), pkgerrors.CodeNotFound)
}

func TestListProductsFiltersAndPages(t *testing.T) {
	env := newProductEnv(t)
	ctx := context.Background()
	env.create(t, "Red dress", 5000)
	env.create(t, "Blue dress", 15000)
	env.create(t, "Wool scarf", 2000)
	sold := env.create(t, "Sold dress", 7000)
	env.fx.SetProductStatus(sold.ID, enums.ProductStatusSold)

	all, err := env.svc.ListProducts(ctx, ListProductsInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all.Products) != 3 {
		t.Fatalf("expected 3 available products, got %d", len(all.Products))
	}

	maxPrice := int64(10000)
	dresses, err := env.svc.ListProducts(ctx, ListProductsInput{Filters: ProductListFilters{Query: "DRESS", MaxPrice: &maxPrice}})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(dresses.Products) != 1 || dresses.Products[0].Title != "Red dress" {
		t.Fatalf("unexpected filter result: %+v", dresses.Products)
	}

	first, err := env.svc.ListProducts(ctx, ListProductsInput{Pagination: pagination.Params{Limit: 2}})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(first.Products) != 2 || first.NextCursor == "" {
		t.Fatalf("expected a full first page with cursor, got %d %q", len(first.Products), first.NextCursor)
	}
	second, err := env.svc.ListProducts(ctx, ListProductsInput{Pagination: pagination.Params{Limit: 2, Cursor: first.NextCursor}})
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(second.Products) != 1 || second.NextCursor != "" {
		t.Fatalf("unexpected second page: %d %q", len(second.Products), second.NextCursor)
	}

	own, err := env.svc.ListProducts(ctx, ListProductsInput{SellerID: &env.seller.ID})
	if err != nil {
		t.Fatalf("own listings: %v", err)
	}
	if len(own.Products) != 4 {
		t.Fatalf("expected seller to see all 4 listings, got %d", len(own.Products))
	}

	minPrice := int64(20000)
	_, err = env.svc.ListProducts(ctx, ListProductsInput{Filters: ProductListFilters{MinPrice: &minPrice, MaxPrice: &maxPrice}})
	expectCode(t, err, pkgerrors.CodeValidation)
}
