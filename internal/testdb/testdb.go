// Package testdb builds isolated in-memory SQLite databases that mirror the
// Postgres schema closely enough for repository and service tests.
package testdb

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/roperito/roperito-backend/pkg/db/models"
	"github.com/roperito/roperito-backend/pkg/enums"
)

var schema = []string{
	`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  phone TEXT,
  is_active BOOLEAN NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT users_email_key UNIQUE (email)
)`,
	`CREATE TABLE addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  city TEXT,
  region TEXT,
  country TEXT,
  province TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT addresses_user_id_key UNIQUE (user_id)
)`,
	`CREATE TABLE categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  created_at DATETIME
)`,
	`CREATE TABLE sizes (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  category_id TEXT,
  created_at DATETIME
)`,
	`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  price INTEGER NOT NULL CHECK (price >= 0),
  category_id TEXT NOT NULL,
  size_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'available',
  is_active BOOLEAN NOT NULL DEFAULT 1,
  favorites_count INTEGER NOT NULL DEFAULT 0 CHECK (favorites_count >= 0),
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE product_images (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  url TEXT NOT NULL,
  display_order INTEGER NOT NULL DEFAULT 0,
  is_main BOOLEAN NOT NULL DEFAULT 0,
  created_at DATETIME
)`,
	`CREATE UNIQUE INDEX product_images_one_main_idx ON product_images (product_id) WHERE is_main`,
	`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  buyer_id TEXT NOT NULL,
  price INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  shipping_address TEXT,
  payment_method TEXT,
  cancellation_reason TEXT,
  cancelled_by TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT orders_buyer_not_seller CHECK (buyer_id <> seller_id)
)`,
	`CREATE UNIQUE INDEX orders_one_active_per_product_idx ON orders (product_id)
  WHERE status IN ('pending', 'confirmed', 'shipped')`,
	`CREATE TABLE inquiries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  message TEXT NOT NULL,
  seller_response TEXT,
  responded_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT inquiries_user_product_key UNIQUE (user_id, product_id)
)`,
	`CREATE TABLE ratings (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  buyer_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  value INTEGER NOT NULL CHECK (value BETWEEN 1 AND 5),
  comment TEXT,
  report_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT ratings_order_id_key UNIQUE (order_id)
)`,
	`CREATE TABLE rating_reports (
  id TEXT PRIMARY KEY,
  rating_id TEXT NOT NULL REFERENCES ratings(id) ON DELETE CASCADE,
  reported_by TEXT NOT NULL,
  reason TEXT NOT NULL,
  created_at DATETIME,
  CONSTRAINT rating_reports_rating_reporter_key UNIQUE (rating_id, reported_by)
)`,
	`CREATE TABLE favorites (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  created_at DATETIME,
  CONSTRAINT favorites_user_product_key UNIQUE (user_id, product_id)
)`,
}

// Open returns a fresh database named after the running test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_foreign_keys=on", name, uuid.NewString()[:8])
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

// Fixtures seeds rows with sensible defaults.
type Fixtures struct {
	t  *testing.T
	db *gorm.DB
}

func NewFixtures(t *testing.T, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db}
}

func (f *Fixtures) User(name string) *models.User {
	f.t.Helper()
	user := &models.User{
		Name:         name,
		Email:        strings.ToLower(name) + "-" + uuid.NewString()[:6] + "@example.com",
		PasswordHash: "hash",
		IsActive:     true,
	}
	require.NoError(f.t, f.db.Create(user).Error)
	return user
}

func (f *Fixtures) Category(name string) *models.Category {
	f.t.Helper()
	category := &models.Category{Name: name}
	require.NoError(f.t, f.db.Create(category).Error)
	return category
}

func (f *Fixtures) Size(name string, categoryID uuid.UUID) *models.Size {
	f.t.Helper()
	size := &models.Size{Name: name, CategoryID: &categoryID}
	require.NoError(f.t, f.db.Create(size).Error)
	return size
}

// Product creates an available listing owned by sellerID, with its own
// category and size, and one main image.
func (f *Fixtures) Product(sellerID uuid.UUID, title string, price int64) *models.Product {
	f.t.Helper()
	category := f.Category("cat-" + uuid.NewString()[:8])
	size := f.Size("M", category.ID)
	product := &models.Product{
		UserID:      sellerID,
		Title:       title,
		Description: title + " description",
		Price:       price,
		CategoryID:  category.ID,
		SizeID:      size.ID,
		Status:      enums.ProductStatusAvailable,
		IsActive:    true,
		Images: []models.ProductImage{
			{URL: "https://img.example.com/" + uuid.NewString() + ".jpg", DisplayOrder: 0, IsMain: true},
		},
	}
	require.NoError(f.t, f.db.Create(product).Error)
	return product
}

// Order inserts an order row directly, bypassing the reservation flow.
func (f *Fixtures) Order(product *models.Product, buyerID uuid.UUID, status enums.OrderStatus) *models.Order {
	f.t.Helper()
	order := &models.Order{
		ProductID: product.ID,
		SellerID:  product.UserID,
		BuyerID:   buyerID,
		Price:     product.Price,
		Status:    status,
	}
	require.NoError(f.t, f.db.Create(order).Error)
	return order
}

// SetProductStatus forces a listing into status.
func (f *Fixtures) SetProductStatus(productID uuid.UUID, status enums.ProductStatus) {
	f.t.Helper()
	require.NoError(f.t, f.db.Model(&models.Product{}).Where("id = ?", productID).Update("status", status).Error)
}

// Deactivate soft-deletes a listing.
func (f *Fixtures) Deactivate(productID uuid.UUID) {
	f.t.Helper()
	require.NoError(f.t, f.db.Model(&models.Product{}).Where("id = ?", productID).Update("is_active", false).Error)
}

// Reload reads a product back from the database.
func (f *Fixtures) Reload(productID uuid.UUID) *models.Product {
	f.t.Helper()
	var product models.Product
	require.NoError(f.t, f.db.First(&product, "id = ?", productID).Error)
	return &product
}
