// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/catalog"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/domain/review"
	"github.com/your-org/storefront-api/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		&user.User{},
		&user.Profile{},

		&catalog.Category{},
		&catalog.Product{},

		&cart.Cart{},
		&cart.CartItem{},

		&order.Order{},
		&order.OrderItem{},

		&review.Review{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("Creating additional database indexes...")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_username_active ON users(username, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order_product ON order_items(order_id, product_id)",

		"CREATE INDEX IF NOT EXISTS idx_reviews_product_created ON reviews(product_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_user_created ON reviews(user_id, created_at DESC)",
	}

	for _, index := range indexes {
		if err := m.db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	log.Println("Database indexes created successfully")
	return nil
}

// SeedInitialData seeds development data if the catalog is empty
func (m *Migration) SeedInitialData() error {
	var categoryCount int64
	m.db.Model(&catalog.Category{}).Count(&categoryCount)
	if categoryCount > 0 {
		return nil
	}

	log.Println("Seeding initial data...")

	categories := []catalog.Category{
		{Name: "Electronics", Description: "Phones, laptops and accessories"},
		{Name: "Books", Description: "Fiction and non-fiction"},
		{Name: "Clothing", Description: "Apparel for all seasons"},
	}
	for i := range categories {
		if err := m.db.Create(&categories[i]).Error; err != nil {
			return fmt.Errorf("failed to seed category: %w", err)
		}
	}

	products := []catalog.Product{
		{Name: "Wireless Headphones", Description: "Over-ear, noise cancelling", Price: 19999, CategoryID: categories[0].ID, StockQuantity: 50, IsActive: true},
		{Name: "Mechanical Keyboard", Description: "Tenkeyless, brown switches", Price: 8999, CategoryID: categories[0].ID, StockQuantity: 30, IsActive: true},
		{Name: "The Go Programming Language", Description: "Donovan & Kernighan", Price: 3999, CategoryID: categories[1].ID, StockQuantity: 100, IsActive: true},
		{Name: "Plain T-Shirt", Description: "100% cotton", Price: 1499, CategoryID: categories[2].ID, StockQuantity: 200, IsActive: true},
	}
	for i := range products {
		if err := m.db.Create(&products[i]).Error; err != nil {
			return fmt.Errorf("failed to seed product: %w", err)
		}
	}

	// Admin account for status management
	hashed, err := bcrypt.GenerateFromPassword([]byte("Admin123!store"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := user.User{
		Username:  "admin",
		Email:     "admin@example.com",
		Password:  string(hashed),
		FirstName: "Store",
		LastName:  "Admin",
		IsActive:  true,
		IsAdmin:   true,
	}
	if err := m.db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := m.db.Create(&user.Profile{UserID: admin.ID}).Error; err != nil {
		return fmt.Errorf("failed to seed admin profile: %w", err)
	}
	if err := m.db.Create(&cart.Cart{UserID: admin.ID}).Error; err != nil {
		return fmt.Errorf("failed to seed admin cart: %w", err)
	}

	log.Println("Initial data seeded successfully")
	return nil
}
