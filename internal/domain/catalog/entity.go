// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"gorm.io/gorm"
)

// Category represents a product category
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`

	// Relationships
	Products []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

// Product represents the product entity
type Product struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"not null;size:255" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	Price         int64          `gorm:"not null;check:price >= 0" json:"price"` // Price in cents
	CategoryID    uint           `gorm:"not null;index" json:"category_id"`
	StockQuantity int            `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	ImageURL      string         `gorm:"size:500" json:"image_url"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
}

// RatingSummary holds review aggregates derived on demand for a product
type RatingSummary struct {
	AverageRating      float64     `json:"average_rating"`
	ReviewCount        int         `json:"review_count"`
	RatingDistribution map[int]int `json:"rating_distribution"`
}

// ProductResponse is a product with its derived rating aggregates
type ProductResponse struct {
	Product
	CategoryName string `json:"category_name"`
	RatingSummary
}

// TableName overrides
func (Category) TableName() string { return "categories" }
func (Product) TableName() string  { return "products" }

// IsInStock reports whether any units remain
func (p *Product) IsInStock() bool {
	return p.StockQuantity > 0
}

// GetFormattedPrice returns price as a float in major units
func (p *Product) GetFormattedPrice() float64 {
	return float64(p.Price) / 100
}
