// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/your-org/storefront-api/internal/domain/catalog"
)

// Cart is the per-user pre-checkout aggregate, created at registration
type Cart struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// CartItem is a (cart, product) line, unique per cart
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;index:idx_cart_items_cart_product,unique" json:"cart_id"`
	ProductID uint      `gorm:"not null;index:idx_cart_items_cart_product,unique" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1;check:quantity >= 1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Product catalog.Product `gorm:"foreignKey:ProductID" json:"product"`
}

// CartItemResponse is a cart line with product details and derived subtotal
type CartItemResponse struct {
	ID           uint             `json:"id"`
	ProductID    uint             `json:"product_id"`
	ProductName  string           `json:"product_name"`
	ProductPrice int64            `json:"product_price"`
	Quantity     int              `json:"quantity"`
	Subtotal     int64            `json:"subtotal"`
	Product      *catalog.Product `json:"product,omitempty"`
}

// CartResponse is a cart with items and derived totals
type CartResponse struct {
	ID         uint               `json:"id"`
	Items      []CartItemResponse `json:"items"`
	TotalPrice int64              `json:"total_price"`
	TotalItems int                `json:"total_items"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// TableName overrides
func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }

// Subtotal is the product price times quantity
func (i *CartItem) Subtotal() int64 {
	return i.Product.Price * int64(i.Quantity)
}
