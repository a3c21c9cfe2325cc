// internal/domain/cart/service.go
package cart

import (
	"errors"
	"fmt"

	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/catalog"
	"github.com/your-org/storefront-api/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Service handles cart business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// AddItemRequest represents add to cart request
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest represents update cart item request. Quantities below
// one are rejected; removal is the explicit remove operation.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// GetOrCreateCart returns the user's cart, creating an empty one if absent
func (s *Service) GetOrCreateCart(userID uint) (*Cart, error) {
	var c Cart
	result := s.db.Where("user_id = ?", userID).First(&c)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to retrieve cart: %w", result.Error)
		}
		c = Cart{UserID: userID}
		if err := s.db.Create(&c).Error; err != nil {
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}
	}
	return &c, nil
}

// GetCart returns the user's cart with items, product details and totals
func (s *Service) GetCart(userID uint) (*CartResponse, error) {
	c, err := s.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	var items []CartItem
	if err := s.db.Preload("Product").Preload("Product.Category").
		Where("cart_id = ?", c.ID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cart items: %w", err)
	}

	return s.buildCartResponse(c, items), nil
}

// AddItem adds a product to the user's cart. An existing line for the same
// product has its quantity incremented instead.
func (s *Service) AddItem(userID uint, req *AddItemRequest) (*CartResponse, error) {
	if req.Quantity < 1 {
		return nil, apperr.Invalid("quantity must be at least 1")
	}

	// Validate product exists and is active
	var product catalog.Product
	result := s.db.Where("id = ? AND is_active = ?", req.ProductID, true).First(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found or inactive")
		}
		return nil, fmt.Errorf("failed to load product: %w", result.Error)
	}

	c, err := s.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	var existing CartItem
	result = s.db.Where("cart_id = ? AND product_id = ?", c.ID, req.ProductID).First(&existing)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		item := CartItem{
			CartID:    c.ID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		}
		if err := s.db.Create(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to create cart item: %w", err)
		}
	} else if result.Error != nil {
		return nil, fmt.Errorf("failed to load cart item: %w", result.Error)
	} else {
		existing.Quantity += req.Quantity
		if err := s.db.Save(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
	}

	return s.GetCart(userID)
}

// UpdateItem overwrites the quantity of a cart line owned by the user
func (s *Service) UpdateItem(userID, itemID uint, req *UpdateItemRequest) (*CartResponse, error) {
	if req.Quantity < 1 {
		return nil, apperr.Invalid("quantity must be at least 1")
	}

	item, err := s.getOwnedItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(item).Update("quantity", req.Quantity).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return s.GetCart(userID)
}

// RemoveItem deletes a cart line owned by the user
func (s *Service) RemoveItem(userID, itemID uint) (*CartResponse, error) {
	item, err := s.getOwnedItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Delete(item).Error; err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}

	return s.GetCart(userID)
}

// ClearCart removes all items from the user's cart
func (s *Service) ClearCart(userID uint) error {
	c, err := s.GetOrCreateCart(userID)
	if err != nil {
		return err
	}
	return s.db.Where("cart_id = ?", c.ID).Delete(&CartItem{}).Error
}

// getOwnedItem loads a cart item only if it belongs to the user's cart.
// A miss is always NotFound so other users' items are never confirmed.
func (s *Service) getOwnedItem(userID, itemID uint) (*CartItem, error) {
	var item CartItem
	result := s.db.
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&item)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("cart item not found")
		}
		return nil, fmt.Errorf("failed to load cart item: %w", result.Error)
	}
	return &item, nil
}

func (s *Service) buildCartResponse(c *Cart, items []CartItem) *CartResponse {
	response := &CartResponse{
		ID:        c.ID,
		Items:     make([]CartItemResponse, len(items)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}

	for i := range items {
		item := &items[i]
		subtotal := item.Subtotal()
		response.Items[i] = CartItemResponse{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductName:  item.Product.Name,
			ProductPrice: item.Product.Price,
			Quantity:     item.Quantity,
			Subtotal:     subtotal,
			Product:      &item.Product,
		}
		response.TotalPrice += subtotal
		response.TotalItems += item.Quantity
	}

	return response
}
