// internal/domain/order/service.go
package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/catalog"
	"github.com/your-org/storefront-api/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Service handles order business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
}

// UpdateStatusRequest represents an order status change
type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required"`
}

// OrderListResponse represents an order page with pagination
type OrderListResponse struct {
	Orders     []Order            `json:"orders"`
	Pagination catalog.Pagination `json:"pagination"`
}

// CreateOrder converts the user's cart into an order. The stock check,
// decrement, order/item creation and cart clearing run in one transaction;
// any failure rolls the whole operation back so partial state is never
// observable.
func (s *Service) CreateOrder(userID uint, req *CreateOrderRequest) (*Order, error) {
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return nil, apperr.Invalid("shipping address is required")
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	// Load the user's cart and items inside the transaction
	var userCart cart.Cart
	if err := tx.Where("user_id = ?", userID).First(&userCart).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Conflict("cart is empty")
		}
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	var items []cart.CartItem
	if err := tx.Preload("Product").Where("cart_id = ?", userCart.ID).Find(&items).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to retrieve cart items: %w", err)
	}

	if len(items) == 0 {
		tx.Rollback()
		return nil, apperr.Conflict("cart is empty")
	}

	// Take stock with a conditional decrement per item. Zero rows affected
	// means another checkout got there first or stock was short; either way
	// the whole order aborts and nothing is visible outside the transaction.
	var totalAmount int64
	orderItems := make([]OrderItem, 0, len(items))

	for i := range items {
		item := &items[i]

		if !item.Product.IsActive {
			tx.Rollback()
			return nil, apperr.Conflict("product no longer available: %s", item.Product.Name)
		}

		result := tx.Model(&catalog.Product{}).
			Where("id = ? AND stock_quantity >= ?", item.ProductID, item.Quantity).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))

		if result.Error != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to decrement stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			return nil, apperr.Conflict("insufficient stock: %s", item.Product.Name)
		}

		totalAmount += item.Product.Price * int64(item.Quantity)
		orderItems = append(orderItems, OrderItem{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Quantity:  item.Quantity,
			Price:     item.Product.Price, // Frozen at checkout
		})
	}

	newOrder := Order{
		UserID:          userID,
		Status:          StatusPending,
		TotalAmount:     totalAmount,
		ShippingAddress: req.ShippingAddress,
	}

	if err := tx.Create(&newOrder).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for i := range orderItems {
		orderItems[i].OrderID = newOrder.ID
		if err := tx.Create(&orderItems[i]).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
	}

	// Clear the cart in the same transaction
	if err := tx.Where("cart_id = ?", userCart.ID).Delete(&cart.CartItem{}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}

	// Load complete order with items
	if err := s.db.Preload("Items").First(&newOrder, newOrder.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load complete order: %w", err)
	}

	return &newOrder, nil
}

// GetUserOrders retrieves orders for a user with pagination
func (s *Service) GetUserOrders(userID uint, page, limit int) (*OrderListResponse, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&Order{}).Preload("Items").Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &OrderListResponse{
		Orders: orders,
		Pagination: catalog.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

// GetUserOrder retrieves a single order scoped to the requesting user.
// Another user's order is NotFound, never Forbidden.
func (s *Service) GetUserOrder(userID, orderID uint) (*Order, error) {
	var o Order
	result := s.db.Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&o)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}

	return &o, nil
}

// UpdateStatus transitions an order to a new status. Cancelling restores
// the reserved stock in the same transaction.
func (s *Service) UpdateStatus(orderID uint, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, apperr.Invalid("invalid order status: %s", status)
	}

	var o Order
	if err := s.db.First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}

	if !isValidTransition(o.Status, status) {
		return nil, apperr.Conflict("invalid status transition from %s to %s", o.Status, status)
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if status == StatusCancelled {
		if err := s.restoreStock(tx, orderID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Model(&o).Update("status", status).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	if err := s.db.Preload("Items").First(&o, o.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load updated order: %w", err)
	}
	return &o, nil
}

func (s *Service) restoreStock(tx *gorm.DB, orderID uint) error {
	var items []OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}

	for _, item := range items {
		result := tx.Model(&catalog.Product{}).
			Where("id = ?", item.ProductID).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity))
		if result.Error != nil {
			return fmt.Errorf("failed to restore stock: %w", result.Error)
		}
	}
	return nil
}

func isValidTransition(from, to Status) bool {
	validTransitions := map[Status][]Status{
		StatusPending:    {StatusProcessing, StatusCancelled},
		StatusProcessing: {StatusShipped, StatusCancelled},
		StatusShipped:    {StatusDelivered},
	}

	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
