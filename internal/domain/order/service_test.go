// internal/domain/order/service_test.go
package order

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/catalog"
	"github.com/your-org/storefront-api/internal/domain/user"
	"github.com/your-org/storefront-api/internal/pkg/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&user.User{},
		&user.Profile{},
		&catalog.Category{},
		&catalog.Product{},
		&cart.Cart{},
		&cart.CartItem{},
		&Order{},
		&OrderItem{},
	))

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{BcryptCost: 4},
	}
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(db, testConfig()), db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *user.User {
	t.Helper()
	u := &user.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "hashed",
		FirstName: "Test",
		LastName:  "User",
		IsActive:  true,
	}
	require.NoError(t, db.Create(u).Error)
	require.NoError(t, db.Create(&cart.Cart{UserID: u.ID}).Error)
	return u
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price int64, stock int) *catalog.Product {
	t.Helper()
	category := &catalog.Category{Name: "Category for " + name}
	require.NoError(t, db.Create(category).Error)

	p := &catalog.Product{
		Name:          name,
		Description:   "test product",
		Price:         price,
		CategoryID:    category.ID,
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func addToCart(t *testing.T, db *gorm.DB, userID, productID uint, quantity int) {
	t.Helper()
	var c cart.Cart
	require.NoError(t, db.Where("user_id = ?", userID).First(&c).Error)
	require.NoError(t, db.Create(&cart.CartItem{
		CartID:    c.ID,
		ProductID: productID,
		Quantity:  quantity,
	}).Error)
}

func TestCreateOrder(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "buyer")
	p := seedProduct(t, db, "Widget", 2500, 10)
	addToCart(t, db, u.ID, p.ID, 3)

	created, err := svc.CreateOrder(u.ID, &CreateOrderRequest{ShippingAddress: "1 Main St"})
	require.NoError(t, err)
	require.Equal(t, StatusPending, created.Status)
	require.EqualValues(t, 7500, created.TotalAmount)
	require.Equal(t, "1 Main St", created.ShippingAddress)
	require.Len(t, created.Items, 1)
	require.Equal(t, p.ID, created.Items[0].ProductID)
	require.Equal(t, "Widget", created.Items[0].Name)
	require.Equal(t, 3, created.Items[0].Quantity)
	require.EqualValues(t, 2500, created.Items[0].Price)

	// Stock was decremented
	var reloaded catalog.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	require.Equal(t, 7, reloaded.StockQuantity)

	// Cart was emptied
	var itemCount int64
	require.NoError(t, db.Model(&cart.CartItem{}).Count(&itemCount).Error)
	require.EqualValues(t, 0, itemCount)
}

func TestCreateOrderFreezesPrice(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "buyer")
	p := seedProduct(t, db, "Widget", 2500, 10)
	addToCart(t, db, u.ID, p.ID, 1)

	created, err := svc.CreateOrder(u.ID, &CreateOrderRequest{ShippingAddress: "1 Main St"})
	require.NoError(t, err)

	// Later catalog price changes must not touch the order
	require.NoError(t, db.Model(&catalog.Product{}).Where("id = ?", p.ID).
		Update("price", 9900).Error)

	reloaded, err := svc.GetUserOrder(u.ID, created.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2500, reloaded.Items[0].Price)
	require.EqualValues(t, 2500, reloaded.TotalAmount)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "buyer")

	_, err := svc.CreateOrder(u.ID, &CreateOrderRequest{ShippingAddress: "1 Main St"})
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCreateOrderMissingAddress(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "buyer")
	p := seedProduct(t, db, "Widget", 2500, 10)
	addToCart(t, db, u.ID, p.ID, 1)

	_, err := svc.CreateOrder(u.ID, &CreateOrderRequest{ShippingAddress: "   "})
	require.Error(t, err)
	require.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "buyer")
	cheap := seedProduct(t, db, "Cheap", 100, 10)
	scarce := seedProduct(t, db, "Scarce", 500, 2)
	addToCart(t, db, u.ID, cheap.ID, 1)
	addToCart(t, db, u.ID, scarce.ID, 3)

	_, err := svc.CreateOrder(u.ID, &CreateOrderRequest{ShippingAddress: "1 Main St"})
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// Nothing committed: stock untouched, cart intact, no orders
	var p1, p2 catalog.Product
	require.NoError(t, db.First(&p1, cheap.ID).Error)
	require.NoError(t, db.First(&p2, scarce.ID).Error)
	require.Equal(t, 10, p1.StockQuantity)
	require.Equal(t, 2, p2.StockQuantity)

	var itemCount, orderCount int64
	require.NoError(t, db.Model(&cart.CartItem{}).Count(&itemCount).Error)
	require.NoError(t, db.Model(&Order{}).Count(&orderCount).Error)
	require.EqualValues(t, 2, itemCount)
	require.EqualValues(t, 0, orderCount)
}

func TestCreateOrderInactiveProduct(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "buyer")
	p := seedProduct(t, db, "Widget", 2500, 10)
	addToCart(t, db, u.ID, p.ID, 1)

	require.NoError(t, db.Model(&catalog.Product{}).Where("id = ?", p.ID).
		Update("is_active", false).Error)

	_, err := svc.CreateOrder(u.ID, &CreateOrderRequest{ShippingAddress: "1 Main St"})
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCreateOrderLastUnitWinsOnce(t *testing.T) {
	svc, db := newTestService(t)

	first := seedUser(t, db, "first")
	second := seedUser(t, db, "second")
	p := seedProduct(t, db, "Limited", 5000, 1)
	addToCart(t, db, first.ID, p.ID, 1)
	addToCart(t, db, second.ID, p.ID, 1)

	_, err := svc.CreateOrder(first.ID, &CreateOrderRequest{ShippingAddress: "1 Main St"})
	require.NoError(t, err)

	_, err = svc.CreateOrder(second.ID, &CreateOrderRequest{ShippingAddress: "2 Main St"})
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	var reloaded catalog.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	require.Equal(t, 0, reloaded.StockQuantity)

	var orderCount int64
	require.NoError(t, db.Model(&Order{}).Count(&orderCount).Error)
	require.EqualValues(t, 1, orderCount)
}

func TestGetUserOrders(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "buyer")
	p := seedProduct(t, db, "Widget", 2500, 100)

	for i := 0; i < 3; i++ {
		addToCart(t, db, u.ID, p.ID, 1)
		_, err := svc.CreateOrder(u.ID, &CreateOrderRequest{ShippingAddress: "1 Main St"})
		require.NoError(t, err)
	}

	response, err := svc.GetUserOrders(u.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, response.Orders, 2)
	require.EqualValues(t, 3, response.Pagination.Total)
	require.Equal(t, 2, response.Pagination.TotalPages)
	require.True(t, response.Pagination.HasNext)
	require.False(t, response.Pagination.HasPrev)
}

func TestGetUserOrderOwnership(t *testing.T) {
	svc, db := newTestService(t)

	owner := seedUser(t, db, "owner")
	other := seedUser(t, db, "other")
	p := seedProduct(t, db, "Widget", 2500, 10)
	addToCart(t, db, owner.ID, p.ID, 1)

	created, err := svc.CreateOrder(owner.ID, &CreateOrderRequest{ShippingAddress: "1 Main St"})
	require.NoError(t, err)

	// Another user's order reads as not found
	_, err = svc.GetUserOrder(other.ID, created.ID)
	require.Error(t, err)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	found, err := svc.GetUserOrder(owner.ID, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
}

func TestUpdateStatusTransitions(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "buyer")
	p := seedProduct(t, db, "Widget", 2500, 10)
	addToCart(t, db, u.ID, p.ID, 1)

	created, err := svc.CreateOrder(u.ID, &CreateOrderRequest{ShippingAddress: "1 Main St"})
	require.NoError(t, err)

	// pending -> delivered is not allowed
	_, err = svc.UpdateStatus(created.ID, StatusDelivered)
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	updated, err := svc.UpdateStatus(created.ID, StatusProcessing)
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, updated.Status)

	updated, err = svc.UpdateStatus(created.ID, StatusShipped)
	require.NoError(t, err)
	require.Equal(t, StatusShipped, updated.Status)

	updated, err = svc.UpdateStatus(created.ID, StatusDelivered)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, updated.Status)

	// delivered is terminal
	_, err = svc.UpdateStatus(created.ID, StatusCancelled)
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestUpdateStatusCancelRestoresStock(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "buyer")
	p := seedProduct(t, db, "Widget", 2500, 10)
	addToCart(t, db, u.ID, p.ID, 4)

	created, err := svc.CreateOrder(u.ID, &CreateOrderRequest{ShippingAddress: "1 Main St"})
	require.NoError(t, err)

	var reloaded catalog.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	require.Equal(t, 6, reloaded.StockQuantity)

	updated, err := svc.UpdateStatus(created.ID, StatusCancelled)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, updated.Status)

	require.NoError(t, db.First(&reloaded, p.ID).Error)
	require.Equal(t, 10, reloaded.StockQuantity)
}

func TestUpdateStatusInvalid(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "buyer")
	p := seedProduct(t, db, "Widget", 2500, 10)
	addToCart(t, db, u.ID, p.ID, 1)

	created, err := svc.CreateOrder(u.ID, &CreateOrderRequest{ShippingAddress: "1 Main St"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(created.ID, Status("misplaced"))
	require.Error(t, err)
	require.Equal(t, apperr.KindInvalid, apperr.KindOf(err))

	_, err = svc.UpdateStatus(9999, StatusProcessing)
	require.Error(t, err)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
