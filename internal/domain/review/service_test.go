// internal/domain/review/service_test.go
package review

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/catalog"
	"github.com/your-org/storefront-api/internal/domain/order"
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
		&catalog.Category{},
		&catalog.Product{},
		&order.Order{},
		&order.OrderItem{},
		&Review{},
	))

	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(db, &config.Config{}), db
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
	return u
}

func seedProduct(t *testing.T, db *gorm.DB, name string) *catalog.Product {
	t.Helper()
	category := &catalog.Category{Name: "Category for " + name}
	require.NoError(t, db.Create(category).Error)

	p := &catalog.Product{
		Name:          name,
		Description:   "test product",
		Price:         1000,
		CategoryID:    category.ID,
		StockQuantity: 10,
		IsActive:      true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedOrder(t *testing.T, db *gorm.DB, userID, productID uint, status order.Status) {
	t.Helper()
	o := &order.Order{
		UserID:          userID,
		Status:          status,
		TotalAmount:     1000,
		ShippingAddress: "1 Main St",
	}
	require.NoError(t, db.Create(o).Error)
	require.NoError(t, db.Create(&order.OrderItem{
		OrderID:   o.ID,
		ProductID: productID,
		Name:      "ordered product",
		Quantity:  1,
		Price:     1000,
	}).Error)
}

func TestCreateReview(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "reviewer")
	p := seedProduct(t, db, "Widget")

	created, err := svc.CreateReview(u.ID, &CreateReviewRequest{
		ProductID: p.ID,
		Rating:    4,
		Title:     "Solid",
		Comment:   "Does what it says",
	})
	require.NoError(t, err)
	require.Equal(t, 4, created.Rating)
	require.Equal(t, "Solid", created.Title)
	require.Equal(t, "reviewer", created.UserName)
	require.Equal(t, "Widget", created.ProductName)
	require.False(t, created.IsVerifiedPurchase)
}

func TestCreateReviewVerifiedPurchase(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "reviewer")
	p := seedProduct(t, db, "Widget")
	seedOrder(t, db, u.ID, p.ID, order.StatusProcessing)

	created, err := svc.CreateReview(u.ID, &CreateReviewRequest{
		ProductID: p.ID,
		Rating:    5,
	})
	require.NoError(t, err)
	require.True(t, created.IsVerifiedPurchase)
}

func TestCreateReviewPendingOrderNotVerified(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "reviewer")
	p := seedProduct(t, db, "Widget")
	seedOrder(t, db, u.ID, p.ID, order.StatusPending)

	created, err := svc.CreateReview(u.ID, &CreateReviewRequest{
		ProductID: p.ID,
		Rating:    5,
	})
	require.NoError(t, err)
	require.False(t, created.IsVerifiedPurchase)
}

func TestCreateReviewInvalidRating(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "reviewer")
	p := seedProduct(t, db, "Widget")

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.CreateReview(u.ID, &CreateReviewRequest{
			ProductID: p.ID,
			Rating:    rating,
		})
		require.Error(t, err)
		require.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	}
}

func TestCreateReviewDuplicate(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "reviewer")
	p := seedProduct(t, db, "Widget")

	_, err := svc.CreateReview(u.ID, &CreateReviewRequest{ProductID: p.ID, Rating: 4})
	require.NoError(t, err)

	_, err = svc.CreateReview(u.ID, &CreateReviewRequest{ProductID: p.ID, Rating: 5})
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCreateReviewUnknownProduct(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "reviewer")

	_, err := svc.CreateReview(u.ID, &CreateReviewRequest{ProductID: 9999, Rating: 4})
	require.Error(t, err)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateReview(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "reviewer")
	p := seedProduct(t, db, "Widget")
	seedOrder(t, db, u.ID, p.ID, order.StatusDelivered)

	created, err := svc.CreateReview(u.ID, &CreateReviewRequest{
		ProductID: p.ID,
		Rating:    2,
		Title:     "Meh",
	})
	require.NoError(t, err)
	require.True(t, created.IsVerifiedPurchase)

	rating := 4
	title := "Better than I thought"
	updated, err := svc.UpdateReview(u.ID, created.ID, &UpdateReviewRequest{
		Rating: &rating,
		Title:  &title,
	})
	require.NoError(t, err)
	require.Equal(t, 4, updated.Rating)
	require.Equal(t, "Better than I thought", updated.Title)

	// Verified-purchase flag stays frozen across updates
	require.True(t, updated.IsVerifiedPurchase)
}

func TestUpdateReviewInvalidRating(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "reviewer")
	p := seedProduct(t, db, "Widget")

	created, err := svc.CreateReview(u.ID, &CreateReviewRequest{ProductID: p.ID, Rating: 3})
	require.NoError(t, err)

	rating := 0
	_, err = svc.UpdateReview(u.ID, created.ID, &UpdateReviewRequest{Rating: &rating})
	require.Error(t, err)
	require.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestUpdateReviewOwnership(t *testing.T) {
	svc, db := newTestService(t)

	owner := seedUser(t, db, "owner")
	other := seedUser(t, db, "other")
	p := seedProduct(t, db, "Widget")

	created, err := svc.CreateReview(owner.ID, &CreateReviewRequest{ProductID: p.ID, Rating: 4})
	require.NoError(t, err)

	rating := 1
	_, err = svc.UpdateReview(other.ID, created.ID, &UpdateReviewRequest{Rating: &rating})
	require.Error(t, err)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteReview(t *testing.T) {
	svc, db := newTestService(t)

	owner := seedUser(t, db, "owner")
	other := seedUser(t, db, "other")
	p := seedProduct(t, db, "Widget")

	created, err := svc.CreateReview(owner.ID, &CreateReviewRequest{ProductID: p.ID, Rating: 4})
	require.NoError(t, err)

	err = svc.DeleteReview(other.ID, created.ID)
	require.Error(t, err)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.NoError(t, svc.DeleteReview(owner.ID, created.ID))

	reviews, err := svc.GetProductReviews(p.ID)
	require.NoError(t, err)
	require.Empty(t, reviews)
}

func TestDeleteReviewFreesSlotForNewReview(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "reviewer")
	p := seedProduct(t, db, "Widget")

	created, err := svc.CreateReview(u.ID, &CreateReviewRequest{ProductID: p.ID, Rating: 2})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteReview(u.ID, created.ID))

	// Deleting releases the one-review-per-product slot
	recreated, err := svc.CreateReview(u.ID, &CreateReviewRequest{ProductID: p.ID, Rating: 5})
	require.NoError(t, err)
	require.Equal(t, 5, recreated.Rating)

	reviews, err := svc.GetProductReviews(p.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
}

func TestGetProductReviews(t *testing.T) {
	svc, db := newTestService(t)

	p := seedProduct(t, db, "Widget")
	for i, rating := range []int{5, 3, 4} {
		u := seedUser(t, db, "reviewer"+string(rune('a'+i)))
		_, err := svc.CreateReview(u.ID, &CreateReviewRequest{ProductID: p.ID, Rating: rating})
		require.NoError(t, err)
	}

	reviews, err := svc.GetProductReviews(p.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 3)
}

func TestGetProductReviewsInactiveProduct(t *testing.T) {
	svc, db := newTestService(t)

	p := seedProduct(t, db, "Widget")
	require.NoError(t, db.Model(&catalog.Product{}).Where("id = ?", p.ID).
		Update("is_active", false).Error)

	_, err := svc.GetProductReviews(p.ID)
	require.Error(t, err)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGetUserReviews(t *testing.T) {
	svc, db := newTestService(t)

	u := seedUser(t, db, "reviewer")
	first := seedProduct(t, db, "First")
	second := seedProduct(t, db, "Second")

	_, err := svc.CreateReview(u.ID, &CreateReviewRequest{ProductID: first.ID, Rating: 5})
	require.NoError(t, err)
	_, err = svc.CreateReview(u.ID, &CreateReviewRequest{ProductID: second.ID, Rating: 2})
	require.NoError(t, err)

	reviews, err := svc.GetUserReviews(u.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	for _, r := range reviews {
		require.Equal(t, u.ID, r.UserID)
	}
}
