// internal/domain/review/service.go
package review

import (
	"errors"
	"fmt"
	"strings"

	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/catalog"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Service handles review business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new review service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateReviewRequest represents review creation data
type CreateReviewRequest struct {
	ProductID uint   `json:"product" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Title     string `json:"title"`
	Comment   string `json:"comment"`
}

// UpdateReviewRequest represents a partial review update
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Title   *string `json:"title"`
	Comment *string `json:"comment"`
}

// CreateReview creates a product review. The verified-purchase flag is
// computed from the user's order history at creation time and frozen.
func (s *Service) CreateReview(userID uint, req *CreateReviewRequest) (*Response, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperr.Invalid("rating must be between 1 and 5")
	}

	// Verify product exists and is active
	var product catalog.Product
	if err := s.db.Where("id = ? AND is_active = ?", req.ProductID, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found or inactive")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	// One review per (user, product)
	var existing Review
	result := s.db.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&existing)
	if result.Error == nil {
		return nil, apperr.Conflict("you have already reviewed this product")
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing review: %w", result.Error)
	}

	hasPurchased, err := s.hasQualifyingPurchase(userID, req.ProductID)
	if err != nil {
		return nil, err
	}

	r := Review{
		ProductID:          req.ProductID,
		UserID:             userID,
		Rating:             req.Rating,
		Title:              strings.TrimSpace(req.Title),
		Comment:            strings.TrimSpace(req.Comment),
		IsVerifiedPurchase: hasPurchased,
	}

	if err := s.db.Create(&r).Error; err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	return s.buildResponse(&r), nil
}

// UpdateReview updates a review owned by the user. The verified-purchase
// flag is never re-evaluated.
func (s *Service) UpdateReview(userID, reviewID uint, req *UpdateReviewRequest) (*Response, error) {
	r, err := s.getOwnedReview(userID, reviewID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Rating != nil {
		if *req.Rating < 1 || *req.Rating > 5 {
			return nil, apperr.Invalid("rating must be between 1 and 5")
		}
		updates["rating"] = *req.Rating
	}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Comment != nil {
		updates["comment"] = strings.TrimSpace(*req.Comment)
	}

	if len(updates) > 0 {
		if err := s.db.Model(r).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update review: %w", err)
		}
	}

	return s.buildResponse(r), nil
}

// DeleteReview deletes a review owned by the user
func (s *Service) DeleteReview(userID, reviewID uint) error {
	r, err := s.getOwnedReview(userID, reviewID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(r).Error; err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

// GetProductReviews lists reviews for a product
func (s *Service) GetProductReviews(productID uint) ([]Response, error) {
	// Product must exist and be active
	var product catalog.Product
	if err := s.db.Where("id = ? AND is_active = ?", productID, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found or inactive")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	var reviews []Review
	if err := s.db.Where("product_id = ?", productID).
		Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve reviews: %w", err)
	}

	return s.buildResponses(reviews), nil
}

// GetUserReviews lists reviews authored by the user
func (s *Service) GetUserReviews(userID uint) ([]Response, error) {
	var reviews []Review
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve reviews: %w", err)
	}

	return s.buildResponses(reviews), nil
}

// hasQualifyingPurchase reports whether the user has an order item for the
// product on an order that made it past pending.
func (s *Service) hasQualifyingPurchase(userID, productID uint) (bool, error) {
	var count int64
	err := s.db.Table("order_items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ? AND orders.status IN ?",
			userID, productID,
			[]order.Status{order.StatusProcessing, order.StatusShipped, order.StatusDelivered}).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check purchase history: %w", err)
	}
	return count > 0, nil
}

// getOwnedReview loads a review only if the user owns it. A miss is always
// NotFound so other users' reviews are never confirmed.
func (s *Service) getOwnedReview(userID, reviewID uint) (*Review, error) {
	var r Review
	result := s.db.Where("id = ? AND user_id = ?", reviewID, userID).First(&r)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("review not found")
		}
		return nil, fmt.Errorf("failed to load review: %w", result.Error)
	}
	return &r, nil
}

func (s *Service) buildResponse(r *Review) *Response {
	response := &Response{
		ID:                 r.ID,
		ProductID:          r.ProductID,
		UserID:             r.UserID,
		Rating:             r.Rating,
		Title:              r.Title,
		Comment:            r.Comment,
		IsVerifiedPurchase: r.IsVerifiedPurchase,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}

	var u struct {
		Username  string
		FirstName string
	}
	s.db.Table("users").Select("username, first_name").Where("id = ?", r.UserID).Scan(&u)
	response.UserName = u.Username
	response.UserFirstName = u.FirstName

	var productName string
	s.db.Table("products").Select("name").Where("id = ?", r.ProductID).Scan(&productName)
	response.ProductName = productName

	return response
}

func (s *Service) buildResponses(reviews []Review) []Response {
	responses := make([]Response, len(reviews))
	for i := range reviews {
		responses[i] = *s.buildResponse(&reviews[i])
	}
	return responses
}
