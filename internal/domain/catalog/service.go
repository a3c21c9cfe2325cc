// internal/domain/catalog/service.go
package catalog

import (
	"errors"
	"fmt"
	"math"

	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Service handles catalog read operations. The catalog is mutated only by
// seed/admin tooling, so everything here is query-shaped.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=20"`
	CategoryID uint   `form:"category_id"`
	Search     string `form:"search"`
}

// ProductListResponse represents a product page with pagination
type ProductListResponse struct {
	Products   []ProductResponse `json:"products"`
	Pagination Pagination        `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// GetProducts retrieves active products with optional filtering
func (s *Service) GetProducts(req *ProductListRequest) (*ProductListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&Product{}).
		Preload("Category").
		Where("is_active = ?", true)

	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}

	if req.Search != "" {
		searchTerm := "%" + req.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = s.buildProductResponse(&products[i])
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ProductListResponse{
		Products: responses,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// GetProduct retrieves a single active product by ID
func (s *Service) GetProduct(id uint) (*ProductResponse, error) {
	var product Product
	result := s.db.Preload("Category").
		Where("id = ? AND is_active = ?", id, true).
		First(&product)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	response := s.buildProductResponse(&product)
	return &response, nil
}

// GetCategories lists all categories
func (s *Service) GetCategories() ([]Category, error) {
	var categories []Category
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}

// GetRatingSummary computes review aggregates for a product on demand
func (s *Service) GetRatingSummary(productID uint) RatingSummary {
	summary := RatingSummary{
		RatingDistribution: make(map[int]int),
	}

	type ratingCount struct {
		Rating int
		Count  int
	}

	var counts []ratingCount
	s.db.Table("reviews").
		Select("rating, COUNT(*) as count").
		Where("product_id = ?", productID).
		Group("rating").
		Scan(&counts)

	var total, sum int
	for i := 1; i <= 5; i++ {
		summary.RatingDistribution[i] = 0
	}
	for _, rc := range counts {
		summary.RatingDistribution[rc.Rating] = rc.Count
		total += rc.Count
		sum += rc.Rating * rc.Count
	}

	summary.ReviewCount = total
	if total > 0 {
		avg := float64(sum) / float64(total)
		summary.AverageRating = math.Round(avg*100) / 100
	}

	return summary
}

func (s *Service) buildProductResponse(product *Product) ProductResponse {
	return ProductResponse{
		Product:       *product,
		CategoryName:  product.Category.Name,
		RatingSummary: s.GetRatingSummary(product.ID),
	}
}
