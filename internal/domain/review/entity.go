// internal/domain/review/entity.go
package review

import (
	"time"
)

// Review is a user-authored product rating. One review per (user, product).
// Deletes are hard deletes: the unique (product, user) slot frees up so the
// user can review the product again.
type Review struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	ProductID          uint      `gorm:"not null;index:idx_reviews_product_user,unique" json:"product_id"`
	UserID             uint      `gorm:"not null;index:idx_reviews_product_user,unique" json:"user_id"`
	Rating             int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Title              string    `gorm:"size:255" json:"title"`
	Comment            string    `gorm:"type:text" json:"comment"`
	IsVerifiedPurchase bool      `gorm:"default:false" json:"is_verified_purchase"` // Captured at creation, not re-evaluated
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Response is a review with the reviewer and product names resolved
type Response struct {
	ID                 uint      `json:"id"`
	ProductID          uint      `json:"product_id"`
	ProductName        string    `json:"product_name"`
	UserID             uint      `json:"user_id"`
	UserName           string    `json:"user_name"`
	UserFirstName      string    `json:"user_first_name"`
	Rating             int       `json:"rating"`
	Title              string    `json:"title"`
	Comment            string    `json:"comment"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Review) TableName() string {
	return "reviews"
}

// CanBeModifiedBy reports whether userID owns the review
func (r *Review) CanBeModifiedBy(userID uint) bool {
	return r.UserID == userID
}
