package model

import (
	"time"

	"gorm.io/gorm"

	"bookreview/internal/errors"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a single user's rating of a book. (UserID, BookID) is unique.
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Rating    int       `json:"rating" gorm:"not null;check:chk_reviews_rating,rating >= 1 AND rating <= 5"`
	Comment   *string   `json:"comment" gorm:"type:text"`
	UserID    uint      `json:"userId" gorm:"not null;uniqueIndex:idx_reviews_user_book"`
	BookID    uint      `json:"bookId" gorm:"not null;uniqueIndex:idx_reviews_user_book;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Book *Book `json:"-" gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
}

// ValidRating reports whether r is within the accepted star range.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// BeforeSave rejects out-of-range ratings on every insert and update.
func (r *Review) BeforeSave(tx *gorm.DB) error {
	if !ValidRating(r.Rating) {
		return errors.ErrInvalidRating
	}
	return nil
}
