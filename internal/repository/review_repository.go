package repository

import (
	"context"

	"gorm.io/gorm"

	"bookreview/internal/model"
	"bookreview/internal/pagination"
)

// RatingSummary holds the raw aggregate of a book's ratings.
type RatingSummary struct {
	Count int64 `gorm:"column:review_count"`
	Sum   int64 `gorm:"column:rating_sum"`
}

// ReviewRepository defines review persistence operations.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id uint) (*model.Review, error)
	FindByUserAndBook(ctx context.Context, userID, bookID uint) (*model.Review, error)
	ListByBook(ctx context.Context, bookID uint, page pagination.Params) ([]model.Review, int64, error)
	SummarizeRatings(ctx context.Context, bookID uint) (RatingSummary, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new review repository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create inserts a review. A second review for the same (user, book) pair fails with
// gorm.ErrDuplicatedKey; an unknown book fails with gorm.ErrForeignKeyViolated.
func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// Update saves every column of an existing review.
func (r *reviewRepository) Update(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *reviewRepository) Delete(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Delete(review).Error
}

func (r *reviewRepository) FindByID(ctx context.Context, id uint) (*model.Review, error) {
	var review model.Review
	if err := r.db.WithContext(ctx).First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) FindByUserAndBook(ctx context.Context, userID, bookID uint) (*model.Review, error) {
	var review model.Review
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ListByBook returns one page of a book's reviews, newest first, each with the
// reviewer's id and username.
func (r *reviewRepository) ListByBook(ctx context.Context, bookID uint, page pagination.Params) ([]model.Review, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("book_id = ?", bookID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []model.Review
	if err := query.
		Preload("User", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "username")
		}).
		Order("created_at DESC").
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// SummarizeRatings returns the number and sum of ratings for a book.
func (r *reviewRepository) SummarizeRatings(ctx context.Context, bookID uint) (RatingSummary, error) {
	var summary RatingSummary
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("COUNT(*) AS review_count, COALESCE(SUM(rating), 0) AS rating_sum").
		Where("book_id = ?", bookID).
		Scan(&summary).Error
	return summary, err
}
