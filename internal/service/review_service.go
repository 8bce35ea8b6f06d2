package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "bookreview/internal/errors"
	"bookreview/internal/logger"
	"bookreview/internal/metrics"
	"bookreview/internal/model"
	"bookreview/internal/repository"
)

// CreateReviewInput carries the fields of a new review.
type CreateReviewInput struct {
	Rating  int
	Comment *string
}

// UpdateReviewInput carries a partial review update. Nil fields are left unchanged.
type UpdateReviewInput struct {
	Rating  *int
	Comment *string
}

// ReviewService handles review writes. Reads go through BookService.
type ReviewService interface {
	CreateReview(ctx context.Context, callerID, bookID uint, input CreateReviewInput) (*model.Review, error)
	UpdateReview(ctx context.Context, callerID, reviewID uint, input UpdateReviewInput) (*model.Review, error)
	DeleteReview(ctx context.Context, callerID, reviewID uint) error
}

type reviewService struct {
	bookRepo   repository.BookRepository
	reviewRepo repository.ReviewRepository
	log        logger.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(bookRepo repository.BookRepository, reviewRepo repository.ReviewRepository, log logger.Logger) ReviewService {
	return &reviewService{
		bookRepo:   bookRepo,
		reviewRepo: reviewRepo,
		log:        log.WithFields(map[string]interface{}{"component": "review_service"}),
	}
}

// CreateReview adds the caller's review of a book. Each user reviews a book at most once.
func (s *reviewService) CreateReview(ctx context.Context, callerID, bookID uint, input CreateReviewInput) (*model.Review, error) {
	if _, err := s.bookRepo.FindByID(ctx, bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}

	// Advisory; the unique index on (user_id, book_id) decides races.
	existing, err := s.reviewRepo.FindByUserAndBook(ctx, callerID, bookID)
	if err == nil && existing != nil {
		return nil, apperrors.ErrReviewAlreadyExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing review: %w", err)
	}

	if !model.ValidRating(input.Rating) {
		return nil, apperrors.ErrInvalidRating
	}

	review := &model.Review{
		Rating:  input.Rating,
		Comment: input.Comment,
		UserID:  callerID,
		BookID:  bookID,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, apperrors.ErrReviewAlreadyExists
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return nil, apperrors.ErrBookNotFound
		case errors.Is(err, apperrors.ErrInvalidRating):
			return nil, err
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	metrics.RecordReviewWrite(metrics.OperationCreate)
	s.log.Info("review created", map[string]interface{}{"review_id": review.ID, "book_id": bookID, "user_id": callerID})
	return review, nil
}

// UpdateReview applies the supplied fields to the caller's own review.
func (s *reviewService) UpdateReview(ctx context.Context, callerID, reviewID uint, input UpdateReviewInput) (*model.Review, error) {
	review, err := s.ownedReview(ctx, callerID, reviewID)
	if err != nil {
		return nil, err
	}

	if input.Rating != nil {
		if !model.ValidRating(*input.Rating) {
			return nil, apperrors.ErrInvalidRating
		}
		review.Rating = *input.Rating
	}
	if input.Comment != nil {
		review.Comment = input.Comment
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		if errors.Is(err, apperrors.ErrInvalidRating) {
			return nil, err
		}
		return nil, fmt.Errorf("update review: %w", err)
	}

	metrics.RecordReviewWrite(metrics.OperationUpdate)
	return review, nil
}

// DeleteReview removes the caller's own review.
func (s *reviewService) DeleteReview(ctx context.Context, callerID, reviewID uint) error {
	review, err := s.ownedReview(ctx, callerID, reviewID)
	if err != nil {
		return err
	}

	if err := s.reviewRepo.Delete(ctx, review); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	metrics.RecordReviewWrite(metrics.OperationDelete)
	s.log.Info("review deleted", map[string]interface{}{"review_id": reviewID, "user_id": callerID})
	return nil
}

func (s *reviewService) ownedReview(ctx context.Context, callerID, reviewID uint) (*model.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrReviewNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	if review.UserID != callerID {
		return nil, apperrors.ErrNotReviewAuthor
	}
	return review, nil
}
