package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "bookreview/internal/errors"
	"bookreview/internal/logger"
	"bookreview/internal/model"
	"bookreview/internal/pagination"
	"bookreview/internal/repository"
)

// CreateBookInput carries the fields of a new book.
type CreateBookInput struct {
	Title       string
	Author      string
	Genre       string
	Description *string
}

// BookDetail is a book with its rating summary and one page of its reviews.
type BookDetail struct {
	Book          *model.Book
	AverageRating decimal.Decimal
	Reviews       pagination.Page[model.Review]
}

// BookService handles the book catalog.
type BookService interface {
	CreateBook(ctx context.Context, callerID uint, input CreateBookInput) (*model.Book, error)
	ListBooks(ctx context.Context, author, genre string, page pagination.Params) (pagination.Page[model.Book], error)
	GetBook(ctx context.Context, id uint, reviewPage pagination.Params) (*BookDetail, error)
	SearchBooks(ctx context.Context, query string, page pagination.Params) (pagination.Page[model.Book], error)
}

type bookService struct {
	bookRepo   repository.BookRepository
	reviewRepo repository.ReviewRepository
	log        logger.Logger
}

// NewBookService creates a new book service.
func NewBookService(bookRepo repository.BookRepository, reviewRepo repository.ReviewRepository, log logger.Logger) BookService {
	return &bookService{
		bookRepo:   bookRepo,
		reviewRepo: reviewRepo,
		log:        log.WithFields(map[string]interface{}{"component": "book_service"}),
	}
}

func (s *bookService) CreateBook(ctx context.Context, callerID uint, input CreateBookInput) (*model.Book, error) {
	book := &model.Book{
		Title:       strings.TrimSpace(input.Title),
		Author:      strings.TrimSpace(input.Author),
		Genre:       strings.TrimSpace(input.Genre),
		Description: input.Description,
		CreatedBy:   callerID,
	}
	if book.Title == "" || book.Author == "" || book.Genre == "" {
		return nil, apperrors.ErrBookFieldsRequired
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		// The caller was deleted after authenticating.
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, apperrors.ErrTokenUserNotFound
		}
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.log.Info("book created", map[string]interface{}{"book_id": book.ID, "user_id": callerID})
	return book, nil
}

func (s *bookService) ListBooks(ctx context.Context, author, genre string, page pagination.Params) (pagination.Page[model.Book], error) {
	filter := repository.BookFilter{
		Author: strings.TrimSpace(author),
		Genre:  strings.TrimSpace(genre),
	}
	return s.list(ctx, filter, page)
}

// SearchBooks matches title or author. A blank query is rejected.
func (s *bookService) SearchBooks(ctx context.Context, query string, page pagination.Params) (pagination.Page[model.Book], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return pagination.Page[model.Book]{}, apperrors.ErrQueryRequired
	}
	return s.list(ctx, repository.BookFilter{Query: query}, page)
}

func (s *bookService) list(ctx context.Context, filter repository.BookFilter, page pagination.Params) (pagination.Page[model.Book], error) {
	books, total, err := s.bookRepo.List(ctx, filter, page)
	if err != nil {
		return pagination.Page[model.Book]{}, fmt.Errorf("list books: %w", err)
	}
	return pagination.NewPage(books, total, page), nil
}

// GetBook returns the book, its average rating rounded to two places (zero without
// reviews) and one page of reviews, newest first.
func (s *bookService) GetBook(ctx context.Context, id uint, reviewPage pagination.Params) (*BookDetail, error) {
	book, err := s.bookRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}

	summary, err := s.reviewRepo.SummarizeRatings(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("summarize ratings: %w", err)
	}

	reviews, total, err := s.reviewRepo.ListByBook(ctx, id, reviewPage)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	return &BookDetail{
		Book:          book,
		AverageRating: averageRating(summary),
		Reviews:       pagination.NewPage(reviews, total, reviewPage),
	}, nil
}

func averageRating(summary repository.RatingSummary) decimal.Decimal {
	if summary.Count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(summary.Sum).
		Div(decimal.NewFromInt(summary.Count)).
		Round(2)
}
