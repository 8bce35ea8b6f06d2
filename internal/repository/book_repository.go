package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"bookreview/internal/model"
	"bookreview/internal/pagination"
)

// BookFilter narrows a book listing. Empty fields are ignored; set fields combine with AND.
// Author and Genre match their own column; Query matches title OR author.
// All comparisons are case-insensitive substring matches.
type BookFilter struct {
	Author string
	Genre  string
	Query  string
}

// BookRepository defines book persistence operations.
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	FindByID(ctx context.Context, id uint) (*model.Book, error)
	List(ctx context.Context, filter BookFilter, page pagination.Params) ([]model.Book, int64, error)
}

type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository.
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// Create creates a new book.
func (r *bookRepository) Create(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// FindByID finds a book by ID.
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns one page of matching books, newest first, and the total match count.
func (r *bookRepository) List(ctx context.Context, filter BookFilter, page pagination.Params) ([]model.Book, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Book{})
	if filter.Author != "" {
		query = query.Where("LOWER(author) LIKE ? ESCAPE '!'", containsPattern(filter.Author))
	}
	if filter.Genre != "" {
		query = query.Where("LOWER(genre) LIKE ? ESCAPE '!'", containsPattern(filter.Genre))
	}
	if filter.Query != "" {
		pattern := containsPattern(filter.Query)
		query = query.Where("LOWER(title) LIKE ? ESCAPE '!' OR LOWER(author) LIKE ? ESCAPE '!'", pattern, pattern)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []model.Book
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a lower-cased LIKE pattern that treats s literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
