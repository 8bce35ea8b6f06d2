package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bookreview/internal/logger"
	"bookreview/internal/model"
	"bookreview/internal/pagination"
	"bookreview/internal/service"
)

// BookHandler handles catalog endpoints.
type BookHandler struct {
	bookService service.BookService
	log         logger.Logger
}

// NewBookHandler creates a new book handler.
func NewBookHandler(bookService service.BookService, log logger.Logger) *BookHandler {
	return &BookHandler{bookService: bookService, log: log}
}

// CreateBookRequest represents a new book.
type CreateBookRequest struct {
	Title       string  `json:"title" validate:"required"`
	Author      string  `json:"author" validate:"required"`
	Genre       string  `json:"genre" validate:"required"`
	Description *string `json:"description"`
}

// BookDetailResponse is a book with its average rating and a page of reviews.
// AverageRating always has two decimals, e.g. "4.00".
type BookDetailResponse struct {
	Book          *model.Book                   `json:"book"`
	AverageRating string                        `json:"averageRating"`
	Reviews       pagination.Page[model.Review] `json:"reviews"`
}

func pageFrom(c echo.Context) pagination.Params {
	return pagination.Parse(c.QueryParam("page"), c.QueryParam("limit"))
}

// CreateBook godoc
// @Summary Add a book to the catalog
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBookRequest true "Book data"
// @Success 201 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /books [post]
func (h *BookHandler) CreateBook(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return RespondError(c, h.log, err)
	}

	var req CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	if err := c.Validate(&req); err != nil {
		return validationFailed(err)
	}

	book, err := h.bookService.CreateBook(c.Request().Context(), caller.UserID, service.CreateBookInput{
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Description: req.Description,
	})
	if err != nil {
		return RespondError(c, h.log, err)
	}

	return c.JSON(http.StatusCreated, book)
}

// ListBooks godoc
// @Summary List books
// @Description Case-insensitive substring filters on author and genre, newest first.
// @Tags books
// @Produce json
// @Param author query string false "Author filter"
// @Param genre query string false "Genre filter"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} pagination.Page[model.Book]
// @Failure 500 {object} errors.ErrorResponse
// @Router /books [get]
func (h *BookHandler) ListBooks(c echo.Context) error {
	page, err := h.bookService.ListBooks(c.Request().Context(), c.QueryParam("author"), c.QueryParam("genre"), pageFrom(c))
	if err != nil {
		return RespondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, page)
}

// GetBook godoc
// @Summary Get a book with its average rating and reviews
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Param page query int false "Review page number" default(1)
// @Param limit query int false "Review page size" default(10)
// @Success 200 {object} BookDetailResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /books/{id} [get]
func (h *BookHandler) GetBook(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	detail, err := h.bookService.GetBook(c.Request().Context(), id, pageFrom(c))
	if err != nil {
		return RespondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, BookDetailResponse{
		Book:          detail.Book,
		AverageRating: detail.AverageRating.StringFixed(2),
		Reviews:       detail.Reviews,
	})
}

// SearchBooks godoc
// @Summary Search books by title or author
// @Tags books
// @Produce json
// @Param q query string true "Search text"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} pagination.Page[model.Book]
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /search [get]
func (h *BookHandler) SearchBooks(c echo.Context) error {
	page, err := h.bookService.SearchBooks(c.Request().Context(), c.QueryParam("q"), pageFrom(c))
	if err != nil {
		return RespondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, page)
}
