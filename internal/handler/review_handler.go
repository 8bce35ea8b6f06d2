package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bookreview/internal/logger"
	"bookreview/internal/service"
)

// ReviewHandler handles review endpoints.
type ReviewHandler struct {
	reviewService service.ReviewService
	log           logger.Logger
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(reviewService service.ReviewService, log logger.Logger) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, log: log}
}

// CreateReviewRequest represents a new review. Rating must be 1..5.
type CreateReviewRequest struct {
	Rating  *int    `json:"rating" validate:"required"`
	Comment *string `json:"comment"`
}

// UpdateReviewRequest represents a partial review update.
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// CreateReview godoc
// @Summary Review a book
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param request body CreateReviewRequest true "Review data"
// @Success 201 {object} model.Review
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /books/{id}/reviews [post]
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return RespondError(c, h.log, err)
	}

	bookID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	if err := c.Validate(&req); err != nil {
		return validationFailed(err)
	}

	review, err := h.reviewService.CreateReview(c.Request().Context(), caller.UserID, bookID, service.CreateReviewInput{
		Rating:  *req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return RespondError(c, h.log, err)
	}

	return c.JSON(http.StatusCreated, review)
}

// UpdateReview godoc
// @Summary Update your own review
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param request body UpdateReviewRequest true "Fields to change"
// @Success 200 {object} model.Review
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /reviews/{id} [put]
func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return RespondError(c, h.log, err)
	}

	reviewID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateReviewRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	review, err := h.reviewService.UpdateReview(c.Request().Context(), caller.UserID, reviewID, service.UpdateReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return RespondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, review)
}

// DeleteReview godoc
// @Summary Delete your own review
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return RespondError(c, h.log, err)
	}

	reviewID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.reviewService.DeleteReview(c.Request().Context(), caller.UserID, reviewID); err != nil {
		return RespondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "review deleted successfully"})
}
