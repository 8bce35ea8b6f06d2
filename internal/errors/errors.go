package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUserAlreadyExists is returned when the username or email is already registered.
	ErrUserAlreadyExists = errors.New("username or email already taken")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingToken is returned when a protected route is called without a bearer token.
	ErrMissingToken = errors.New("access token missing")
	// ErrInvalidToken is returned for malformed, expired or revoked tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrTokenUserNotFound is returned when a valid token references a deleted user.
	ErrTokenUserNotFound = errors.New("user not found")

	ErrBookNotFound   = errors.New("book not found")
	ErrReviewNotFound = errors.New("review not found")

	// ErrReviewAlreadyExists is returned when a user reviews the same book twice.
	ErrReviewAlreadyExists = errors.New("you have already reviewed this book")
	// ErrNotReviewAuthor is returned when a caller mutates someone else's review.
	ErrNotReviewAuthor = errors.New("forbidden: only the author can modify this review")
	// ErrInvalidRating is returned when a rating falls outside 1..5.
	ErrInvalidRating = errors.New("rating must be an integer between 1 and 5")
	// ErrBookFieldsRequired is returned when a book lacks a title, author or genre.
	ErrBookFieldsRequired = errors.New("title, author and genre are required")
	// ErrQueryRequired is returned when a search is issued without a query.
	ErrQueryRequired = errors.New(`query parameter "q" is required`)
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// IsInternal reports whether the error is a 500.
func (e *HTTPError) IsInternal() bool {
	return e.StatusCode == http.StatusInternalServerError
}

// Uniqueness conflicts answer 400 like every other client-side rule violation.
var classified = []struct {
	err    error
	status int
	code   string
}{
	{ErrUserAlreadyExists, http.StatusBadRequest, "USER_ALREADY_EXISTS"},
	{ErrReviewAlreadyExists, http.StatusBadRequest, "REVIEW_ALREADY_EXISTS"},
	{ErrInvalidCredentials, http.StatusBadRequest, "INVALID_CREDENTIALS"},
	{ErrInvalidRating, http.StatusBadRequest, "VALIDATION_ERROR"},
	{ErrBookFieldsRequired, http.StatusBadRequest, "VALIDATION_ERROR"},
	{ErrQueryRequired, http.StatusBadRequest, "QUERY_REQUIRED"},
	{ErrMissingToken, http.StatusUnauthorized, "UNAUTHORIZED"},
	{ErrInvalidToken, http.StatusUnauthorized, "UNAUTHORIZED"},
	{ErrTokenUserNotFound, http.StatusUnauthorized, "UNAUTHORIZED"},
	{ErrNotReviewAuthor, http.StatusForbidden, "FORBIDDEN"},
	{ErrBookNotFound, http.StatusNotFound, "BOOK_NOT_FOUND"},
	{ErrReviewNotFound, http.StatusNotFound, "REVIEW_NOT_FOUND"},
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything unclassified becomes an
// opaque 500.
func MapErrorToHTTP(err error) *HTTPError {
	for _, c := range classified {
		if errors.Is(err, c.err) {
			return NewHTTPError(c.status, c.err.Error(), c.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}

// IsUnauthorized reports whether err is one of the authentication failures.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrTokenUserNotFound)
}
