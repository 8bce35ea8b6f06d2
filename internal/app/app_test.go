package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookreview/internal/app"
	"bookreview/internal/cache"
	"bookreview/internal/config"
	"bookreview/internal/db/dbtest"
	apperrors "bookreview/internal/errors"
	"bookreview/internal/logger"
	"bookreview/internal/pagination"
	"bookreview/internal/service"
)

type apiClient struct {
	t *testing.T
	e *echo.Echo
}

func newClient(t *testing.T, cacheClient *cache.Client) *apiClient {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpiresIn: time.Hour}}
	application := app.New(cfg, logger.Nop(), dbtest.New(t), cacheClient)
	return &apiClient{t: t, e: application.Echo}
}

func (c *apiClient) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (c *apiClient) signupAndLogin(username string) (uint, string) {
	c.t.Helper()
	email := username + "@example.com"
	rec := c.do(http.MethodPost, "/signup", "", map[string]string{"username": username, "email": email, "password": "pw1"})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	id := uint(decode(c.t, rec)["id"].(float64))

	rec = c.do(http.MethodPost, "/login", "", map[string]string{"email": email, "password": "pw1"})
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	return id, decode(c.t, rec)["token"].(string)
}

func (c *apiClient) createBook(token, title, author, genre string) uint {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/books", token, map[string]string{"title": title, "author": author, "genre": genre})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	return uint(decode(c.t, rec)["id"].(float64))
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	assert.Equal(t, code, decode(t, rec)["code"])
}

func TestSignupAndLogin(t *testing.T) {
	c := newClient(t, nil)

	rec := c.do(http.MethodPost, "/signup", "", map[string]string{"username": "alice", "email": "a@x.com", "password": "pw1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "a@x.com", body["email"])
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "$2a$")

	tests := []struct {
		name string
		body map[string]string
		code string
	}{
		{"same username", map[string]string{"username": "alice", "email": "b@x.com", "password": "pw2"}, "USER_ALREADY_EXISTS"},
		{"same email", map[string]string{"username": "alicia", "email": "a@x.com", "password": "pw2"}, "USER_ALREADY_EXISTS"},
		{"malformed email", map[string]string{"username": "bob", "email": "not-an-email", "password": "pw"}, "VALIDATION_ERROR"},
		{"missing password", map[string]string{"username": "bob", "email": "bob@x.com"}, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertError(t, c.do(http.MethodPost, "/signup", "", tt.body), http.StatusBadRequest, tt.code)
		})
	}

	wrongPassword := c.do(http.MethodPost, "/login", "", map[string]string{"email": "a@x.com", "password": "nope"})
	unknownEmail := c.do(http.MethodPost, "/login", "", map[string]string{"email": "ghost@x.com", "password": "pw1"})
	assertError(t, wrongPassword, http.StatusBadRequest, "INVALID_CREDENTIALS")
	assertError(t, unknownEmail, http.StatusBadRequest, "INVALID_CREDENTIALS")
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())

	malformedEmail := c.do(http.MethodPost, "/login", "", map[string]string{"email": "not-an-email", "password": "pw1"})
	assertError(t, malformedEmail, http.StatusBadRequest, "INVALID_CREDENTIALS")
	assert.Equal(t, wrongPassword.Body.String(), malformedEmail.Body.String())
	assertError(t, c.do(http.MethodPost, "/login", "", map[string]string{"password": "pw1"}), http.StatusBadRequest, "VALIDATION_ERROR")

	rec = c.do(http.MethodPost, "/login", "", map[string]string{"email": "a@x.com", "password": "pw1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["token"])
}

func TestAuthGate(t *testing.T) {
	c := newClient(t, nil)
	book := map[string]string{"title": "Dune", "author": "Frank Herbert", "genre": "SF"}

	rec := c.do(http.MethodPost, "/books", "", book)
	assertError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
	assert.Equal(t, "access token missing", decode(t, rec)["error"])

	rec = c.do(http.MethodPost, "/books", "garbage", book)
	assertError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
	assert.Equal(t, "invalid or expired token", decode(t, rec)["error"])

	_, token := c.signupAndLogin("alice")
	rec = c.do(http.MethodPost, "/books", token, book)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Dune", decode(t, rec)["title"])
}

func TestReviewFlow(t *testing.T) {
	c := newClient(t, nil)
	aliceID, alice := c.signupAndLogin("alice")
	bobID, bob := c.signupAndLogin("bob")
	bookID := c.createBook(alice, "The Hobbit", "J.R.R. Tolkien", "Fantasy")
	bookPath := fmt.Sprintf("/books/%d", bookID)

	rec := c.do(http.MethodGet, bookPath, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode(t, rec)
	assert.Equal(t, "0.00", detail["averageRating"])
	assert.EqualValues(t, aliceID, detail["book"].(map[string]interface{})["createdBy"])

	rec = c.do(http.MethodPost, bookPath+"/reviews", bob, map[string]interface{}{"rating": 4, "comment": "lovely"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	review := decode(t, rec)
	reviewPath := fmt.Sprintf("/reviews/%d", uint(review["id"].(float64)))
	assert.EqualValues(t, bobID, review["userId"])

	rec = c.do(http.MethodPost, bookPath+"/reviews", bob, map[string]interface{}{"rating": 5})
	assertError(t, rec, http.StatusBadRequest, "REVIEW_ALREADY_EXISTS")

	rec = c.do(http.MethodGet, bookPath, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail = decode(t, rec)
	assert.Equal(t, "4.00", detail["averageRating"])
	reviews := detail["reviews"].(map[string]interface{})
	assert.EqualValues(t, 1, reviews["totalItems"])
	first := reviews["results"].([]interface{})[0].(map[string]interface{})
	user := first["user"].(map[string]interface{})
	assert.Equal(t, "bob", user["username"])
	assert.NotContains(t, user, "email")

	rec = c.do(http.MethodPost, bookPath+"/reviews", alice, map[string]interface{}{"rating": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = c.do(http.MethodGet, bookPath, "", nil)
	assert.Equal(t, "2.50", decode(t, rec)["averageRating"])

	// Only the author may mutate a review.
	assertError(t, c.do(http.MethodPut, reviewPath, alice, map[string]interface{}{"rating": 1}), http.StatusForbidden, "FORBIDDEN")
	assertError(t, c.do(http.MethodDelete, reviewPath, alice, nil), http.StatusForbidden, "FORBIDDEN")

	assertError(t, c.do(http.MethodPut, reviewPath, bob, map[string]interface{}{"rating": 6}), http.StatusBadRequest, "VALIDATION_ERROR")

	rec = c.do(http.MethodPut, reviewPath, bob, map[string]interface{}{"rating": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode(t, rec)
	assert.EqualValues(t, 5, updated["rating"])
	assert.Equal(t, "lovely", updated["comment"])

	rec = c.do(http.MethodDelete, reviewPath, bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "review deleted successfully", decode(t, rec)["message"])

	assertError(t, c.do(http.MethodDelete, reviewPath, bob, nil), http.StatusNotFound, "REVIEW_NOT_FOUND")
	assert.Equal(t, "1.00", decode(t, c.do(http.MethodGet, bookPath, "", nil))["averageRating"])
}

func TestReviewValidation(t *testing.T) {
	c := newClient(t, nil)
	_, alice := c.signupAndLogin("alice")
	bookID := c.createBook(alice, "Dune", "Frank Herbert", "SF")

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"rating missing", fmt.Sprintf("/books/%d/reviews", bookID), map[string]interface{}{"comment": "x"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"rating zero", fmt.Sprintf("/books/%d/reviews", bookID), map[string]interface{}{"rating": 0}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"rating not a number", fmt.Sprintf("/books/%d/reviews", bookID), map[string]interface{}{"rating": "five"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown book", "/books/999/reviews", map[string]interface{}{"rating": 3}, http.StatusNotFound, "BOOK_NOT_FOUND"},
		{"bad rating on unknown book", "/books/999/reviews", map[string]interface{}{"rating": 9}, http.StatusNotFound, "BOOK_NOT_FOUND"},
		{"bad book id", "/books/abc/reviews", map[string]interface{}{"rating": 3}, http.StatusBadRequest, "INVALID_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertError(t, c.do(http.MethodPost, tt.path, alice, tt.body), tt.status, tt.code)
		})
	}

	assertError(t, c.do(http.MethodPut, "/reviews/999", alice, map[string]interface{}{"rating": 3}), http.StatusNotFound, "REVIEW_NOT_FOUND")
	assertError(t, c.do(http.MethodGet, "/books/999", "", nil), http.StatusNotFound, "BOOK_NOT_FOUND")
	assertError(t, c.do(http.MethodGet, "/books/0", "", nil), http.StatusBadRequest, "INVALID_ID")
}

func TestConcurrentDuplicateReviews(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpiresIn: time.Hour}}
	application := app.New(cfg, logger.Nop(), dbtest.New(t), nil)
	ctx := context.Background()

	author, err := application.AuthService.Signup(ctx, "alice", "alice@example.com", "pw1")
	require.NoError(t, err)
	reviewer, err := application.AuthService.Signup(ctx, "bob", "bob@example.com", "pw1")
	require.NoError(t, err)
	book, err := application.BookService.CreateBook(ctx, author.ID, service.CreateBookInput{Title: "Dune", Author: "Frank Herbert", Genre: "SF"})
	require.NoError(t, err)

	const writers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
		others    []error
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(rating int) {
			defer wg.Done()
			_, err := application.ReviewService.CreateReview(ctx, reviewer.ID, book.ID, service.CreateReviewInput{Rating: rating})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, apperrors.ErrReviewAlreadyExists):
				conflicts++
			default:
				others = append(others, err)
			}
		}(i%5 + 1)
	}
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, created)
	assert.Equal(t, writers-1, conflicts)

	detail, err := application.BookService.GetBook(ctx, book.ID, pagination.New(1, writers))
	require.NoError(t, err)
	assert.EqualValues(t, 1, detail.Reviews.TotalItems)
}

func TestListAndSearch(t *testing.T) {
	c := newClient(t, nil)
	_, alice := c.signupAndLogin("alice")
	c.createBook(alice, "The Hobbit", "J.R.R. Tolkien", "Fantasy")
	c.createBook(alice, "Tolkien: A Biography", "Humphrey Carpenter", "Biography")
	for i := 1; i <= 10; i++ {
		c.createBook(alice, fmt.Sprintf("Filler %02d", i), "Anon", "Misc")
	}

	rec := c.do(http.MethodGet, "/books?page=2&limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode(t, rec)
	assert.EqualValues(t, 12, page["totalItems"])
	assert.EqualValues(t, 3, page["totalPages"])
	assert.EqualValues(t, 2, page["currentPage"])
	results := page["results"].([]interface{})
	require.Len(t, results, 5)
	assert.Equal(t, "Filler 05", results[0].(map[string]interface{})["title"])

	rec = c.do(http.MethodGet, "/books?page=abc&limit=-3", "", nil)
	page = decode(t, rec)
	assert.EqualValues(t, 1, page["currentPage"])
	assert.Len(t, page["results"], 1)

	rec = c.do(http.MethodGet, "/books?page=9223372036854775807&limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page = decode(t, rec)
	assert.EqualValues(t, 12, page["totalItems"])
	assert.Equal(t, []interface{}{}, page["results"])

	rec = c.do(http.MethodGet, "/search?q=filler&page=9223372036854775807&limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []interface{}{}, decode(t, rec)["results"])

	rec = c.do(http.MethodGet, "/books?author=TOLKIEN&genre=fan", "", nil)
	page = decode(t, rec)
	assert.EqualValues(t, 1, page["totalItems"])

	rec = c.do(http.MethodGet, "/books?genre=horror", "", nil)
	page = decode(t, rec)
	assert.EqualValues(t, 0, page["totalItems"])
	assert.Equal(t, []interface{}{}, page["results"])

	rec = c.do(http.MethodGet, "/search?q=tolkien", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode(t, rec)
	assert.EqualValues(t, 2, page["totalItems"])

	assertError(t, c.do(http.MethodGet, "/search?q=", "", nil), http.StatusBadRequest, "QUERY_REQUIRED")
	assertError(t, c.do(http.MethodGet, "/search?q=%20%20", "", nil), http.StatusBadRequest, "QUERY_REQUIRED")
	assertError(t, c.do(http.MethodGet, "/search", "", nil), http.StatusBadRequest, "QUERY_REQUIRED")
}

func TestAmbientRoutes(t *testing.T) {
	c := newClient(t, nil)

	rec := c.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Book Review API is running", decode(t, rec)["message"])

	rec = c.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode(t, rec)
	assert.Equal(t, "ok", health["database"])
	assert.Equal(t, "disabled", health["redis"])

	rec = c.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "bookreview_http_requests_total"))

	rec = c.do(http.MethodGet, "/", "", nil)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestLogoutRevokesToken(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	c := newClient(t, cache.New(addr, os.Getenv("REDIS_PASSWORD"), 0))
	_, token := c.signupAndLogin("alice")

	rec := c.do(http.MethodPost, "/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = c.do(http.MethodPost, "/books", token, map[string]string{"title": "Dune", "author": "Frank Herbert", "genre": "SF"})
	assertError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestLogoutWithoutRevocationStore(t *testing.T) {
	c := newClient(t, nil)
	_, token := c.signupAndLogin("alice")

	assertError(t, c.do(http.MethodPost, "/logout", "", nil), http.StatusUnauthorized, "UNAUTHORIZED")
	rec := c.do(http.MethodPost, "/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
