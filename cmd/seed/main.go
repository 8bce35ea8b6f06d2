package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"bookreview/internal/app"
	"bookreview/internal/config"
	"bookreview/internal/db"
	apperrors "bookreview/internal/errors"
	"bookreview/internal/logger"
	"bookreview/internal/pagination"
	"bookreview/internal/service"
)

// SeedBook is one entry of the seed file.
type SeedBook struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Genre       string  `json:"genre"`
	Description *string `json:"description"`
}

func main() {
	source := flag.String("source", "books.json", "path or http(s) URL of a JSON array of books")
	username := flag.String("username", "seed", "username owning the seeded books")
	email := flag.String("email", "seed@example.com", "email of the seed user")
	password := flag.String("password", "seed-password", "password of the seed user")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, os.Stdout, true)

	gormDB, err := db.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("database init failed", map[string]interface{}{"error": err.Error()})
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal("migration failed", map[string]interface{}{"error": err.Error()})
	}

	books, err := loadBooks(*source)
	if err != nil {
		log.Fatal("load seed books failed", map[string]interface{}{"source": *source, "error": err.Error()})
	}
	log.Info("loaded seed books", map[string]interface{}{"count": len(books)})

	application := app.New(cfg, log, gormDB, nil)
	ctx := context.Background()

	userID, err := ensureSeedUser(ctx, application.AuthService, *username, *email, *password)
	if err != nil {
		log.Fatal("seed user unavailable", map[string]interface{}{"error": err.Error()})
	}

	created, skipped, err := seedBooks(ctx, application.BookService, userID, books)
	if err != nil {
		log.Fatal("seeding failed", map[string]interface{}{"created": created, "error": err.Error()})
	}

	log.Info("seed completed", map[string]interface{}{"created": created, "skipped": skipped, "user_id": userID})
}

// loadBooks reads the seed array from a local file or an http(s) URL.
func loadBooks(source string) ([]SeedBook, error) {
	var r io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Get(source)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", source, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: status code %d", source, resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		r = f
	}
	defer r.Close()

	var books []SeedBook
	if err := json.NewDecoder(r).Decode(&books); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return books, nil
}

// ensureSeedUser signs the seed user up, or logs in when it already exists, and
// returns its id.
func ensureSeedUser(ctx context.Context, authService service.AuthService, username, email, password string) (uint, error) {
	user, err := authService.Signup(ctx, username, email, password)
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, apperrors.ErrUserAlreadyExists) {
		return 0, fmt.Errorf("signup: %w", err)
	}

	token, err := authService.Login(ctx, email, password)
	if err != nil {
		return 0, fmt.Errorf("login existing seed user: %w", err)
	}
	identity, err := authService.Authenticate(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("resolve seed user: %w", err)
	}
	return identity.UserID, nil
}

// seedBooks creates every book not already present with the same title and author.
func seedBooks(ctx context.Context, bookService service.BookService, userID uint, books []SeedBook) (created, skipped int, err error) {
	for _, b := range books {
		exists, err := bookExists(ctx, bookService, b)
		if err != nil {
			return created, skipped, err
		}
		if exists {
			skipped++
			continue
		}

		_, err = bookService.CreateBook(ctx, userID, service.CreateBookInput{
			Title:       b.Title,
			Author:      b.Author,
			Genre:       b.Genre,
			Description: b.Description,
		})
		if errors.Is(err, apperrors.ErrBookFieldsRequired) {
			skipped++
			continue
		}
		if err != nil {
			return created, skipped, fmt.Errorf("create %q: %w", b.Title, err)
		}
		created++
	}
	return created, skipped, nil
}

// existsPageSize bounds each search issued while looking for an existing copy.
const existsPageSize = 100

func bookExists(ctx context.Context, bookService service.BookService, b SeedBook) (bool, error) {
	title := strings.TrimSpace(b.Title)
	if title == "" {
		return false, nil
	}
	for p := 1; ; p++ {
		page, err := bookService.SearchBooks(ctx, title, pagination.New(p, existsPageSize))
		if err != nil {
			return false, fmt.Errorf("search %q: %w", title, err)
		}
		for _, existing := range page.Results {
			if strings.EqualFold(existing.Title, title) &&
				strings.EqualFold(existing.Author, strings.TrimSpace(b.Author)) {
				return true, nil
			}
		}
		if p >= page.TotalPages {
			return false, nil
		}
	}
}
