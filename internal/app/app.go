// Package app assembles repositories, services, handlers and routes into a runnable
// Echo instance.
package app

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"bookreview/internal/auth"
	"bookreview/internal/cache"
	"bookreview/internal/config"
	"bookreview/internal/handler"
	"bookreview/internal/logger"
	"bookreview/internal/repository"
	"bookreview/internal/router"
	"bookreview/internal/service"
)

// App holds the wired application graph.
type App struct {
	Echo *echo.Echo

	AuthService   service.AuthService
	BookService   service.BookService
	ReviewService service.ReviewService
}

// New wires every layer on top of an open database and an optional cache. The caller
// owns both and closes them after the server stops.
func New(cfg *config.Config, log logger.Logger, gormDB *gorm.DB, cacheClient *cache.Client) *App {
	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	bookRepo := repository.NewBookRepository(gormDB)
	reviewRepo := repository.NewReviewRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, log)
	bookService := service.NewBookService(bookRepo, reviewRepo, log)
	reviewService := service.NewReviewService(bookRepo, reviewRepo, log)

	// Initialize handlers
	handlers := router.Handlers{
		Health: handler.NewHealthHandler(gormDB, cacheClient, log),
		Auth:   handler.NewAuthHandler(authService, log),
		Book:   handler.NewBookHandler(bookService, log),
		Review: handler.NewReviewHandler(reviewService, log),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.Register(e, log, handlers, authService)

	return &App{
		Echo:          e,
		AuthService:   authService,
		BookService:   bookService,
		ReviewService: reviewService,
	}
}
