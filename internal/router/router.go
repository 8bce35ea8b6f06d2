package router

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	apperrors "bookreview/internal/errors"
	"bookreview/internal/handler"
	"bookreview/internal/logger"
	"bookreview/internal/metrics"
	"bookreview/internal/service"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Health *handler.HealthHandler
	Auth   *handler.AuthHandler
	Book   *handler.BookHandler
	Review *handler.ReviewHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, log logger.Logger, h Handlers, authService service.AuthService) {
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(requestLoggerConfig(log)))
	e.Use(metrics.Middleware())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: newValidator()}

	e.GET("/", h.Health.Root)
	e.GET("/healthz", h.Health.Healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public routes
	e.POST("/signup", h.Auth.Signup)
	e.POST("/login", h.Auth.Login)
	e.GET("/books", h.Book.ListBooks)
	e.GET("/books/:id", h.Book.GetBook)
	e.GET("/search", h.Book.SearchBooks)

	// Secured routes (require a live bearer token)
	secured := e.Group("", AuthGate(authService, log))

	secured.POST("/logout", h.Auth.Logout)
	secured.POST("/books", h.Book.CreateBook)
	secured.POST("/books/:id/reviews", h.Review.CreateReview)
	secured.PUT("/reviews/:id", h.Review.UpdateReview)
	secured.DELETE("/reviews/:id", h.Review.DeleteReview)
}

// AuthGate resolves "Authorization: Bearer <token>" into the caller identity through
// AuthService and stores it under handler.CallerContextKey.
func AuthGate(authService service.AuthService, log logger.Logger) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.CallerContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return authService.Authenticate(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			// Parsing errors carry whatever Authenticate returned: unauthorized
			// sentinels map to 401, store failures to 500.
			var parseErr *echojwt.TokenParsingError
			if errors.As(err, &parseErr) {
				return handler.RespondError(c, log, parseErr.Err)
			}
			return handler.RespondError(c, log, apperrors.ErrMissingToken)
		},
	})
}

func requestLoggerConfig(log logger.Logger) middleware.RequestLoggerConfig {
	return middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := map[string]interface{}{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
				"remote_ip":  v.RemoteIP,
			}
			if v.Error != nil {
				fields["error"] = v.Error.Error()
			}
			if v.Status >= http.StatusInternalServerError {
				log.Error("request", fields)
			} else {
				log.Info("request", fields)
			}
			return nil
		},
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
