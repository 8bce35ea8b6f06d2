package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"bookreview/internal/cache"
	"bookreview/internal/logger"
)

// HealthHandler reports liveness and store connectivity.
type HealthHandler struct {
	db    *gorm.DB
	cache *cache.Client
	log   logger.Logger
}

// NewHealthHandler creates a new health handler. A nil cache is reported as disabled.
func NewHealthHandler(db *gorm.DB, c *cache.Client, log logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, cache: c, log: log}
}

// HealthResponse describes dependency status.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// Root godoc
// @Summary Liveness message
// @Tags health
// @Produce json
// @Success 200 {object} MessageResponse
// @Router / [get]
func (h *HealthHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, MessageResponse{Message: "Book Review API is running"})
}

// Healthz godoc
// @Summary Dependency health check
// @Description Fails with 503 when the database is unreachable. Redis is advisory.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "ok", Redis: "disabled"}
	status := http.StatusOK

	if err := h.pingDB(ctx); err != nil {
		h.log.Warn("database ping failed", map[string]interface{}{"error": err.Error()})
		resp.Status = "unavailable"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	if h.cache != nil {
		resp.Redis = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			resp.Redis = "unreachable"
		}
	}

	return c.JSON(status, resp)
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
