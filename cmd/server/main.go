package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"bookreview/docs"
	"bookreview/internal/app"
	"bookreview/internal/cache"
	"bookreview/internal/config"
	"bookreview/internal/db"
	"bookreview/internal/logger"
)

// @title Book Review API
// @version 1.0
// @description Book catalog with user reviews, ratings and JWT authentication.
// @host localhost:3000
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, os.Stdout, cfg.AppEnv == "development")
	log.Info("starting book review API", map[string]interface{}{"env": cfg.AppEnv, "db_driver": cfg.Database.Driver})

	gormDB, err := db.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("database init failed", map[string]interface{}{"error": err.Error()})
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("database handle unavailable", map[string]interface{}{"error": err.Error()})
	}
	defer sqlDB.Close()

	if err := db.Migrate(gormDB); err != nil {
		log.Fatal("migration failed", map[string]interface{}{"error": err.Error()})
	}

	cacheClient := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer cacheClient.Close()
	if cacheClient == nil {
		log.Warn("REDIS_ADDR not set, logout will not revoke tokens", nil)
	} else if err := cacheClient.Ping(context.Background()); err != nil {
		log.Warn("redis unreachable, continuing without token revocation", map[string]interface{}{"error": err.Error()})
	}

	application := app.New(cfg, log, gormDB, cacheClient)

	docs.SwaggerInfo.Host = swaggerHost(cfg)
	log.Info("swagger documentation available", map[string]interface{}{"url": "http://" + docs.SwaggerInfo.Host + "/swagger/index.html"})

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info("HTTP server listening", map[string]interface{}{"addr": addr})
		if err := application.Echo.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal("server start failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down", map[string]interface{}{"timeout": cfg.ShutdownTimeout.String()})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := application.Echo.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", map[string]interface{}{"error": err.Error()})
		return
	}

	log.Info("server stopped", nil)
}

// swaggerHost strips any scheme from SWAGGER_HOST, since swag wants a bare host.
func swaggerHost(cfg *config.Config) string {
	if cfg.SwaggerHost == "" {
		return "localhost:" + cfg.ServerPort
	}
	host := strings.TrimPrefix(cfg.SwaggerHost, "http://")
	return strings.TrimPrefix(host, "https://")
}
