package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration loaded from the environment.
type Config struct {
	AppEnv          string
	ServerPort      string
	ShutdownTimeout time.Duration
	LogLevel        string
	SwaggerHost     string
	Database        DatabaseConfig
	JWT             JWTConfig
	Redis           RedisConfig
}

// DatabaseConfig selects the relational store.
type DatabaseConfig struct {
	Driver   string
	Storage  string
	MySQLDSN string
}

// JWTConfig configures session token signing.
type JWTConfig struct {
	Secret    string
	ExpiresIn time.Duration
}

// RedisConfig configures the token revocation store. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Load builds Config from an optional .env file and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_STORAGE", "database.sqlite")
	v.SetDefault("MYSQL_DSN", "user:password@tcp(localhost:3306)/bookreview?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_EXPIRES_IN", "1h")
	v.SetDefault("REDIS_DB", 0)

	cfg := &Config{
		AppEnv:          v.GetString("APP_ENV"),
		ServerPort:      v.GetString("PORT"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		SwaggerHost:     v.GetString("SWAGGER_HOST"),
		Database: DatabaseConfig{
			Driver:   v.GetString("DB_DRIVER"),
			Storage:  v.GetString("DB_STORAGE"),
			MySQLDSN: v.GetString("MYSQL_DSN"),
		},
		JWT: JWTConfig{
			Secret:    v.GetString("JWT_SECRET"),
			ExpiresIn: v.GetDuration("JWT_EXPIRES_IN"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
	}

	if cfg.JWT.ExpiresIn <= 0 {
		return nil, fmt.Errorf("JWT_EXPIRES_IN must be a positive duration, got %q", v.GetString("JWT_EXPIRES_IN"))
	}
	switch cfg.Database.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	return cfg, nil
}
