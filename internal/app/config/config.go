// Package config はプロセス設定を環境変数（と任意の .env）から読み込みます。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"calendar_backend/internal/platform/db"
	"calendar_backend/internal/platform/password"
	"calendar_backend/internal/platform/redis"
)

// InsecureDefaultSecret は開発用のデフォルトのJWTシークレットです。本番では必ず上書きします。
const InsecureDefaultSecret = "CHANGE_ME"

// Config はAPIサーバー・フロントエンド・CLIが共有する設定です。
type Config struct {
	ServerAddr    string
	WebappAddr    string
	APIBaseURL    string
	RunMigrations bool
	CookieSecure  bool

	JWT      JWTConfig
	Password PasswordConfig
	Database db.Config
	Redis    redis.Config

	UsersCacheTTL time.Duration
	DBConnTimeout time.Duration
}

// JWTConfig はアクセストークンの設定です。
type JWTConfig struct {
	Secret    string
	Algorithm string
	TTL       time.Duration
}

// PasswordConfig はパスワードハッシュの設定です。
type PasswordConfig struct {
	Iterations int
}

// Load は .env があれば読み込み、環境変数から設定を組み立てます。
// 既に設定済みの環境変数は .env で上書きされません。
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv は現在の環境変数のみから設定を組み立てます。
func FromEnv() (Config, error) {
	var errs []error
	intVar := func(key string, def int) int {
		v, err := getEnvInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	boolVar := func(key string, def bool) bool {
		v, err := getEnvBool(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := Config{
		ServerAddr:    getEnv("SERVER_ADDR", ":8000"),
		WebappAddr:    getEnv("WEBAPP_ADDR", ":8080"),
		APIBaseURL:    strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/"),
		RunMigrations: boolVar("RUN_MIGRATIONS", true),
		CookieSecure:  boolVar("COOKIE_SECURE", false),
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET_KEY", InsecureDefaultSecret),
			Algorithm: getEnv("JWT_SECRET_ALGORITHM", "HS256"),
			TTL:       time.Duration(intVar("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		},
		Password: PasswordConfig{
			Iterations: intVar("PASSWORD_ITERATIONS", password.DefaultIterations),
		},
		Database: db.Config{
			Driver:     getEnv("DB_DRIVER", db.DriverSQLite),
			URL:        os.Getenv("DATABASE_URL"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "calendar"),
			Password:   getEnv("DB_PASSWORD", "calendar"),
			Name:       getEnv("DB_NAME", "calendar"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "./calendar.db"),
		},
		Redis:         redisConfig(intVar),
		UsersCacheTTL: time.Duration(intVar("USERS_CACHE_TTL_SECONDS", 60)) * time.Second,
		DBConnTimeout: time.Duration(intVar("DB_CONNECT_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	if cfg.JWT.Algorithm != "HS256" {
		errs = append(errs, fmt.Errorf("JWT_SECRET_ALGORITHM: unsupported algorithm %q", cfg.JWT.Algorithm))
	}
	if cfg.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TOKEN_EXPIRE_MINUTES: must be positive"))
	}
	if cfg.Database.Driver != db.DriverSQLite && cfg.Database.Driver != db.DriverPostgres {
		errs = append(errs, fmt.Errorf("DB_DRIVER: unsupported driver %q", cfg.Database.Driver))
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	if cfg.JWT.Secret == InsecureDefaultSecret {
		slog.Warn("JWT_SECRET_KEY is not set. Set a strong secret in production.")
	}
	return cfg, nil
}

func redisConfig(intVar func(string, int) int) redis.Config {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		return redis.Config{}
	}
	return redis.Config{
		Addr:     net.JoinHostPort(host, getEnv("REDIS_PORT", "6379")),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       intVar("REDIS_DB", 0),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue, fmt.Errorf("%s: not an integer: %q", key, valueStr)
	}
	return value, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue, fmt.Errorf("%s: not a boolean: %q", key, valueStr)
	}
	return value, nil
}
