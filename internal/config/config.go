package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const devSessionSecret = "dev-secret-change-in-production"

const (
	DriverMongo = "mongo"
	DriverMySQL = "mysql"
	DriverRedis = "redis"
)

type Config struct {
	Port     string
	Env      string
	LogLevel slog.Level

	StorageDriver  string
	MongoURI       string
	MongoDatabase  string
	DatabaseDSN    string
	SessionStore   string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SessionSecret  string
	SessionTTL     time.Duration
	CookieName     string
	PasswordHash   string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Production reports whether the service runs with production settings.
func (c Config) Production() bool {
	return c.Env == "production"
}

// Load reads the configuration from the environment. All invalid values are
// reported together.
func Load() (Config, error) {
	var errs []error

	cfg := Config{
		Port:           getEnv("PORT", "5000"),
		Env:            getEnv("ENV", "development"),
		StorageDriver:  strings.ToLower(getEnv("STORAGE_DRIVER", DriverMongo)),
		MongoURI:       getEnv("MONGO_CONNECTION_STRING", "mongodb://127.0.0.1:27017"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "notes"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/notes?parseTime=true"),
		RedisAddr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		SessionSecret:  getEnv("SESSION_SECRET", devSessionSecret),
		CookieName:     getEnv("SESSION_COOKIE_NAME", "sid"),
		PasswordHash:   strings.ToLower(getEnv("PASSWORD_HASH", "bcrypt")),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}
	cfg.SessionStore = strings.ToLower(getEnv("SESSION_STORE", cfg.StorageDriver))

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	var err error
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		errs = append(errs, fmt.Errorf("REDIS_DB: %w", err))
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		errs = append(errs, err)
	}

	switch cfg.StorageDriver {
	case DriverMongo, DriverMySQL:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER: unsupported driver %q", cfg.StorageDriver))
	}

	// MySQL sessions reference the users table, and Mongo sessions live in
	// the notes database.
	if cfg.SessionStore != DriverRedis && cfg.SessionStore != cfg.StorageDriver {
		errs = append(errs, fmt.Errorf("SESSION_STORE: %q requires STORAGE_DRIVER=%[1]s or redis", cfg.SessionStore))
	}

	if cfg.Production() && cfg.SessionSecret == devSessionSecret {
		errs = append(errs, errors.New("SESSION_SECRET must be set in production environment"))
	}

	return cfg, errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive", key)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
