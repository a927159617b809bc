package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"Postboard/internal/core/posts"
)

// Store drivers
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

// Cache drivers
const (
	CacheLRU   = "lru"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config holds the server's environment configuration
type Config struct {
	Port      string
	AppEnv    string
	StaticDir string

	StoreDriver   string
	DatabaseURL   string
	MigrationsDir string
	MongoURI      string
	MongoDatabase string

	JWTSecret   string
	JWTJWKSURL  string
	JWTJWKSFile string
	JWTIssuer   string

	CacheDriver   string
	CacheSize     int
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string

	NATSURL string

	CorsAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration

	PostTextMin int
	PostTextMax int
}

// IsProduction reports whether the built web client should be served
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads configuration from the environment, loading .env first when present
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:               getEnv("PORT", "5000"),
		AppEnv:             getEnv("APP_ENV", "development"),
		StaticDir:          getEnv("STATIC_DIR", "client/build"),
		StoreDriver:        strings.ToLower(getEnv("STORE_DRIVER", StorePostgres)),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MigrationsDir:      getEnv("MIGRATIONS_DIR", ""), // empty: migrations embedded in the binary
		MongoURI:           getEnv("MONGODB_URI", ""),
		MongoDatabase:      getEnv("MONGODB_DATABASE", "postboard"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTJWKSURL:         getEnv("JWT_JWKS_URL", ""),
		JWTJWKSFile:        getEnv("JWT_JWKS_FILE", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", ""),
		CacheDriver:        strings.ToLower(getEnv("CACHE_DRIVER", CacheLRU)),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		NATSURL:            getEnv("NATS_URL", ""),
		CorsAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	var err error
	if cfg.CacheSize, err = getInt("CACHE_SIZE", 1000); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitRequests, err = getInt("RATE_LIMIT_REQUESTS", 100); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitWindow, err = getDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.PostTextMin, err = getInt("POST_TEXT_MIN", posts.DefaultTextMinLength); err != nil {
		return Config{}, err
	}
	if cfg.PostTextMax, err = getInt("POST_TEXT_MAX", posts.DefaultTextMaxLength); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StorePostgres)
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORE_DRIVER=%s", StoreMongo)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (expected postgres, mongo or memory)", c.StoreDriver)
	}

	switch c.CacheDriver {
	case CacheLRU, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("unknown CACHE_DRIVER %q (expected lru, redis or none)", c.CacheDriver)
	}

	if c.JWTSecret == "" && c.JWTJWKSURL == "" && c.JWTJWKSFile == "" {
		return fmt.Errorf("JWT_SECRET, JWT_JWKS_URL or JWT_JWKS_FILE is required")
	}
	if c.JWTJWKSURL != "" && c.JWTJWKSFile != "" {
		return fmt.Errorf("JWT_JWKS_URL and JWT_JWKS_FILE are mutually exclusive")
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("CACHE_SIZE must be positive, got %d", c.CacheSize)
	}
	if c.RateLimitRequests < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.RateLimitRequests)
	}
	if c.PostTextMax < c.PostTextMin {
		return fmt.Errorf("POST_TEXT_MAX (%d) must be >= POST_TEXT_MIN (%d)", c.PostTextMax, c.PostTextMin)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
