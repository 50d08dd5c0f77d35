package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration loaded from environment variables.
// It is built once in main and passed down explicitly; business logic never
// reads the environment on its own.
type Config struct {
	Port          string
	ClientOrigin  string
	PostgresDSN   string
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	RedisPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	JWTSecret string
	TokenTTL  time.Duration

	MaxUploadBytes int64
	StatsCacheTTL  time.Duration
}

func Load() *Config {
	return &Config{
		Port:          getenv("PORT", "9000"),
		ClientOrigin:  getenv("CLIENT_DOMAIN", "http://localhost:3000"),
		PostgresDSN:   getenv("POSTGRES_DSN", ""),
		MongoURI:      getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getenv("MONGO_DB", "blog"),
		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "blog-uploads"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",

		JWTSecret: getenv("JWT_SECRET", ""),
		TokenTTL:  getdur("TOKEN_TTL", 30*24*time.Hour),

		MaxUploadBytes: getint64("MAX_UPLOAD_BYTES", 10<<20),
		StatsCacheTTL:  getdur("STATS_CACHE_TTL", 30*time.Second),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getdur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getint64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
