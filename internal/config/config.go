package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreDriverMemory   = "memory"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"
)

// Blob drivers
const (
	BlobDriverLocal = "local"
	BlobDriverS3    = "s3"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Persistence
	Store StoreConfig

	// Seed example data on first start
	SeedOnStart bool

	// Blob storage for exports and attachments
	Blob BlobConfig

	// AMQP event fan-out (optional)
	AMQP AMQPConfig

	// Rate limiting
	RateLimitPerMinute int
	RateLimitBurst     int
}

// StoreConfig selects and configures the key-value backend
type StoreConfig struct {
	Driver      string
	SQLitePath  string
	DatabaseURL string
	RedisURL    string
	RedisPrefix string
}

// BlobConfig selects and configures the blob backend
type BlobConfig struct {
	Driver  string
	Dir     string
	BaseURL string
	S3      S3Config
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// AMQPConfig holds broker settings; an empty URL disables publishing
type AMQPConfig struct {
	URL      string
	Exchange string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:         getEnv("ENV", "development"),
		Store: StoreConfig{
			Driver:      getEnv("STORE_DRIVER", StoreDriverSQLite),
			SQLitePath:  getEnv("SQLITE_PATH", "./data/pocketbook.db"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
			RedisPrefix: getEnv("REDIS_PREFIX", "pocketbook:"),
		},
		SeedOnStart: getEnvBool("SEED_ON_START", true),
		Blob: BlobConfig{
			Driver:  getEnv("BLOB_DRIVER", BlobDriverLocal),
			Dir:     getEnv("BLOB_DIR", "./data/blobs"),
			BaseURL: getEnv("BLOB_BASE_URL", "/files"),
			S3: S3Config{
				Region:          getEnv("S3_REGION", "us-east-1"),
				Bucket:          getEnv("S3_BUCKET", "pocketbook"),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
				Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
			},
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "pocketbook.events"),
		},
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 300),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 30),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}

	switch c.Store.Driver {
	case StoreDriverMemory:
	case StoreDriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case StoreDriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreDriverRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Blob.Driver {
	case BlobDriverLocal:
		if c.Blob.Dir == "" {
			return fmt.Errorf("BLOB_DIR is required for the local blob store")
		}
	case BlobDriverS3:
		if c.Blob.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 blob store")
		}
	default:
		return fmt.Errorf("unknown BLOB_DRIVER %q", c.Blob.Driver)
	}

	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit settings must be positive")
	}
	return nil
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
