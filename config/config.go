package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment represents the application environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Provider ProviderConfig
	Storage  StorageConfig
	Queue    QueueConfig
	Worker   WorkerConfig
	RateLimit RateLimitConfig
	CORS     CORSConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	BaseURL         string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// AuthConfig holds bearer-token validation configuration. Tokens are issued
// by an external identity provider; this service only verifies them.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// ProviderConfig holds video-generation provider credentials and tuning.
type ProviderConfig struct {
	VeoAPIKey        string
	VeoBaseURL       string
	UseMockProvider  bool
	MockFailureRate  float64
	AdapterTimeout   time.Duration
	RetryMaxAttempts int
	RetryInitialWait time.Duration
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	S3Bucket              string
	S3Region              string
	CDNBaseURL            string
	AWSAccessKey          string
	AWSSecretKey          string
	PresignTTL            time.Duration
	MaxFileSizeBytes      int64
	ThumbnailGenEnabled   bool
	ThumbnailWidth        int
	ThumbnailHeight       int
	CleanupRetentionDays  int
}

// QueueConfig holds queue admission and persistence configuration
type QueueConfig struct {
	MaxDepth              int
	SnapshotInterval       time.Duration
	WorkerHeartbeatTimeout time.Duration
}

// WorkerConfig holds worker runtime configuration
type WorkerConfig struct {
	MaxConcurrentJobs  int
	HeartbeatInterval  time.Duration
	JobTimeout         time.Duration
	PollInterval       time.Duration
}

// RateLimitConfig holds per-route-class rate limiting configuration
// loaded from RATE_LIMIT_*. The rate-limit middleware does not read it;
// the limits it applies are middleware.RouteClassLimits.
type RateLimitConfig struct {
	GeneralRPS          float64
	GeneralBurst        int
	GenerationsPerHour  int
	StoragePerHour      int
	WorkersPerHour      int
	WindowDuration      time.Duration
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "vidforge"),
			Environment: Environment(getEnv("APP_ENV", "development")),
			Debug:       getEnvBool("APP_DEBUG", true),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			BaseURL:         getEnv("API_BASE_URL", "https://api.vidforge.internal"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "vidforge"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:  getEnvInt("DB_MAX_CONNECTIONS", 100),
			MinConnections:  getEnvInt("DB_MIN_CONNECTIONS", 10),
			MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: getEnvDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 100),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 10),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
			Issuer:    getEnv("JWT_ISSUER", "vidforge"),
		},
		Provider: ProviderConfig{
			VeoAPIKey:        getEnv("VEO_API_KEY", ""),
			VeoBaseURL:       getEnv("VEO_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			UseMockProvider:  getEnvBool("USE_MOCK_PROVIDER", true),
			MockFailureRate:  getEnvFloat("MOCK_PROVIDER_FAILURE_RATE", 0.05),
			AdapterTimeout:   getEnvDuration("PROVIDER_ADAPTER_TIMEOUT", 30*time.Second),
			RetryMaxAttempts: getEnvInt("PROVIDER_RETRY_MAX_ATTEMPTS", 3),
			RetryInitialWait: getEnvDuration("PROVIDER_RETRY_INITIAL_WAIT", time.Second),
		},
		Storage: StorageConfig{
			S3Bucket:             getEnv("S3_BUCKET", "vidforge-artifacts"),
			S3Region:             getEnv("S3_REGION", "us-east-1"),
			CDNBaseURL:           getEnv("CDN_BASE_URL", ""),
			AWSAccessKey:         getEnv("AWS_ACCESS_KEY_ID", ""),
			AWSSecretKey:         getEnv("AWS_SECRET_ACCESS_KEY", ""),
			PresignTTL:           getEnvDuration("ARTIFACT_PRESIGN_TTL", 15*time.Minute),
			MaxFileSizeBytes:     getEnvInt64("MAX_FILE_SIZE", 500*1024*1024),
			ThumbnailGenEnabled:  getEnvBool("THUMBNAIL_GENERATION_ENABLED", true),
			ThumbnailWidth:       getEnvInt("THUMBNAIL_WIDTH", 320),
			ThumbnailHeight:      getEnvInt("THUMBNAIL_HEIGHT", 180),
			CleanupRetentionDays: getEnvInt("CLEANUP_RETENTION_DAYS", 30),
		},
		Queue: QueueConfig{
			MaxDepth:               getEnvInt("QUEUE_MAX_DEPTH", 10000),
			SnapshotInterval:       getEnvDuration("QUEUE_SNAPSHOT_INTERVAL", 5*time.Second),
			WorkerHeartbeatTimeout: getEnvDuration("WORKER_HEARTBEAT_TIMEOUT", 90*time.Second),
		},
		Worker: WorkerConfig{
			MaxConcurrentJobs: getEnvInt("MAX_CONCURRENT_JOBS", 4),
			HeartbeatInterval: getEnvDuration("WORKER_HEARTBEAT_INTERVAL", 30*time.Second),
			JobTimeout:        getEnvDuration("JOB_TIMEOUT", 30*time.Minute),
			PollInterval:      getEnvDuration("WORKER_POLL_INTERVAL", 5*time.Second),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:         getEnvFloat("RATE_LIMIT_GENERAL_RPS", 20),
			GeneralBurst:       getEnvInt("RATE_LIMIT_GENERAL_BURST", 50),
			GenerationsPerHour: getEnvInt("RATE_LIMIT_GENERATIONS_PER_HOUR", 20),
			StoragePerHour:     getEnvInt("RATE_LIMIT_STORAGE_PER_HOUR", 100),
			WorkersPerHour:     getEnvInt("RATE_LIMIT_WORKERS_PER_HOUR", 60),
			WindowDuration:     getEnvDuration("RATE_LIMIT_WINDOW", time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Request-ID"},
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.App.Environment == EnvProduction {
		if c.Auth.JWTSecret == "your-super-secret-key-change-in-production" {
			return fmt.Errorf("JWT secret must be changed in production")
		}
		if c.Provider.UseMockProvider {
			return fmt.Errorf("mock provider must not be used in production")
		}
	}

	if c.Worker.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_JOBS must be positive")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		current := ""
		for _, char := range value {
			if char == ',' {
				if current != "" {
					result = append(result, current)
				}
				current = ""
			} else {
				current += string(char)
			}
		}
		if current != "" {
			result = append(result, current)
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
