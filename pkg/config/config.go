package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sanitrack/sanitrack/pkg/storage"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	Auth          AuthConfig
	Storage       storage.Config
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	CORSOrigins     []string

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// AuthConfig holds token issuing configuration.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string

	MetricsEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from the environment, overlays the YAML
// file named by SANITRACK_CONFIG_FILE when set, and validates the result.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Auth:          loadAuthConfig(),
		Storage:       loadStorageConfig(),
		Observability: loadObservabilityConfig(),
	}

	if path := getEnv("SANITRACK_CONFIG_FILE", ""); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("SANITRACK_HOST", "0.0.0.0"),
		Port:            getEnv("SANITRACK_PORT", "8080"),
		ReadTimeout:     getEnvDuration("SANITRACK_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("SANITRACK_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("SANITRACK_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("SANITRACK_SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxBodyBytes:    getEnvInt64("SANITRACK_MAX_BODY_BYTES", 10<<20),
		CORSOrigins:     splitList(getEnv("SANITRACK_CORS_ORIGINS", "*")),
		HealthPort:      getEnv("SANITRACK_HEALTH_PORT", "9090"),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret: getEnv("SANITRACK_JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("SANITRACK_TOKEN_TTL", 168*time.Hour),
	}
}

func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if storageType := getEnv("SANITRACK_STORAGE_TYPE", ""); storageType != "" {
		cfg.Type = storageType
	}

	// SurrealDB config
	if url := getEnv("SANITRACK_SURREAL_URL", ""); url != "" {
		cfg.SurrealURL = url
	}
	if ns := getEnv("SANITRACK_SURREAL_NS", ""); ns != "" {
		cfg.SurrealNS = ns
	}
	if db := getEnv("SANITRACK_SURREAL_DB", ""); db != "" {
		cfg.SurrealDB = db
	}
	if user := getEnv("SANITRACK_SURREAL_USER", ""); user != "" {
		cfg.SurrealUser = user
	}
	if pass := getEnv("SANITRACK_SURREAL_PASS", ""); pass != "" {
		cfg.SurrealPass = pass
	}

	// Redis cache config
	if redisURL := getEnv("SANITRACK_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if redisPassword := getEnv("SANITRACK_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("SANITRACK_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if cacheEnabled := getEnv("SANITRACK_CACHE_ENABLED", ""); cacheEnabled != "" {
		cfg.CacheEnabled = strings.ToLower(cacheEnabled) == "true"
	}
	if ttl := getEnvDuration("SANITRACK_CACHE_TTL", 0); ttl > 0 {
		cfg.CacheTTL = ttl
	}
	if size := getEnvInt("SANITRACK_L1_CACHE_SIZE", 0); size > 0 {
		cfg.L1CacheSize = size
	}

	// Blob storage config
	if blobType := getEnv("SANITRACK_BLOB_TYPE", ""); blobType != "" {
		cfg.BlobType = blobType
	}
	if root := getEnv("SANITRACK_BLOB_ROOT", ""); root != "" {
		cfg.BlobRoot = root
	}
	if endpoint := getEnv("SANITRACK_S3_ENDPOINT", ""); endpoint != "" {
		cfg.S3Endpoint = endpoint
	}
	if region := getEnv("SANITRACK_S3_REGION", ""); region != "" {
		cfg.S3Region = region
	}
	if bucket := getEnv("SANITRACK_S3_BUCKET", ""); bucket != "" {
		cfg.S3Bucket = bucket
	}
	if accessKey := getEnv("SANITRACK_S3_ACCESS_KEY", ""); accessKey != "" {
		cfg.S3AccessKey = accessKey
	}
	if secretKey := getEnv("SANITRACK_S3_SECRET_KEY", ""); secretKey != "" {
		cfg.S3SecretKey = secretKey
	}
	if pathStyle := getEnv("SANITRACK_S3_USE_PATH_STYLE", ""); pathStyle != "" {
		cfg.S3UsePathStyle = strings.ToLower(pathStyle) == "true"
	}

	return cfg
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           getEnv("SANITRACK_LOG_LEVEL", "info"),
		LogFormat:          getEnv("SANITRACK_LOG_FORMAT", "json"),
		MetricsEnabled:     getEnvBool("SANITRACK_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("SANITRACK_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("SANITRACK_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("SANITRACK_OTEL_SERVICE_NAME", "sanitrack-api"),
		OTelServiceVersion: getEnv("SANITRACK_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("SANITRACK_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}

	switch c.Storage.Type {
	case "memory":
	case "surreal":
		if c.Storage.SurrealURL == "" {
			return fmt.Errorf("SurrealDB URL is required for surreal storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be memory or surreal)", c.Storage.Type)
	}

	switch c.Storage.BlobType {
	case "filesystem":
		if c.Storage.BlobRoot == "" {
			return fmt.Errorf("blob root is required for filesystem blob storage")
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 blob storage")
		}
	default:
		return fmt.Errorf("invalid blob storage type: %s (must be filesystem or s3)", c.Storage.BlobType)
	}

	if c.Storage.CacheEnabled && c.Storage.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when the cache is enabled")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
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
