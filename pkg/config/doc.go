// Package config provides application configuration from environment
// variables, with an optional YAML overlay file.
//
// # Configuration Structure
//
// Server settings:
//
//	SANITRACK_HOST="0.0.0.0"
//	SANITRACK_PORT="8080"
//	SANITRACK_HEALTH_PORT="9090"
//	SANITRACK_READ_TIMEOUT="15s"
//	SANITRACK_WRITE_TIMEOUT="15s"
//
// Auth settings:
//
//	SANITRACK_JWT_SECRET="..."
//	SANITRACK_TOKEN_TTL="168h"
//
// Storage settings:
//
//	SANITRACK_STORAGE_TYPE="surreal"  # memory, surreal
//	SANITRACK_SURREAL_URL="ws://localhost:8000/rpc"
//	SANITRACK_BLOB_TYPE="s3"          # filesystem, s3
//	SANITRACK_S3_BUCKET="sanitrack-photos"
//
// Cache settings:
//
//	SANITRACK_CACHE_ENABLED="true"
//	SANITRACK_REDIS_URL="redis://localhost:6379"
//
// Observability settings:
//
//	SANITRACK_LOG_LEVEL="info"  # debug, info, warn, error
//	SANITRACK_METRICS_ENABLED="true"
//	SANITRACK_OTEL_ENABLED="true"
//	SANITRACK_OTEL_ENDPOINT="otel-collector:4317"
//
// When SANITRACK_CONFIG_FILE points at a YAML file, values present in the
// file override the environment. Watch re-reads the file on change so a
// deployment can rotate settings without a restart.
package config
