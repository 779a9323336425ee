package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config with optional fields so a YAML file can override
// only the settings it names. Durations are strings in time.ParseDuration
// syntax.
type fileConfig struct {
	Server struct {
		Host        *string  `yaml:"host"`
		Port        *string  `yaml:"port"`
		HealthPort  *string  `yaml:"healthPort"`
		ReadTimeout *string  `yaml:"readTimeout"`
		CORSOrigins []string `yaml:"corsOrigins"`
	} `yaml:"server"`
	Auth struct {
		JWTSecret *string `yaml:"jwtSecret"`
		TokenTTL  *string `yaml:"tokenTtl"`
	} `yaml:"auth"`
	Storage struct {
		Type         *string `yaml:"type"`
		SurrealURL   *string `yaml:"surrealUrl"`
		RedisURL     *string `yaml:"redisUrl"`
		CacheEnabled *bool   `yaml:"cacheEnabled"`
		BlobType     *string `yaml:"blobType"`
		BlobRoot     *string `yaml:"blobRoot"`
		S3Bucket     *string `yaml:"s3Bucket"`
		S3Endpoint   *string `yaml:"s3Endpoint"`
	} `yaml:"storage"`
	Observability struct {
		LogLevel       *string `yaml:"logLevel"`
		LogFormat      *string `yaml:"logFormat"`
		MetricsEnabled *bool   `yaml:"metricsEnabled"`
		OTelEnabled    *bool   `yaml:"otelEnabled"`
		OTelEndpoint   *string `yaml:"otelEndpoint"`
	} `yaml:"observability"`
}

// ApplyFile overlays the YAML file at path onto the configuration. Only the
// fields present in the file are replaced.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}

	setString(&c.Server.Host, fc.Server.Host)
	setString(&c.Server.Port, fc.Server.Port)
	setString(&c.Server.HealthPort, fc.Server.HealthPort)
	if err := setDuration(&c.Server.ReadTimeout, fc.Server.ReadTimeout); err != nil {
		return fmt.Errorf("server.readTimeout: %w", err)
	}
	if fc.Server.CORSOrigins != nil {
		c.Server.CORSOrigins = fc.Server.CORSOrigins
	}

	setString(&c.Auth.JWTSecret, fc.Auth.JWTSecret)
	if err := setDuration(&c.Auth.TokenTTL, fc.Auth.TokenTTL); err != nil {
		return fmt.Errorf("auth.tokenTtl: %w", err)
	}

	setString(&c.Storage.Type, fc.Storage.Type)
	setString(&c.Storage.SurrealURL, fc.Storage.SurrealURL)
	setString(&c.Storage.RedisURL, fc.Storage.RedisURL)
	setBool(&c.Storage.CacheEnabled, fc.Storage.CacheEnabled)
	setString(&c.Storage.BlobType, fc.Storage.BlobType)
	setString(&c.Storage.BlobRoot, fc.Storage.BlobRoot)
	setString(&c.Storage.S3Bucket, fc.Storage.S3Bucket)
	setString(&c.Storage.S3Endpoint, fc.Storage.S3Endpoint)

	setString(&c.Observability.LogLevel, fc.Observability.LogLevel)
	setString(&c.Observability.LogFormat, fc.Observability.LogFormat)
	setBool(&c.Observability.MetricsEnabled, fc.Observability.MetricsEnabled)
	setBool(&c.Observability.OTelEnabled, fc.Observability.OTelEnabled)
	setString(&c.Observability.OTelEndpoint, fc.Observability.OTelEndpoint)

	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
