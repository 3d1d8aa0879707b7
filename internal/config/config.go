// Package config defines the service's configuration shape and loads it
// from environment variables, with an optional YAML file for an owner-list
// override: env vars remain authoritative for everything else.
package config

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	yaml "gopkg.in/yaml.v3"
)

// ServerConfig controls the echo HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig is the shared Postgres DSN used by every "auto"/"postgres"
// backend below. Leaving it empty runs every store in memory.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// BackendConfig selects the storage backend ("", "memory", "postgres",
// "auto") per store, mirroring each package's own BackendConfig.Backend.
type BackendConfig struct {
	ConfigStore string `yaml:"config_store"`
	Experiments string `yaml:"experiments"`
	Metrics     string `yaml:"metrics"`
	Feedback    string `yaml:"feedback"`
	Security    string `yaml:"security"`
	// Jobs selects internal/jobs' Repository implementation ("" or
	// "memory" for the in-process sample-footage store, "postgres" to
	// read the externally-owned jobs table). Unlike the other stores
	// there is no "auto": defaulting to Postgres would silently point at
	// a table this service does not own.
	Jobs string `yaml:"jobs"`
}

// ClickHouseConfig holds the analytics-mirror settings read from the
// environment. main.go does not dial ClickHouse with them.
type ClickHouseConfig struct {
	DSN          string `yaml:"dsn"`
	Database     string `yaml:"database"`
	MetricsTable string `yaml:"metrics_table"`
}

// KafkaConfig configures the render-completed/config-activated event bus.
type KafkaConfig struct {
	Brokers              string `yaml:"brokers"`
	RenderCompletedTopic string `yaml:"render_completed_topic"`
	ConfigActivatedTopic string `yaml:"config_activated_topic"`
	ConsumerGroupID      string `yaml:"consumer_group_id"`
}

// OIDCConfig configures the operator login flow.
type OIDCConfig struct {
	Issuer       string `yaml:"issuer"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	CookieName   string `yaml:"cookie_name"`
}

// OperatorConfig holds the "email on owner list AND configured
// dev-password header" authorization rule's inputs.
type OperatorConfig struct {
	Owners            []string `yaml:"owners"`
	DevPasswordHeader string   `yaml:"dev_password_header"`
	DevPassword       string   `yaml:"dev_password"`
}

// RateLimitConfig configures the mutation-route limiter.
type RateLimitConfig struct {
	RequestsPerSecond int    `yaml:"requests_per_second"`
	BurstSize         int    `yaml:"burst_size"`
	RedisAddr         string `yaml:"redis_addr"`
}

// S3Config mirrors internal/archive.S3Config's fields so Load can populate
// it from the environment without archive importing config.
type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Prefix       string `yaml:"prefix"`
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// ArchiveConfig selects the audit-trail backend ("memory", "file", "s3").
type ArchiveConfig struct {
	Backend string   `yaml:"backend"`
	Dir     string   `yaml:"dir"`
	S3      S3Config `yaml:"s3"`
}

// ObsConfig configures OpenTelemetry tracing/metrics export.
type ObsConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	Environment    string `yaml:"environment"`
	OTLP           string `yaml:"otlp"`
	Insecure       bool   `yaml:"insecure"`
}

// Config is the fully-resolved configuration for the service.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Backends   BackendConfig    `yaml:"backends"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	OIDC       OIDCConfig       `yaml:"oidc"`
	Operator   OperatorConfig   `yaml:"operator"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Obs        ObsConfig        `yaml:"obs"`
	LogPath    string           `yaml:"log_path"`
	LogLevel   string           `yaml:"log_level"`
}

// presetOverrides is the shape of the optional YAML file: a non-empty
// operator owner list replaces the env-configured one, and nothing else is
// override-able from YAML, keeping env vars authoritative for everything else.
type presetOverrides struct {
	Operator struct {
		Owners []string `yaml:"owners"`
	} `yaml:"operator"`
}

// LoadOverrides reads an optional YAML file (via gopkg.in/yaml.v3) and
// merges its owner list into cfg. A missing file is not an error; callers
// typically pass this path only when an operator has opted into one.
func LoadOverrides(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		pterm.Error.Printf("error reading config overrides file: %v\n", err)
		return fmt.Errorf("read config overrides: %w", err)
	}

	var overrides presetOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		pterm.Error.Printf("error unmarshaling config overrides: %v\n", err)
		return fmt.Errorf("unmarshal config overrides: %w", err)
	}

	if len(overrides.Operator.Owners) > 0 {
		cfg.Operator.Owners = overrides.Operator.Owners
	}

	pterm.Success.Printf("Loaded configuration overrides from %s.\n", filename)
	return nil
}
