package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables, optionally loaded
// from a .env file first, applying defaults after parsing each group.
func Load() (Config, error) {
	// Use Overload so .env values override existing OS environment
	// variables, giving local/dev configuration deterministic control.
	_ = godotenv.Overload()

	cfg := Config{}

	cfg.Server.Host = strings.TrimSpace(os.Getenv("HOST"))
	cfg.Server.Port = intFromEnv("PORT", 8090)

	cfg.Database.DSN = firstNonEmpty(
		strings.TrimSpace(os.Getenv("DATABASE_URL")),
		strings.TrimSpace(os.Getenv("DATABASE_DSN")),
	)

	defaultBackend := "memory"
	if cfg.Database.DSN != "" {
		defaultBackend = "auto"
	}
	cfg.Backends.ConfigStore = firstNonEmpty(strings.TrimSpace(os.Getenv("CONFIGSTORE_BACKEND")), defaultBackend)
	cfg.Backends.Experiments = firstNonEmpty(strings.TrimSpace(os.Getenv("EXPERIMENTS_BACKEND")), defaultBackend)
	cfg.Backends.Metrics = firstNonEmpty(strings.TrimSpace(os.Getenv("METRICS_BACKEND")), defaultBackend)
	cfg.Backends.Feedback = firstNonEmpty(strings.TrimSpace(os.Getenv("FEEDBACK_BACKEND")), defaultBackend)
	cfg.Backends.Security = firstNonEmpty(strings.TrimSpace(os.Getenv("SECURITY_BACKEND")), defaultBackend)
	cfg.Backends.Jobs = strings.TrimSpace(os.Getenv("JOBS_BACKEND"))

	cfg.ClickHouse.DSN = strings.TrimSpace(os.Getenv("CLICKHOUSE_DSN"))
	cfg.ClickHouse.Database = strings.TrimSpace(os.Getenv("CLICKHOUSE_DATABASE"))
	cfg.ClickHouse.MetricsTable = firstNonEmpty(strings.TrimSpace(os.Getenv("CLICKHOUSE_METRICS_TABLE")), "render_quality_metrics")

	cfg.Kafka.Brokers = firstNonEmpty(strings.TrimSpace(os.Getenv("KAFKA_BROKERS")), strings.TrimSpace(os.Getenv("KAFKA_BOOTSTRAP_SERVERS")))
	cfg.Kafka.RenderCompletedTopic = firstNonEmpty(strings.TrimSpace(os.Getenv("KAFKA_RENDER_COMPLETED_TOPIC")), "retentionloop.render.completed")
	cfg.Kafka.ConfigActivatedTopic = firstNonEmpty(strings.TrimSpace(os.Getenv("KAFKA_CONFIG_ACTIVATED_TOPIC")), "retentionloop.config.activated")
	cfg.Kafka.ConsumerGroupID = firstNonEmpty(strings.TrimSpace(os.Getenv("KAFKA_CONSUMER_GROUP_ID")), "retentionloop-feedback")

	cfg.OIDC.Issuer = strings.TrimSpace(os.Getenv("OIDC_ISSUER"))
	cfg.OIDC.ClientID = strings.TrimSpace(os.Getenv("OIDC_CLIENT_ID"))
	cfg.OIDC.ClientSecret = strings.TrimSpace(os.Getenv("OIDC_CLIENT_SECRET"))
	cfg.OIDC.RedirectURL = strings.TrimSpace(os.Getenv("OIDC_REDIRECT_URL"))
	cfg.OIDC.CookieName = firstNonEmpty(strings.TrimSpace(os.Getenv("OIDC_COOKIE_NAME")), "retentionloop_session")

	if v := strings.TrimSpace(os.Getenv("OPERATOR_OWNERS")); v != "" {
		cfg.Operator.Owners = parseCommaSeparatedList(v)
	}
	cfg.Operator.DevPasswordHeader = firstNonEmpty(strings.TrimSpace(os.Getenv("OPERATOR_DEV_PASSWORD_HEADER")), "X-Retentionloop-Dev-Password")
	cfg.Operator.DevPassword = strings.TrimSpace(os.Getenv("OPERATOR_DEV_PASSWORD"))

	cfg.RateLimit.RequestsPerSecond = intFromEnv("RATE_LIMIT_RPS", 5)
	cfg.RateLimit.BurstSize = intFromEnv("RATE_LIMIT_BURST", 10)
	cfg.RateLimit.RedisAddr = strings.TrimSpace(os.Getenv("RATE_LIMIT_REDIS_ADDR"))

	cfg.Archive.Backend = strings.TrimSpace(os.Getenv("ARCHIVE_BACKEND"))
	cfg.Archive.Dir = strings.TrimSpace(os.Getenv("ARCHIVE_DIR"))
	cfg.Archive.S3.Bucket = strings.TrimSpace(os.Getenv("ARCHIVE_S3_BUCKET"))
	cfg.Archive.S3.Region = firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_REGION")), "us-east-1")
	cfg.Archive.S3.Prefix = firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_PREFIX")), "retentionloop-audit")
	cfg.Archive.S3.Endpoint = strings.TrimSpace(os.Getenv("ARCHIVE_S3_ENDPOINT"))
	cfg.Archive.S3.AccessKey = strings.TrimSpace(os.Getenv("ARCHIVE_S3_ACCESS_KEY"))
	cfg.Archive.S3.SecretKey = strings.TrimSpace(os.Getenv("ARCHIVE_S3_SECRET_KEY"))
	if v := strings.TrimSpace(os.Getenv("ARCHIVE_S3_USE_PATH_STYLE")); v != "" {
		cfg.Archive.S3.UsePathStyle = strings.EqualFold(v, "true") || v == "1"
	}
	if cfg.Archive.Backend == "" {
		switch {
		case cfg.Archive.S3.Bucket != "":
			cfg.Archive.Backend = "s3"
		case cfg.Archive.Dir != "":
			cfg.Archive.Backend = "file"
		default:
			cfg.Archive.Backend = "memory"
		}
	}

	cfg.Obs.ServiceName = firstNonEmpty(strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME")), "retentionloop")
	cfg.Obs.ServiceVersion = strings.TrimSpace(os.Getenv("SERVICE_VERSION"))
	cfg.Obs.Environment = firstNonEmpty(strings.TrimSpace(os.Getenv("ENVIRONMENT")), "dev")
	cfg.Obs.OTLP = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	if v := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); v != "" {
		cfg.Obs.Insecure = strings.EqualFold(v, "true") || v == "1"
	}

	cfg.LogPath = strings.TrimSpace(os.Getenv("LOG_PATH"))
	cfg.LogLevel = firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_LEVEL")), "info")

	if v := strings.TrimSpace(os.Getenv("CONFIG_OVERRIDES_PATH")); v != "" {
		if err := LoadOverrides(&cfg, v); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := parseInt(v)
	if err != nil {
		return def
	}
	return n
}

func parseCommaSeparatedList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
