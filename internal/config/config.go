// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`
	// DBURL enables report persistence when non-empty.
	DBURL string `env:"DB_URL"`
	// DBConnectMaxElapsed bounds the startup ping retries against postgres.
	DBConnectMaxElapsed time.Duration `env:"DB_CONNECT_MAX_ELAPSED" envDefault:"30s"`
	// ReportRetentionDays bounds how long stored reports are kept.
	ReportRetentionDays   int           `env:"REPORT_RETENTION_DAYS" envDefault:"90"`
	ReportCleanupInterval time.Duration `env:"REPORT_CLEANUP_INTERVAL" envDefault:"24h"`
	// RedisURL enables the AI response cache when non-empty.
	RedisURL              string        `env:"REDIS_URL"`
	AICacheTTL            time.Duration `env:"AI_CACHE_TTL" envDefault:"24h"`
	AIAPIKey              string        `env:"AI_API_KEY"`
	AIBaseURL             string        `env:"AI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	AIModel               string        `env:"AI_MODEL" envDefault:"gpt-4o-mini"`
	AIMaxTokens           int           `env:"AI_MAX_TOKENS" envDefault:"2048"`
	AITemperature         float64       `env:"AI_TEMPERATURE" envDefault:"0.2"`
	AICallTimeout         time.Duration `env:"AI_CALL_TIMEOUT" envDefault:"60s"`
	AICostPer1KTokens     float64       `env:"AI_COST_PER_1K_TOKENS" envDefault:"0.0006"`
	LexiconPath           string        `env:"LEXICON_PATH"`
	MaxEssayChars         int           `env:"MAX_ESSAY_CHARS" envDefault:"20000"`
	MaxUploadKB           int64         `env:"MAX_UPLOAD_KB" envDefault:"256"`
	OTLPEndpoint          string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName       string        `env:"OTEL_SERVICE_NAME" envDefault:"ielts-writing-coach"`
	CORSAllowOrigins      []string      `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimitPerMin       int           `env:"RATE_LIMIT_PER_MIN" envDefault:"30"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	// HTTPWriteTimeout must cover two sequential AI round trips.
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"150s"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// PersistenceEnabled reports whether analysis reports are stored.
func (c Config) PersistenceEnabled() bool { return strings.TrimSpace(c.DBURL) != "" }

// CacheEnabled reports whether AI responses are cached in redis.
func (c Config) CacheEnabled() bool { return strings.TrimSpace(c.RedisURL) != "" && c.AICacheTTL > 0 }

// AICallTimeoutFor returns the per-call AI deadline. Test environments use a
// much shorter bound so a stuck fake never stalls the suite.
func (c Config) AICallTimeoutFor() time.Duration {
	if c.IsTest() {
		return 5 * time.Second
	}
	if c.AICallTimeout <= 0 {
		return 60 * time.Second
	}
	return c.AICallTimeout
}
