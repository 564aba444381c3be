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
	AppEnv      string `env:"APP_ENV" envDefault:"dev"`
	Port        int    `env:"PORT" envDefault:"8080"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"meeting-summarizer"`

	// DBURL enables the summary history endpoint when set.
	DBURL string `env:"DB_URL"`
	// RedisURL switches the cache and rate-window stores to Redis when set;
	// otherwise both stay in process memory.
	RedisURL string `env:"REDIS_URL"`

	OpenAIAPIKey  string  `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string  `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	ChatModel     string  `env:"CHAT_MODEL" envDefault:"gpt-4o-mini"`
	Temperature   float64 `env:"CHAT_TEMPERATURE" envDefault:"0.7"`
	MaxTokens     int     `env:"CHAT_MAX_TOKENS" envDefault:"4000"`
	// AIUseStub replaces the provider with the deterministic stub client.
	AIUseStub bool `env:"AI_USE_STUB" envDefault:"false"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`

	// Call-path resilience. Max attempts count retries after the initial
	// attempt; base delays seed the exponential schedule.
	AITimeout        time.Duration `env:"AI_TIMEOUT" envDefault:"30s"`
	AIMaxAttempts    int           `env:"AI_MAX_ATTEMPTS" envDefault:"2"`
	AIBaseDelay      time.Duration `env:"AI_BASE_DELAY" envDefault:"500ms"`
	EmailTimeout     time.Duration `env:"EMAIL_TIMEOUT" envDefault:"30s"`
	EmailMaxAttempts int           `env:"EMAIL_MAX_ATTEMPTS" envDefault:"2"`
	EmailBaseDelay   time.Duration `env:"EMAIL_BASE_DELAY" envDefault:"1s"`
	RetryJitter      bool          `env:"RETRY_JITTER" envDefault:"false"`

	// Fixed-window rate limits per route. The email policy is canonically
	// 1h/20; set RATE_EMAIL_WINDOW=15m RATE_EMAIL_MAX=10 for the stricter
	// preset some deployments used.
	RateGeneralWindow   time.Duration `env:"RATE_GENERAL_WINDOW" envDefault:"15m"`
	RateGeneralMax      int           `env:"RATE_GENERAL_MAX" envDefault:"100"`
	RateSummarizeWindow time.Duration `env:"RATE_SUMMARIZE_WINDOW" envDefault:"2m"`
	RateSummarizeMax    int           `env:"RATE_SUMMARIZE_MAX" envDefault:"5"`
	RateEmailWindow     time.Duration `env:"RATE_EMAIL_WINDOW" envDefault:"1h"`
	RateEmailMax        int           `env:"RATE_EMAIL_MAX" envDefault:"20"`

	SummaryCacheTTL time.Duration `env:"SUMMARY_CACHE_TTL" envDefault:"10m"`

	TranscriptMinChars int `env:"TRANSCRIPT_MIN_CHARS" envDefault:"10"`
	TranscriptMaxChars int `env:"TRANSCRIPT_MAX_CHARS" envDefault:"200000"`

	PromptConfigPath string `env:"PROMPT_CONFIG_PATH" envDefault:"configs/prompts/summary.yaml"`

	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	OTLPEndpoint          string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

// AdminEnabled returns true if the admin endpoints should be mounted.
func (c Config) AdminEnabled() bool {
	return c.AdminUsername != "" && c.AdminPassword != ""
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

// AIRetry returns the attempt budget and base delay for the AI call path.
// In test environments delays shrink for fast test execution.
func (c Config) AIRetry() (maxAttempts int, baseDelay time.Duration) {
	if c.IsTest() {
		return c.AIMaxAttempts, 10 * time.Millisecond
	}
	return c.AIMaxAttempts, c.AIBaseDelay
}

// EmailRetry returns the attempt budget and base delay for the email path.
func (c Config) EmailRetry() (maxAttempts int, baseDelay time.Duration) {
	if c.IsTest() {
		return c.EmailMaxAttempts, 10 * time.Millisecond
	}
	return c.EmailMaxAttempts, c.EmailBaseDelay
}
