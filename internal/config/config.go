// Package config loads the typed service configuration from the environment,
// following an env-first loading pattern.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds every environment variable recognized by the service
// plus the service-level operational knobs the ambient stack needs.
type Config struct {
	Port string `env:"PORT,default=8080"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`

	MetricsEnabled bool `env:"METRICS_ENABLED,default=true"`

	Neo4jURI      string `env:"NEO4J_URI,required"`
	Neo4jUser     string `env:"NEO4J_USER,required"`
	Neo4jPassword string `env:"NEO4J_PASSWORD,required"`

	SupabaseURL            string `env:"SUPABASE_URL,required"`
	SupabaseAnonKey        string `env:"SUPABASE_ANON_KEY,required"`
	SupabaseServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY,required"`
	SupabaseJWTSecret      string `env:"SUPABASE_JWT_SECRET,required"`

	APIKeySecret string `env:"API_KEY_SECRET,required"`

	RedisAddr     string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`

	DefaultGraphID string `env:"NEXT_PUBLIC_GRAPH_ID"`

	RateLimitRPS            int `env:"RATE_LIMIT_RPS,default=20"`
	RateLimitBurst          int `env:"RATE_LIMIT_BURST,default=40"`
	SSEHeartbeatSeconds     int `env:"SSE_HEARTBEAT_SECONDS,default=15"`
	SSEMaxLifetimeSeconds   int `env:"SSE_MAX_LIFETIME_SECONDS,default=300"`
	LongPollMaxWaitSeconds  int `env:"LONG_POLL_MAX_WAIT_SECONDS,default=5"`
	StaleAgentGraceSeconds  int `env:"STALE_AGENT_GRACE_SECONDS,default=300"`
	ShutdownTimeoutSeconds  int `env:"SHUTDOWN_TIMEOUT_SECONDS,default=15"`
}

// Load reads a local .env file (if present, development convenience only) and
// decodes the process environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// SSEHeartbeat returns the configured SSE heartbeat interval, clamped to the
// spec's 30s ceiling.
func (c *Config) SSEHeartbeat() time.Duration {
	d := time.Duration(c.SSEHeartbeatSeconds) * time.Second
	if d <= 0 || d > 30*time.Second {
		return 15 * time.Second
	}
	return d
}

// SSEMaxLifetime returns the hard lifetime after which an SSE client must reconnect.
func (c *Config) SSEMaxLifetime() time.Duration {
	d := time.Duration(c.SSEMaxLifetimeSeconds) * time.Second
	if d <= 0 || d > 5*time.Minute {
		return 5 * time.Minute
	}
	return d
}

// LongPollMaxWait returns the long-poll max wait, clamped to [1s, 30s].
func (c *Config) LongPollMaxWait() time.Duration {
	d := time.Duration(c.LongPollMaxWaitSeconds) * time.Second
	if d <= 0 {
		return 5 * time.Second
	}
	if d > 30*time.Second {
		return 30 * time.Second
	}
	return d
}

func (c *Config) StaleAgentGrace() time.Duration {
	d := time.Duration(c.StaleAgentGraceSeconds) * time.Second
	if d <= 0 {
		return 5 * time.Minute
	}
	return d
}

func (c *Config) ShutdownTimeout() time.Duration {
	d := time.Duration(c.ShutdownTimeoutSeconds) * time.Second
	if d <= 0 {
		return 15 * time.Second
	}
	return d
}

// Env reports the runtime environment name (development by default), used to
// choose log format and CORS strictness.
func Env() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	if v == "" {
		return "development"
	}
	return v
}

// IsProduction reports whether Env() indicates a production deployment.
func IsProduction() bool {
	return Env() == "production" || Env() == "prod"
}
