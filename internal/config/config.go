package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// WorkerConfig contains the settings for the background task subsystem:
// pool sizing, claim behavior, retry policy, and shutdown coordination.
type WorkerConfig struct {
	// Concurrency is the number of workers in the pool.
	Concurrency int `mapstructure:"concurrency" validate:"required,gt=0"`

	// MaxAttempts bounds retryable failures before a task is dead-lettered.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gt=0"`

	// ClaimBatchSize is the maximum number of tasks claimed per cycle.
	ClaimBatchSize int `mapstructure:"claim_batch_size" validate:"required,gt=0"`

	// VisibilityTimeout is how long a claim remains exclusive before the
	// task becomes reclaimable by another worker.
	VisibilityTimeout time.Duration `mapstructure:"visibility_timeout" validate:"required"`

	// BlockTimeout bounds how long an empty claim call waits for work.
	BlockTimeout time.Duration `mapstructure:"block_timeout" validate:"required"`

	// ShutdownGracePeriod is how long Stop waits for in-flight tasks
	// before abandoning them to visibility-timeout reclamation.
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period" validate:"required"`

	// HandlerTimeout bounds a single handler invocation.
	HandlerTimeout time.Duration `mapstructure:"handler_timeout" validate:"required"`

	// BackoffBase, BackoffCap, and BackoffJitter parameterize the retry
	// delay: min(base*2^attempt, cap) plus a uniform jitter in [0, jitter).
	BackoffBase   time.Duration `mapstructure:"backoff_base" validate:"required"`
	BackoffCap    time.Duration `mapstructure:"backoff_cap" validate:"required"`
	BackoffJitter time.Duration `mapstructure:"backoff_jitter"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`

	// AdminPasswordHash is the bcrypt hash checked by the login endpoint.
	AdminPasswordHash string `mapstructure:"admin_password_hash" validate:"required"`

	// TokenTTL is how long issued session tokens stay valid.
	TokenTTL time.Duration `mapstructure:"token_ttl" validate:"required"`
}

// LLMConfig contains all LLM integration related settings.
// The group is optional: when GeminiAPIKey is empty the solve and embed
// handlers are not registered.
type LLMConfig struct {
	GeminiAPIKey   string `mapstructure:"gemini_api_key"`
	ModelName      string `mapstructure:"model_name"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}
