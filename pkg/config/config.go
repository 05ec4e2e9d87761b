package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Scoring configuration
	Scoring ScoringConfig `mapstructure:"scoring"`

	// Analysis configuration
	Analysis AnalysisConfig `mapstructure:"analysis"`

	// Progress store configuration
	Progress ProgressConfig `mapstructure:"progress"`

	// Record store configuration
	Store StoreConfig `mapstructure:"store"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Alert configuration
	Alert AlertConfig `mapstructure:"alert"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// ScoringConfig holds configuration for the remote scoring service client
type ScoringConfig struct {
	Backend string `mapstructure:"backend"` // workflow, openai
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"` // openai backend only

	// Timeout bounds one scoring request, in seconds. It must stay larger
	// than the submission stagger so requests can overlap.
	Timeout int `mapstructure:"timeout"`

	// RequestsPerMinute throttles outbound calls. Zero disables the limiter.
	RequestsPerMinute int     `mapstructure:"requests_per_minute"`
	Temperature       float32 `mapstructure:"temperature"`
	MaxTokens         int     `mapstructure:"max_tokens"`
}

// AnalysisConfig holds the orchestration policy for one analysis run
type AnalysisConfig struct {
	// Concurrency caps the number of in-flight scoring requests.
	Concurrency int `mapstructure:"concurrency"`

	// Stagger is the delay between consecutive task submissions, in seconds.
	Stagger int `mapstructure:"stagger"`

	// TaskTimeout bounds one scoring task end to end, in seconds.
	TaskTimeout int `mapstructure:"task_timeout"`

	// NeutralScore is the overall score given by the fallback scorer.
	NeutralScore float64 `mapstructure:"neutral_score"`

	// ScoreWeight and PriceWeight combine into the budget ranking composite.
	ScoreWeight float64 `mapstructure:"score_weight"`
	PriceWeight float64 `mapstructure:"price_weight"`
}

// ProgressConfig holds progress store retention settings
type ProgressConfig struct {
	// TTL is how long a terminal snapshot stays readable, in minutes.
	TTL int `mapstructure:"ttl"`

	// MaxEntries caps the number of tracked sessions. Zero means unbounded.
	MaxEntries int `mapstructure:"max_entries"`
}

// StoreConfig holds record store configuration
type StoreConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// AlertConfig holds configuration for alerting
type AlertConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Scoring defaults
	viper.SetDefault("scoring.backend", "workflow")
	viper.SetDefault("scoring.base_url", "https://api.dify.ai/v1/workflows/run")
	viper.SetDefault("scoring.timeout", 90)
	viper.SetDefault("scoring.requests_per_minute", 30)
	viper.SetDefault("scoring.model", "gpt-4o-mini")
	viper.SetDefault("scoring.temperature", 0.1)
	viper.SetDefault("scoring.max_tokens", 2048)

	// Analysis defaults
	viper.SetDefault("analysis.concurrency", 10)
	viper.SetDefault("analysis.stagger", 5)
	viper.SetDefault("analysis.task_timeout", 120)
	viper.SetDefault("analysis.neutral_score", 70)
	viper.SetDefault("analysis.score_weight", 0.7)
	viper.SetDefault("analysis.price_weight", 0.3)

	// Progress store defaults
	viper.SetDefault("progress.ttl", 30)
	viper.SetDefault("progress.max_entries", 0)

	// Record store defaults
	viper.SetDefault("store.path", "./feedwise_db")
	viper.SetDefault("store.in_memory", false)

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 3)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 120)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		defaultPath := fmt.Sprintf("%s/.feedwise/telemetry", home)
		viper.SetDefault("telemetry.parquet_path", defaultPath)
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("SCORING_API_KEY"); apiKey != "" {
		config.Scoring.APIKey = apiKey
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && config.Scoring.Backend == "openai" {
		config.Scoring.APIKey = apiKey
	}
	if baseURL := os.Getenv("SCORING_BASE_URL"); baseURL != "" {
		config.Scoring.BaseURL = baseURL
	}
}
