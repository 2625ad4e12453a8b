package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/procureflow/invoiceflow/internal/domain/match"
	"github.com/procureflow/invoiceflow/internal/domain/policy"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Matching MatchingConfig `mapstructure:"matching"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// OpenAIConfig holds the risk-scoring gateway configuration
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	PromptsPath string        `mapstructure:"prompts_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// MatchingConfig holds the three-way match tuning knobs
type MatchingConfig struct {
	PriceTolerancePct float64 `mapstructure:"price_tolerance_pct"`
	QuantityWeight    float64 `mapstructure:"quantity_weight"`
	PriceWeight       float64 `mapstructure:"price_weight"`
}

// ToMatchConfig converts the raw config numbers into the decimal
// weights the matching engine works in.
func (c MatchingConfig) ToMatchConfig() match.Config {
	return match.Config{
		PriceTolerancePct: decimal.NewFromFloat(c.PriceTolerancePct),
		QuantityWeight:    decimal.NewFromFloat(c.QuantityWeight),
		PriceWeight:       decimal.NewFromFloat(c.PriceWeight),
	}
}

// PolicyConfig holds the recommendation thresholds
type PolicyConfig struct {
	ApproveScore       float64 `mapstructure:"approve_score"`
	ReviewScore        float64 `mapstructure:"review_score"`
	EscalateOvercharge float64 `mapstructure:"escalate_overcharge"`
}

// ToThresholds converts the raw config numbers into policy thresholds.
func (c PolicyConfig) ToThresholds() policy.Thresholds {
	return policy.Thresholds{
		ApproveScore:       c.ApproveScore,
		ReviewScore:        c.ReviewScore,
		EscalateOvercharge: decimal.NewFromFloat(c.EscalateOvercharge),
	}
}

// WorkerConfig holds background worker configuration
type WorkerConfig struct {
	RiskPollInterval time.Duration `mapstructure:"risk_poll_interval"`
	RiskBatchSize    int           `mapstructure:"risk_batch_size"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("database.path", "data/invoiceflow.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	viper.SetDefault("openai.model", "gpt-4o-mini")
	viper.SetDefault("openai.timeout", 30*time.Second)

	viper.SetDefault("matching.price_tolerance_pct", 0.0)
	viper.SetDefault("matching.quantity_weight", 30.0)
	viper.SetDefault("matching.price_weight", 6.0)

	viper.SetDefault("policy.approve_score", 95.0)
	viper.SetDefault("policy.review_score", 70.0)
	viper.SetDefault("policy.escalate_overcharge", 100.0)

	viper.SetDefault("worker.risk_poll_interval", time.Minute)
	viper.SetDefault("worker.risk_batch_size", 10)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("database.path", "DATABASE_PATH")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}
	if c.Matching.PriceTolerancePct < 0 {
		return fmt.Errorf("matching.price_tolerance_pct must not be negative")
	}
	if c.Matching.QuantityWeight <= 0 || c.Matching.PriceWeight <= 0 {
		return fmt.Errorf("matching weights must be positive")
	}
	if c.Policy.ReviewScore >= c.Policy.ApproveScore {
		return fmt.Errorf("policy.review_score must be below policy.approve_score")
	}
	if c.Policy.EscalateOvercharge < 0 {
		return fmt.Errorf("policy.escalate_overcharge must not be negative")
	}
	if c.Worker.RiskPollInterval <= 0 {
		return fmt.Errorf("worker.risk_poll_interval must be positive")
	}
	if c.Worker.RiskBatchSize <= 0 {
		return fmt.Errorf("worker.risk_batch_size must be positive")
	}
	return nil
}
