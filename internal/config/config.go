package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Research  ResearchConfig  `yaml:"research" mapstructure:"research"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Dedup     DedupConfig     `yaml:"dedup" mapstructure:"dedup"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Bundles   BundleConfig    `yaml:"bundles" mapstructure:"bundles"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ResearchConfig configures the AI research client.
type ResearchConfig struct {
	Provider      string  `yaml:"provider" mapstructure:"provider"` // openrouter or anthropic
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	Model         string  `yaml:"model" mapstructure:"model"`
	MaxTokens     int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature   float64 `yaml:"temperature" mapstructure:"temperature"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerMinute int     `yaml:"rate_per_minute" mapstructure:"rate_per_minute"` // 0 = unlimited
	Referer       string  `yaml:"referer" mapstructure:"referer"`
	Title         string  `yaml:"title" mapstructure:"title"`
}

// AnthropicConfig holds Anthropic API settings for the anthropic provider.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// DedupConfig configures duplicate detection.
type DedupConfig struct {
	DefaultThreshold float64 `yaml:"default_threshold" mapstructure:"default_threshold"`
	Weighting        string  `yaml:"weighting" mapstructure:"weighting"` // renormalize or fixed
}

// ScoringConfig configures the lead scorer.
type ScoringConfig struct {
	UnknownCategory string  `yaml:"unknown_category" mapstructure:"unknown_category"` // strict or reserved
	Iterations      int     `yaml:"iterations" mapstructure:"iterations"`
	LearningRate    float64 `yaml:"learning_rate" mapstructure:"learning_rate"`
	C               float64 `yaml:"c" mapstructure:"c"`
}

// BundleConfig selects where model bundles are persisted.
type BundleConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // file, sqlite or postgres
	Dir         string `yaml:"dir" mapstructure:"dir"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BatchConfig configures batch research.
type BatchConfig struct {
	MaxConcurrentRequests int `yaml:"max_concurrent_requests" mapstructure:"max_concurrent_requests"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials also honour the providers' conventional variables.
	_ = v.BindEnv("research.key", "LEADINTEL_RESEARCH_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("anthropic.key", "LEADINTEL_ANTHROPIC_KEY", "ANTHROPIC_API_KEY")

	// Defaults
	v.SetDefault("research.provider", "openrouter")
	v.SetDefault("research.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("research.model", "anthropic/claude-3.5-sonnet")
	v.SetDefault("research.max_tokens", 1500)
	v.SetDefault("research.temperature", 0.3)
	v.SetDefault("research.timeout_secs", 30)
	v.SetDefault("research.rate_per_minute", 0)
	v.SetDefault("research.referer", "")
	v.SetDefault("research.title", "Lead Intelligence Research")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("dedup.default_threshold", 85.0)
	v.SetDefault("dedup.weighting", "renormalize")
	v.SetDefault("scoring.unknown_category", "strict")
	v.SetDefault("scoring.iterations", 500)
	v.SetDefault("scoring.learning_rate", 0.5)
	v.SetDefault("scoring.c", 1.0)
	v.SetDefault("bundles.driver", "file")
	v.SetDefault("bundles.dir", "models")
	v.SetDefault("bundles.database_url", "")
	v.SetDefault("batch.max_concurrent_requests", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes:
// "research" (research client), "models" (bundles, dedup and scoring) and
// "all".
func (c *Config) Validate(mode string) error {
	var errs []string

	if mode == "research" || mode == "all" {
		switch c.Research.Provider {
		case "openrouter":
			if c.Research.Key == "" {
				errs = append(errs, "research.key is required for the openrouter provider")
			}
			if c.Research.BaseURL == "" {
				errs = append(errs, "research.base_url is required")
			}
		case "anthropic":
			if c.Anthropic.Key == "" {
				errs = append(errs, "anthropic.key is required for the anthropic provider")
			}
		default:
			errs = append(errs, "research.provider must be openrouter or anthropic")
		}
		if c.Research.TimeoutSecs <= 0 {
			errs = append(errs, "research.timeout_secs must be > 0")
		}
		if c.Research.MaxTokens <= 0 {
			errs = append(errs, "research.max_tokens must be > 0")
		}
		if c.Research.RatePerMinute < 0 {
			errs = append(errs, "research.rate_per_minute must be >= 0")
		}
	}

	if mode == "models" || mode == "all" {
		switch c.Bundles.Driver {
		case "file", "sqlite", "postgres":
		default:
			errs = append(errs, "bundles.driver must be file, sqlite or postgres")
		}
		if c.Bundles.Driver != "file" && c.Bundles.DatabaseURL == "" {
			errs = append(errs, "bundles.database_url is required for the "+c.Bundles.Driver+" driver")
		}
		if c.Dedup.DefaultThreshold <= 0 || c.Dedup.DefaultThreshold > 100 {
			errs = append(errs, "dedup.default_threshold must be in (0, 100]")
		}
		if c.Dedup.Weighting != "renormalize" && c.Dedup.Weighting != "fixed" {
			errs = append(errs, "dedup.weighting must be renormalize or fixed")
		}
		if c.Scoring.UnknownCategory != "strict" && c.Scoring.UnknownCategory != "reserved" {
			errs = append(errs, "scoring.unknown_category must be strict or reserved")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
