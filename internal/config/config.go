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
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	OpenWeather OpenWeatherConfig `yaml:"openweather" mapstructure:"openweather"`
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	Engine      EngineConfig      `yaml:"engine" mapstructure:"engine"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// OpenWeatherConfig holds telemetry provider settings.
type OpenWeatherConfig struct {
	Key     string   `yaml:"key" mapstructure:"key"`
	BaseURL string   `yaml:"base_url" mapstructure:"base_url"`
	Cities  []string `yaml:"cities" mapstructure:"cities"`
	RPS     float64  `yaml:"rps" mapstructure:"rps"`
}

// AnthropicConfig holds AI advisory settings. An empty key disables the AI
// path entirely; the deterministic scorer handles everything.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// EngineConfig holds decision-engine tuning: keyword tables and bounds.
// Keyword lists are data, not control flow, so they can be tuned without
// touching scoring logic.
type EngineConfig struct {
	CriticalKeywords []string `yaml:"critical_keywords" mapstructure:"critical_keywords"`
	MediumKeywords   []string `yaml:"medium_keywords" mapstructure:"medium_keywords"`

	// Report-batch priority thresholds.
	CriticalCountForCritical int `yaml:"critical_count_for_critical" mapstructure:"critical_count_for_critical"`
	CriticalCountForMedium   int `yaml:"critical_count_for_medium" mapstructure:"critical_count_for_medium"`
	MediumCountForMedium     int `yaml:"medium_count_for_medium" mapstructure:"medium_count_for_medium"`

	// Prompt and output bounds.
	MaxPromptReports int `yaml:"max_prompt_reports" mapstructure:"max_prompt_reports"`
	MaxRiskFactors   int `yaml:"max_risk_factors" mapstructure:"max_risk_factors"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("STORMWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "stormwatch.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("openweather.base_url", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("openweather.rps", 1.0)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("engine.critical_count_for_critical", 5)
	v.SetDefault("engine.critical_count_for_medium", 2)
	v.SetDefault("engine.medium_count_for_medium", 10)
	v.SetDefault("engine.max_prompt_reports", 30)
	v.SetDefault("engine.max_risk_factors", 10)

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
