// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/wikipedia-enrich/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store     store.Config    `yaml:"store" mapstructure:"store"`
	Wikipedia WikipediaConfig `yaml:"wikipedia" mapstructure:"wikipedia"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Rules     RulesConfig     `yaml:"rules" mapstructure:"rules"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// WikipediaConfig holds Wikipedia API client settings.
type WikipediaConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	APIBaseURL  string `yaml:"api_base_url" mapstructure:"api_base_url"`
	RESTBaseURL string `yaml:"rest_base_url" mapstructure:"rest_base_url"`
	// DelayMs is the minimum spacing between requests to the host.
	DelayMs int `yaml:"delay_ms" mapstructure:"delay_ms"`
	// Retries is the number of retries after the initial attempt.
	Retries       int `yaml:"retries" mapstructure:"retries"`
	BackoffMs     int `yaml:"backoff_ms" mapstructure:"backoff_ms"`
	MaxBackoffMs  int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	TimeoutSecs   int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	BreakerOpens  int `yaml:"breaker_opens" mapstructure:"breaker_opens"`
	BreakerResetS int `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// Delay returns the request spacing as a duration.
func (c WikipediaConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// EnrichConfig configures the enrichment pipeline.
type EnrichConfig struct {
	SearchLimit int `yaml:"search_limit" mapstructure:"search_limit"`
	DelayMs     int `yaml:"delay_ms" mapstructure:"delay_ms"`
	// Workers caps companies in flight; 1 means strictly sequential.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// Exhaustive scores every search variant instead of stopping at the
	// first confident hit.
	Exhaustive bool `yaml:"exhaustive" mapstructure:"exhaustive"`
}

// Delay returns the inter-call pause as a duration.
func (c EnrichConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// RulesConfig points at the optional matching rules overlay file.
type RulesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
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
	v.SetEnvPrefix("WIKIENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "wikipedia-enrich.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("wikipedia.user_agent", "wikipedia-enrich/1.0 (data@sellsadvisors.com)")
	v.SetDefault("wikipedia.api_base_url", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("wikipedia.rest_base_url", "https://en.wikipedia.org/api/rest_v1")
	v.SetDefault("wikipedia.delay_ms", 250)
	v.SetDefault("wikipedia.retries", 3)
	v.SetDefault("wikipedia.backoff_ms", 500)
	v.SetDefault("wikipedia.max_backoff_ms", 30000)
	v.SetDefault("wikipedia.timeout_secs", 30)
	v.SetDefault("wikipedia.breaker_opens", 5)
	v.SetDefault("wikipedia.breaker_reset_secs", 60)
	v.SetDefault("enrich.search_limit", 15)
	v.SetDefault("enrich.delay_ms", 250)
	v.SetDefault("enrich.workers", 1)
	v.SetDefault("enrich.exhaustive", false)

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

// Validate checks cross-field constraints before a run.
func (c *Config) Validate() error {
	var problems []string

	if c.Wikipedia.UserAgent == "" {
		problems = append(problems, "wikipedia.user_agent is required")
	}
	if c.Wikipedia.Retries < 0 {
		problems = append(problems, "wikipedia.retries must be >= 0")
	}
	if c.Enrich.Workers < 1 || c.Enrich.Workers > 50 {
		problems = append(problems, "enrich.workers must be between 1 and 50")
	}
	if c.Enrich.SearchLimit < 1 || c.Enrich.SearchLimit > 50 {
		problems = append(problems, "enrich.search_limit must be between 1 and 50")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
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
