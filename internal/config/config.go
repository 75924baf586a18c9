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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Ingest  IngestConfig  `yaml:"ingest" mapstructure:"ingest"`
	Feeds   FeedsConfig   `yaml:"feeds" mapstructure:"feeds"`
	Fetcher FetcherConfig `yaml:"fetcher" mapstructure:"fetcher"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the aggregate database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// IngestConfig configures the ingestion workers.
type IngestConfig struct {
	ChunkRows        int    `yaml:"chunk_rows" mapstructure:"chunk_rows"`
	SampleRows       int    `yaml:"sample_rows" mapstructure:"sample_rows"`
	Workers          int    `yaml:"workers" mapstructure:"workers"`
	OutputWorkers    int    `yaml:"output_workers" mapstructure:"output_workers"`
	OutputDir        string `yaml:"output_dir" mapstructure:"output_dir"`
	TempDir          string `yaml:"temp_dir" mapstructure:"temp_dir"`
	FetchTimeoutSecs int    `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	AliasFile        string `yaml:"alias_file" mapstructure:"alias_file"`
}

// FeedsConfig holds the routing thresholds for the default classifier.
type FeedsConfig struct {
	ChurnThreshold  float64 `yaml:"churn_threshold" mapstructure:"churn_threshold"`
	EquityThreshold float64 `yaml:"equity_threshold" mapstructure:"equity_threshold"`
}

// FetcherConfig configures source downloads.
type FetcherConfig struct {
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
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
	v.SetEnvPrefix("AXIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "axis.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("ingest.chunk_rows", 5000)
	v.SetDefault("ingest.sample_rows", 25)
	v.SetDefault("ingest.workers", 4)
	v.SetDefault("ingest.output_workers", 3)
	v.SetDefault("ingest.output_dir", "output")
	v.SetDefault("ingest.fetch_timeout_secs", 300)
	v.SetDefault("feeds.churn_threshold", 70)
	v.SetDefault("feeds.equity_threshold", 250000)
	v.SetDefault("fetcher.user_agent", "axis/1.0")
	v.SetDefault("fetcher.timeout_secs", 30)
	v.SetDefault("fetcher.max_retries", 3)
	v.SetDefault("fetcher.requests_per_second", 5)

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
