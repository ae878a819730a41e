package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultUserAgent is the default User-Agent string sent with all HTTP requests.
const DefaultUserAgent = "FusionMediaProvider/1.0 (+https://github.com/tornado-product/FusionMediaProvider)"

// ProviderSettings configures one media provider.
type ProviderSettings struct {
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"` // Overrides the public API endpoint, mostly for tests
	Disabled bool   `mapstructure:"disabled"`
}

type Config struct {
	ProxyConnectionString string                      `mapstructure:"proxy_connection_string"`
	ClientTimeout         string                      `mapstructure:"client_timeout"` // Go duration string like "30s", "1h", etc.
	UserAgent             string                      `mapstructure:"user_agent"`
	LogLevel              string                      `mapstructure:"log_level"`
	Providers             map[string]ProviderSettings `mapstructure:"providers"`
	Download              struct {
		OutputDir        string `mapstructure:"output_dir"`
		ImageQuality     string `mapstructure:"image_quality"`
		VideoQuality     string `mapstructure:"video_quality"`
		UseOriginalNames bool   `mapstructure:"use_original_names"`
		MaxConcurrent    int    `mapstructure:"max_concurrent"`
		Resume           bool   `mapstructure:"resume"`
		ProgressInterval string `mapstructure:"progress_interval"` // Minimum time between streaming progress events
	} `mapstructure:"download"`
	Search struct {
		Limit                   int    `mapstructure:"limit"`
		BreakerFailureThreshold uint   `mapstructure:"breaker_failure_threshold"`
		BreakerDelay            string `mapstructure:"breaker_delay"`
	} `mapstructure:"search"`
	Cache struct {
		Backend       string `mapstructure:"backend"` // "memory", "redis" or "none"
		Size          int    `mapstructure:"size"`    // Maximum number of entries in the LRU cache
		TTL           string `mapstructure:"ttl"`     // Go duration string like "1h", "24h", etc.
		RedisAddress  string `mapstructure:"redis_address"`
		RedisPassword string `mapstructure:"redis_password"`
		RedisDB       int    `mapstructure:"redis_db"`
	} `mapstructure:"cache"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Sentry struct {
		DSN         string `mapstructure:"dsn"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"sentry"`
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	// Initialize zerolog with console writer for human-readable output
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: false,
	}).With().Timestamp().Logger()

	config, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	// Parse and set log level from config
	level := zerolog.InfoLevel // default
	if config.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", config.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	zerolog.SetGlobalLevel(level)
	logger = logger.Level(level)

	logger.Debug().Str("level", level.String()).Msg("Logging configured")
	globalConfig = config
}

// LoadConfig reads config.yaml (if any), environment variables and defaults into a Config.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variable support
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("providers.pixabay.api_key", "APP_PROVIDERS_PIXABAY_API_KEY", "PIXABAY_API_KEY")
	_ = v.BindEnv("providers.pexels.api_key", "APP_PROVIDERS_PEXELS_API_KEY", "PEXELS_API_KEY")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("client_timeout", "30s")
	v.SetDefault("providers.pixabay.api_key", "")
	v.SetDefault("providers.pixabay.disabled", false)
	v.SetDefault("providers.pexels.api_key", "")
	v.SetDefault("providers.pexels.disabled", false)

	v.SetDefault("download.output_dir", "./downloads")
	v.SetDefault("download.image_quality", "large")
	v.SetDefault("download.video_quality", "large")
	v.SetDefault("download.use_original_names", false)
	v.SetDefault("download.max_concurrent", 5)
	v.SetDefault("download.resume", true)
	v.SetDefault("download.progress_interval", "100ms")

	v.SetDefault("search.limit", 20)
	v.SetDefault("search.breaker_failure_threshold", 5)
	v.SetDefault("search.breaker_delay", "30s")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.size", 500)
	v.SetDefault("cache.ttl", "1h")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
}

func GetConfig() *Config {
	return globalConfig
}

func GetUserAgent() string {
	if globalConfig != nil && globalConfig.UserAgent != "" {
		return globalConfig.UserAgent
	}

	return DefaultUserAgent
}

func GetLogger() zerolog.Logger {
	return logger
}

// ParseDuration parses a Go duration string, logging and returning fallback when it is empty or invalid.
func ParseDuration(field, value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn().Err(err).Str("field", field).Str("value", value).Dur("fallback", fallback).Msg("Invalid duration, using default")
		return fallback
	}
	return d
}
