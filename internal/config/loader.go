package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".churnmap"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for churnmap settings.
const envPrefix = "CHURNMAP"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Defaults.
const (
	DefaultBackend        = BackendExec
	DefaultMaxFiles       = 100
	DefaultHost           = "localhost"
	DefaultPort           = 3000
	DefaultOpenBrowser    = true
	DefaultReadTimeout    = 15 * time.Second
	DefaultWriteTimeout   = 30 * time.Second
	DefaultCacheEntries   = 32
	DefaultLogLevel       = "info"
	DefaultEnvironment    = "development"
	DefaultHistoryTimeout = time.Duration(0)
)

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	return &Config{
		History: HistoryConfig{Backend: DefaultBackend, Timeout: DefaultHistoryTimeout},
		Graph:   GraphConfig{MaxFiles: DefaultMaxFiles},
		Server: ServerConfig{
			Host:         DefaultHost,
			Port:         DefaultPort,
			Open:         DefaultOpenBrowser,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			CacheEntries: DefaultCacheEntries,
		},
		Logging:   LoggingConfig{Level: DefaultLogLevel},
		Telemetry: TelemetryConfig{Environment: DefaultEnvironment},
	}
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("history.backend", DefaultBackend)
	viperCfg.SetDefault("history.since", "")
	viperCfg.SetDefault("history.until", "")
	viperCfg.SetDefault("history.timeout", DefaultHistoryTimeout)

	viperCfg.SetDefault("filter.include", []string{})
	viperCfg.SetDefault("filter.exclude", []string{})
	viperCfg.SetDefault("filter.skip_vendor", false)

	viperCfg.SetDefault("graph.max_files", DefaultMaxFiles)

	viperCfg.SetDefault("server.host", DefaultHost)
	viperCfg.SetDefault("server.port", DefaultPort)
	viperCfg.SetDefault("server.open", DefaultOpenBrowser)
	viperCfg.SetDefault("server.read_timeout", DefaultReadTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultWriteTimeout)
	viperCfg.SetDefault("server.cache_entries", DefaultCacheEntries)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", false)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.environment", DefaultEnvironment)
}
