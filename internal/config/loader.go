package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the configuration file.
const (
	EnvClientID     = "QIVIVO_CLIENT_ID"
	EnvClientSecret = "QIVIVO_CLIENT_SECRET"
	EnvBaseURL      = "QIVIVO_BASE_URL"
	EnvLogLevel     = "QIVIVO_LOG_LEVEL"
)

// DefaultSchedule is the polling schedule of the watch command.
const DefaultSchedule = "@every 5m"

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}

// DefaultConfigPaths defines the default locations to search for configuration files
var DefaultConfigPaths = []string{
	"./qivivo.yaml",
	"./qivivo.yml",
	"./configs/qivivo.yaml",
	userConfigPath(),
	"/etc/qivivo/config.yaml",
}

func userConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, "qivivo", "config.yaml")
}

// LoadDotEnv loads variables from a .env file into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load loads the configuration from the specified file or default locations,
// then applies environment overrides and validates the result.
func Load(configPath string) (*Config, error) {
	config := defaults()

	if configPath == "" {
		configPath = findConfigFile()
	} else if !fileExists(configPath) {
		return nil, fmt.Errorf("config file %s not found", configPath)
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		data = expandEnvVars(data)

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		config.Source = configPath
	}

	applyEnv(config)

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

func defaults() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Watch: WatchConfig{
			Schedule: DefaultSchedule,
		},
	}
}

func applyEnv(config *Config) {
	if v := os.Getenv(EnvClientID); v != "" {
		config.Qivivo.ClientID = v
	}
	if v := os.Getenv(EnvClientSecret); v != "" {
		config.Qivivo.ClientSecret = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		config.Qivivo.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.Logging.Level = v
	}
}

// findConfigFile searches for a configuration file in default locations
func findConfigFile() string {
	for _, path := range DefaultConfigPaths {
		if path != "" && fileExists(path) {
			return path
		}
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// validate performs basic validation on the configuration
func validate(config *Config) error {
	if config.Qivivo.ClientID == "" {
		return fmt.Errorf("qivivo.client_id is required (or set %s)", EnvClientID)
	}
	if config.Qivivo.ClientSecret == "" {
		return fmt.Errorf("qivivo.client_secret is required (or set %s)", EnvClientSecret)
	}
	if config.Qivivo.Timeout < 0 {
		return fmt.Errorf("qivivo.timeout must not be negative")
	}
	if config.Qivivo.RateLimit < 0 {
		return fmt.Errorf("qivivo.rate_limit must not be negative")
	}
	if _, err := config.Qivivo.Location(); err != nil {
		return fmt.Errorf("qivivo.timezone: %w", err)
	}

	switch config.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", config.Logging.Format)
	}

	if config.Watch.Schedule == "" {
		config.Watch.Schedule = DefaultSchedule
	}

	return nil
}
