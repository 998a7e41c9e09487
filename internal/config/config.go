package config

import (
	"time"
)

// Config is the configuration of the qivivo command.
type Config struct {
	Qivivo  QivivoConfig  `yaml:"qivivo"`
	Logging LoggingConfig `yaml:"logging"`
	Watch   WatchConfig   `yaml:"watch"`

	// Source is the file the configuration was read from, empty for defaults only.
	Source string `yaml:"-"`
}

// QivivoConfig holds the API credentials and client settings.
type QivivoConfig struct {
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	BaseURL      string        `yaml:"base_url"`
	OAuthURL     string        `yaml:"oauth_url"`
	Timeout      time.Duration `yaml:"timeout"`
	// Timezone is the IANA zone of the dates reported by the server.
	Timezone string `yaml:"timezone"`
	// RateLimit is the maximum number of API requests per second, 0 for none.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// LoggingConfig configures the command's logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Schedule string `yaml:"schedule"`
	// Devices restricts polling to these UUIDs; empty polls every device.
	Devices []string `yaml:"devices"`
}

// Location returns the time zone of server dates.
func (c QivivoConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
