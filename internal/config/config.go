// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Transport names.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds everything the process reads at startup.
type Config struct {
	ZulipEmail   string        `env:"ZULIP_EMAIL,required,notEmpty"`
	ZulipAPIKey  string        `env:"ZULIP_API_KEY,required,notEmpty"`
	ZulipURL     string        `env:"ZULIP_URL,required,notEmpty"`
	ZulipTimeout time.Duration `env:"ZULIP_TIMEOUT" envDefault:"30s"`
	ZulipVerify  bool          `env:"ZULIP_VERIFY" envDefault:"true"`

	Transport   string `env:"MCP_TRANSPORT" envDefault:"stdio"`
	Port        string `env:"PORT" envDefault:"3000"`
	Token       string `env:"MCP_TOKEN"`
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadDotEnv loads variables from path without overriding ones already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("MCP_TRANSPORT must be %q or %q, got %q", TransportStdio, TransportHTTP, c.Transport)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return nil
}

// LogValue keeps the API key out of logs.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("zulip_email", c.ZulipEmail),
		slog.String("zulip_url", c.ZulipURL),
		slog.Duration("zulip_timeout", c.ZulipTimeout),
		slog.String("transport", c.Transport),
		slog.String("port", c.Port),
		slog.Bool("token_set", c.Token != ""),
		slog.Bool("tls", c.TLSCertFile != ""),
	)
}

// ParseLevel maps a LOG_LEVEL value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return l, nil
}
