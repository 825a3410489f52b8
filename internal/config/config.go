package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.wppdesk/config.toml.
type Config struct {
	DefaultProfile string             `toml:"default_profile"`
	Transport      TransportConfig    `toml:"transport"`
	Backend        BackendConfig      `toml:"backend"`
	Delivery       DeliveryConfig     `toml:"delivery"`
	Conversation   ConversationConfig `toml:"conversation"`
}

// TransportConfig configures the realtime event channel.
type TransportConfig struct {
	URL               string   `toml:"url"`
	ReconnectDelay    Duration `toml:"reconnect_delay"`
	ReconnectMaxDelay Duration `toml:"reconnect_max_delay"`
	PingInterval      Duration `toml:"ping_interval"`
	// Prefixes are stripped from incoming frames before decoding.
	Prefixes []string `toml:"prefixes"`
}

// BackendConfig points at the conversation and delivery HTTP APIs.
type BackendConfig struct {
	BaseURL string   `toml:"base_url"`
	Token   string   `toml:"token"`
	Timeout Duration `toml:"timeout"`
}

type DeliveryConfig struct {
	Timeout Duration `toml:"timeout"`
}

type ConversationConfig struct {
	StrictStatusOrder bool `toml:"strict_status_order"`
}

// Duration is a time.Duration written as a string ("3s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Transport: TransportConfig{
			URL:               "ws://localhost:8000/ws",
			ReconnectDelay:    Duration{3 * time.Second},
			ReconnectMaxDelay: Duration{30 * time.Second},
			PingInterval:      Duration{30 * time.Second},
			Prefixes:          []string{"Echo:"},
		},
		Backend: BackendConfig{
			Timeout: Duration{10 * time.Second},
		},
		Delivery: DeliveryConfig{
			Timeout: Duration{30 * time.Second},
		},
	}
}

// Load reads config from the given path on top of Default. Returns an error
// if the file is missing or malformed.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return nil, fmt.Errorf("load config %s: %w", path, err)
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := Write(f, cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg *Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Redacted returns a copy of cfg safe to print.
func (c Config) Redacted() *Config {
	if c.Backend.Token != "" {
		c.Backend.Token = "redacted"
	}
	c.Transport.Prefixes = append([]string(nil), c.Transport.Prefixes...)
	return &c
}
