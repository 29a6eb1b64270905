// Package config provides configuration management for the assistant CLI.
// It handles loading and parsing YAML configuration files, and provides
// structured access to application settings including the backend base URL,
// session storage location, proxy configuration, and timeouts.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// BaseURL is the root of the assistant backend, including the
	// "/assistant" base path (e.g. "https://api.example.com/assistant").
	BaseURL string `yaml:"base-url"`

	// SessionDB is the path of the bbolt database holding the session
	// token record. Supports a leading "~".
	SessionDB string `yaml:"session-db"`

	// ProxyURL is the URL of an optional proxy server (socks5/http/https)
	// to use for outbound requests.
	ProxyURL string `yaml:"proxy-url"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`

	// LoggingToFile switches log output to a rotating file under logs/.
	LoggingToFile bool `yaml:"logging-to-file"`

	// RequestTimeout is the per-call timeout in seconds for ordinary API
	// requests. Defaults to 10.
	RequestTimeout int `yaml:"request-timeout"`

	// ImageTimeout is the per-call timeout in seconds for AI image
	// generation requests. Defaults to 20.
	ImageTimeout int `yaml:"image-timeout"`

	// CallbackPort is the local port used to capture payment-return
	// redirects during a VNPAY top-up. Defaults to 8085.
	CallbackPort int `yaml:"callback-port"`
}

// LoadConfig reads a YAML configuration file from the given path, unmarshals
// it into a Config struct, applies defaults, and returns it.
func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.SessionDB == "" {
		c.SessionDB = filepath.Join("~", ".assistant-cli", "session.db")
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10
	}
	if c.ImageTimeout <= 0 {
		c.ImageTimeout = 20
	}
	if c.CallbackPort <= 0 {
		c.CallbackPort = 8085
	}
}

// ExpandHome resolves a leading "~" in p against the user's home directory.
func ExpandHome(p string) (string, error) {
	if len(p) == 0 || p[0] != '~' {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if len(p) == 1 {
		return home, nil
	}
	return filepath.Join(home, p[1:]), nil
}
