package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ClientConfig holds settings for the terminal chat client.
type ClientConfig struct {
	GatewayURL     string `toml:"gateway_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Context        string `toml:"context,omitempty"`

	// set from the command line; takes precedence over TimeoutSeconds
	timeoutOverride time.Duration
}

func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		GatewayURL: "http://localhost:8080",
	}
}

// Timeout returns the gateway request timeout. Zero means no timeout.
func (c *ClientConfig) Timeout() time.Duration {
	if c.timeoutOverride > 0 {
		return c.timeoutOverride
	}
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultClientConfigPath returns <UserConfigDir>/contextchat/config.toml.
func DefaultClientConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "contextchat.toml")
	}
	return filepath.Join(dir, "contextchat", "config.toml")
}

// LoadClientConfig reads the TOML file at path. A missing file is not an
// error; defaults are used. Environment overrides are applied last.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()

	if path != "" {
		_, err := toml.DecodeFile(path, cfg)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to parse client config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.GatewayURL = strings.TrimRight(strings.TrimSpace(cfg.GatewayURL), "/")
	if cfg.GatewayURL == "" {
		return nil, errors.New("gateway_url must not be empty")
	}
	return cfg, nil
}

// ApplyFlags applies command-line values on top of the file and environment.
// Empty or non-positive values leave the loaded settings alone.
func (c *ClientConfig) ApplyFlags(gatewayURL string, timeout time.Duration) {
	if url := strings.TrimRight(strings.TrimSpace(gatewayURL), "/"); url != "" {
		c.GatewayURL = url
	}
	if timeout > 0 {
		c.timeoutOverride = timeout
	}
}

func (c *ClientConfig) applyEnvOverrides() {
	if url := os.Getenv("CONTEXTCHAT_GATEWAY_URL"); url != "" {
		c.GatewayURL = url
	}
	c.TimeoutSeconds = getEnvAsIntOrDefault("CONTEXTCHAT_TIMEOUT_SECONDS", c.TimeoutSeconds)
}
