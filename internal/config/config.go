package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// contextKey is the key used to store values in cli.Context
type contextKey string

const (
	ConfigKey  contextKey = "config"
	ContextKey contextKey = "context"
	LoggerKey  contextKey = "logger"
)

const (
	configDirName  = ".rpckeyring"
	configFileName = "config.json"
)

// DefaultEndpoint is the node contacted when a context has no endpoint.
const DefaultEndpoint = "http://127.0.0.1:8545"

// Config represents the CLI configuration
type Config struct {
	CurrentContext string              `json:"currentContext,omitempty"`
	Contexts       map[string]*Context `json:"contexts,omitempty"`
}

// Context is a named keyring profile
type Context struct {
	// Endpoint of the JSON-RPC node that holds the accounts
	Endpoint string `json:"endpoint,omitempty"`

	// Default account used by sign commands when --from is omitted
	DefaultAccount string `json:"defaultAccount,omitempty"`
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, configDirName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, configFileName), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{
				Contexts: make(map[string]*Context),
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}

	return &cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetCurrentContext returns the current context
func GetCurrentContext() (*Context, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Current()
}

// Current returns the context named by CurrentContext
func (c *Config) Current() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}

	ctx, exists := c.Contexts[c.CurrentContext]
	if !exists {
		return nil, fmt.Errorf("current context '%s' not found", c.CurrentContext)
	}

	return ctx, nil
}

// Names returns the context names in sorted order
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KeyringEndpoint returns the node endpoint, falling back to DefaultEndpoint
func (c *Context) KeyringEndpoint() string {
	if c == nil || c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

// ToMap converts context to a map for display
func (c *Context) ToMap() map[string]interface{} {
	m := make(map[string]interface{})

	if c.Endpoint != "" {
		m["endpoint"] = c.Endpoint
	}
	if c.DefaultAccount != "" {
		m["default-account"] = c.DefaultAccount
	}

	return m
}
