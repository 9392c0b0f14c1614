package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	defaultNetwork       = "sepolia"
	defaultConfirmations = 1
	defaultPollInterval  = 5   // seconds
	defaultTimeout       = 300 // seconds

	configFile = "config.json"
)

// Config holds persisted deployment defaults and per-network RPC overrides.
type Config struct {
	DefaultNetwork  string            `json:"default_network"`
	Confirmations   uint64            `json:"confirmations"`
	PollIntervalSec int               `json:"poll_interval_sec"`
	TimeoutSec      int               `json:"timeout_sec"`
	CustomRPCs      map[string]string `json:"custom_rpcs"`

	configDir string
}

// Load reads config from dir (or creates defaults). dir defaults to
// ~/.evmdeploy.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".evmdeploy")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string]string)
	}

	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// SetRPC sets a custom RPC URL for a network key.
func (c *Config) SetRPC(network, url string) {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string]string)
	}
	c.CustomRPCs[network] = url
}

// RemoveRPC removes the custom RPC for a network key.
func (c *Config) RemoveRPC(network string) error {
	if _, ok := c.CustomRPCs[network]; !ok {
		return fmt.Errorf("no custom RPC set for network %s", network)
	}
	delete(c.CustomRPCs, network)
	return nil
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

func defaults(dir string) *Config {
	return &Config{
		DefaultNetwork:  defaultNetwork,
		Confirmations:   defaultConfirmations,
		PollIntervalSec: defaultPollInterval,
		TimeoutSec:      defaultTimeout,
		CustomRPCs:      make(map[string]string),
		configDir:       dir,
	}
}
