package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type StoreBackend string

const (
	StoreBackendFS     StoreBackend = "fs"
	StoreBackendSQLite StoreBackend = "sqlite"
)

type StoreConfig struct {
	Backend StoreBackend `yaml:"backend"`
}

type EmbeddingsConfig struct {
	Backend   string `yaml:"backend"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	Dimension int    `yaml:"dimension"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

type Config struct {
	AgentID         string                    `yaml:"agent_id"`
	Store           StoreConfig               `yaml:"store"`
	Embeddings      EmbeddingsConfig          `yaml:"embeddings"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		AgentID: "default",
		Store: StoreConfig{
			Backend: StoreBackendFS,
		},
		Embeddings: EmbeddingsConfig{
			Backend:   "openai",
			Model:     "text-embedding-3-small",
			Dimension: 1536,
		},
		Providers: make(map[string]ProviderConfig),
	}
}

func LoadConfig(scope Scope) (*Config, error) {
	path := scope.ConfigPath()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	if cfg.AgentID == "" {
		cfg.AgentID = "default"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = StoreBackendFS
	}

	return &cfg, nil
}

func SaveConfig(scope Scope, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(scope.ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
