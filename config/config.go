package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fusevec/fusevec/persistence"
)

// Config represents the complete FuseVec configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server" json:"server"`

	// Persistence configuration
	Persistence persistence.Config `yaml:"persistence" json:"persistence"`

	// Engine configuration
	Engine EngineConfig `yaml:"engine" json:"engine"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// EngineConfig contains engine defaults
type EngineConfig struct {
	// Batch size used by batch ingestion when the request does not set one
	DefaultBatchSize int `yaml:"default_batch_size" json:"default_batch_size"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Persistence: persistence.Config{
			Type: persistence.TypeBolt,
			Path: "data/fusevec.db",
		},
		Engine: EngineConfig{
			DefaultBatchSize: 50,
		},
	}
}

// LoadConfig loads configuration with the following precedence:
// 1. Environment variables
// 2. Configuration file (if path given)
// 3. Default values
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFromFile(configPath, config); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// loadConfigFromFile loads configuration from a YAML file
func loadConfigFromFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// applyEnvOverrides applies FUSEVEC_* environment variables
func applyEnvOverrides(config *Config) {
	if host := os.Getenv("FUSEVEC_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("FUSEVEC_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dbType := os.Getenv("FUSEVEC_DB"); dbType != "" {
		config.Persistence.Type = persistence.Type(dbType)
	}
	if dbPath := os.Getenv("FUSEVEC_DB_PATH"); dbPath != "" {
		config.Persistence.Path = dbPath
	}
	if batch := os.Getenv("FUSEVEC_BATCH_SIZE"); batch != "" {
		if b, err := strconv.Atoi(batch); err == nil {
			config.Engine.DefaultBatchSize = b
		}
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Engine.DefaultBatchSize <= 0 {
		return fmt.Errorf("default batch size must be positive, got %d", c.Engine.DefaultBatchSize)
	}

	return persistence.ValidateConfig(c.Persistence)
}
