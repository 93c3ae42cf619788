package persistence

import (
	"fmt"
)

// Type represents the type of persistence backend
type Type string

const (
	TypeMemory Type = "memory"
	TypeBolt   Type = "bolt"
	TypeBadger Type = "badger"
)

// Config holds configuration for persistence layers
type Config struct {
	// Type of persistence backend
	Type Type `json:"type" yaml:"type"`

	// Path to database directory/file
	Path string `json:"path" yaml:"path"`
}

// ValidateConfig validates a persistence configuration
func ValidateConfig(config Config) error {
	switch config.Type {
	case TypeMemory:
		// Memory persistence doesn't need a path
		return nil
	case TypeBolt, TypeBadger:
		if config.Path == "" {
			return fmt.Errorf("path is required for %s persistence", config.Type)
		}
		return nil
	default:
		return fmt.Errorf("unsupported persistence type: %s", config.Type)
	}
}
