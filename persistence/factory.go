package persistence

import (
	"fmt"

	"github.com/fusevec/fusevec/core"
)

// DefaultFactory creates persistence backends from configuration
type DefaultFactory struct{}

// NewDefaultFactory creates a new default persistence factory
func NewDefaultFactory() *DefaultFactory {
	return &DefaultFactory{}
}

// CreatePersistence creates a persistence instance based on configuration
func (f *DefaultFactory) CreatePersistence(config Config) (core.Persistence, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid persistence configuration: %w", err)
	}

	switch config.Type {
	case TypeMemory:
		return NewMemoryPersistence(), nil

	case TypeBolt:
		return NewBoltPersistence(config.Path)

	case TypeBadger:
		return NewBadgerPersistence(config.Path)

	default:
		return nil, fmt.Errorf("unsupported persistence type: %s", config.Type)
	}
}
