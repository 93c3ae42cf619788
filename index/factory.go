package index

import (
	"fmt"

	"github.com/fusevec/fusevec/core"
)

// DefaultFactory implements core.IndexFactory
type DefaultFactory struct{}

// NewDefaultFactory creates a new default index factory
func NewDefaultFactory() *DefaultFactory {
	return &DefaultFactory{}
}

// CreateDenseIndex creates a dense index for the given collection schema
func (f *DefaultFactory) CreateDenseIndex(dimension int, metric core.DistanceMetric) (core.DenseIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", core.ErrValidation, dimension)
	}
	if !core.ValidDistanceMetric(metric) {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidDistance, metric)
	}

	return NewFlatDenseIndex(dimension, metric), nil
}

// CreateSparseIndex creates an empty sparse index
func (f *DefaultFactory) CreateSparseIndex() core.SparseIndex {
	return NewInvertedSparseIndex()
}
