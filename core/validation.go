package core

import (
	"fmt"
	"strings"
)

// ValidateRecord checks if a record is valid independent of any collection
func ValidateRecord(rec Record) error {
	if len(rec.Dense) == 0 {
		return fmt.Errorf("%w: dense vector cannot be empty", ErrValidation)
	}

	// Check for NaN or infinite values
	for i, val := range rec.Dense {
		if isNaN(val) {
			return fmt.Errorf("%w: dense vector contains NaN at index %d", ErrValidation, i)
		}
		if isInf(val) {
			return fmt.Errorf("%w: dense vector contains infinite value at index %d", ErrValidation, i)
		}
	}

	for dim, weight := range rec.Sparse {
		if isNaN(weight) || isInf(weight) {
			return fmt.Errorf("%w: sparse weight for dimension %d is not finite", ErrValidation, dim)
		}
	}

	return nil
}

// ValidateCollection checks if a collection specification is valid
func ValidateCollection(collection Collection) error {
	if collection.Name == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrValidation)
	}

	if strings.Contains(collection.Name, "/") || strings.Contains(collection.Name, "\\") {
		return fmt.Errorf("%w: collection name cannot contain path separators", ErrValidation)
	}

	if collection.Dimension <= 0 {
		return fmt.Errorf("%w: collection dimension must be positive, got %d", ErrValidation, collection.Dimension)
	}

	if !ValidDistanceMetric(collection.Distance) {
		return fmt.Errorf("%w: %s", ErrInvalidDistance, collection.Distance)
	}

	return nil
}

// ValidateDimension checks a dense vector against the collection dimension
func ValidateDimension(vector []float32, expectedDim int) error {
	if len(vector) != expectedDim {
		return fmt.Errorf("%w: vector dimension %d does not match collection dimension %d",
			ErrDimensionMismatch, len(vector), expectedDim)
	}
	return nil
}

// ValidateQuery checks a dense query vector against the collection dimension
func ValidateQuery(query []float32, dimension int) error {
	if len(query) == 0 {
		return fmt.Errorf("%w: query vector cannot be empty", ErrValidation)
	}

	if err := ValidateDimension(query, dimension); err != nil {
		return err
	}

	for i, val := range query {
		if isNaN(val) {
			return fmt.Errorf("%w: query contains NaN at index %d", ErrValidation, i)
		}
		if isInf(val) {
			return fmt.Errorf("%w: query contains infinite value at index %d", ErrValidation, i)
		}
	}

	return nil
}

// AssembleRecords zips the parallel ingestion arrays into records. Metadata,
// sparse vectors, and ids are optional; when present their lengths must
// match texts exactly, otherwise the whole batch is rejected before any
// write happens.
func AssembleRecords(texts []string, dense [][]float32, sparse []SparseVector, metadata []map[string]string, ids []uint64) ([]Record, error) {
	if len(dense) != len(texts) {
		return nil, fmt.Errorf("%w: got %d texts but %d dense vectors", ErrValidation, len(texts), len(dense))
	}
	if sparse != nil && len(sparse) != len(texts) {
		return nil, fmt.Errorf("%w: got %d texts but %d sparse vectors", ErrValidation, len(texts), len(sparse))
	}
	if metadata != nil && len(metadata) != len(texts) {
		return nil, fmt.Errorf("%w: got %d texts but %d metadata entries", ErrValidation, len(texts), len(metadata))
	}
	if ids != nil && len(ids) != len(texts) {
		return nil, fmt.Errorf("%w: got %d texts but %d record ids", ErrValidation, len(texts), len(ids))
	}

	records := make([]Record, len(texts))
	for i := range texts {
		records[i] = Record{
			Text:  texts[i],
			Dense: dense[i],
		}
		if sparse != nil {
			records[i].Sparse = sparse[i]
		}
		if metadata != nil {
			records[i].Metadata = metadata[i]
		}
		if ids != nil {
			records[i].ID = ids[i]
		}
	}

	return records, nil
}

// Helper functions for NaN and Inf detection
func isNaN(f float32) bool {
	return f != f
}

func isInf(f float32) bool {
	return f > 3.4e38 || f < -3.4e38
}
