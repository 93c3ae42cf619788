package core

import "errors"

// Common errors
var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrRecordNotFound     = errors.New("record not found")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
	ErrValidation         = errors.New("invalid input")
	ErrTransientWrite     = errors.New("transient write failure")
	ErrInvalidDistance    = errors.New("invalid distance metric")
)
