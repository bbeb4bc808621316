package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTicker means the symbol is unknown to the historical provider.
	ErrInvalidTicker = errors.New("invalid ticker")
	// ErrTickerNotFound means a delete referenced an untracked symbol.
	ErrTickerNotFound = errors.New("ticker not found")
	// ErrNoData means a query asked for a time before any data exists.
	ErrNoData = errors.New("no data")
)

// ProviderError is a transient upstream market-data failure.
type ProviderError struct {
	Source string
	Op     string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps an upstream failure with its source and operation.
func NewProviderError(source, op string, err error) *ProviderError {
	return &ProviderError{Source: source, Op: op, Err: err}
}

// IsProviderError reports whether err is a transient provider failure.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
