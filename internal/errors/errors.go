// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidKey       = errors.New("invalid leg key")
	ErrFeedUnavailable  = errors.New("price feed unavailable")
	ErrMalformedImport  = errors.New("malformed position import")
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrStoreClosed      = errors.New("store closed")
)

// KeyError reports a rejected leg mutation. The store state is unchanged
// when this is returned.
type KeyError struct {
	Key    string
	Reason string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("invalid leg key [%s]: %s", e.Key, e.Reason)
}

func (e *KeyError) Unwrap() error {
	return ErrInvalidKey
}

// NewKeyError creates a new KeyError.
func NewKeyError(key, reason string) *KeyError {
	return &KeyError{Key: key, Reason: reason}
}

// FeedError represents a failed price fetch. The feed absorbs these: the
// last known snapshot is retained and the tick is skipped.
type FeedError struct {
	Op     string
	Symbol string
	Err    error
}

func (e *FeedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("feed error [%s] %s: %v", e.Op, e.Symbol, e.Err)
	}
	return fmt.Sprintf("feed error [%s] %s", e.Op, e.Symbol)
}

func (e *FeedError) Unwrap() error {
	return ErrFeedUnavailable
}

// NewFeedError creates a new FeedError.
func NewFeedError(op, symbol string, err error) *FeedError {
	return &FeedError{Op: op, Symbol: symbol, Err: err}
}

// ImportError represents a rejected position import. The import aborts
// atomically; the existing leg store is untouched.
type ImportError struct {
	Index  int // offending array element, -1 when the payload fails to parse
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("import error at leg %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("import error: %s", e.Reason)
}

func (e *ImportError) Unwrap() error {
	return ErrMalformedImport
}

// NewImportError creates a new ImportError.
func NewImportError(index int, reason string, err error) *ImportError {
	return &ImportError{Index: index, Reason: reason, Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
