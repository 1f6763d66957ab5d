// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors
var (
	ErrUnauthorized    = errors.New("authorization token mismatch")
	ErrRunInFlight     = errors.New("a reconciliation run is already in flight")
	ErrSymbolNotFound  = errors.New("symbol not found in provider response")
	ErrMissingOwner    = errors.New("record store owner identity not configured")
	ErrMissingEndpoint = errors.New("endpoint not configured")
)

// ConfigError represents a missing or invalid run input, detected before
// any network interaction.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error [%s]: %s", e.Field, e.Message)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// FetchError represents a failure obtaining the price snapshot: either the
// provider was unreachable or its response was missing requested data.
type FetchError struct {
	Symbol  string // set when a well-formed response lacks this symbol
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("fetch error [%s]: %s", e.Symbol, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("fetch error: %s", e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError for a transport or protocol failure.
func NewFetchError(message string, err error) *FetchError {
	return &FetchError{Message: message, Err: err}
}

// NewMissingSymbolError creates a FetchError for a well-formed response that
// lacks the requested symbol or carries a malformed price for it.
func NewMissingSymbolError(symbol, message string) *FetchError {
	return &FetchError{Symbol: symbol, Message: message, Err: ErrSymbolNotFound}
}

// StateReadError represents a failure reading previously stored state.
type StateReadError struct {
	Key string
	Err error
}

func (e *StateReadError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("state read error [%s]: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("state read error: %v", e.Err)
}

func (e *StateReadError) Unwrap() error {
	return e.Err
}

// NewStateReadError creates a new StateReadError.
func NewStateReadError(key string, err error) *StateReadError {
	return &StateReadError{Key: key, Err: err}
}

// ItemError is the per-item detail of a rejected batch write.
type ItemError struct {
	Key     string
	Message string
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// PersistError represents a batch write that was rejected in whole or in
// part. Per-item failures are carried verbatim, never dropped.
type PersistError struct {
	Items []ItemError
	Err   error
}

func (e *PersistError) Error() string {
	if len(e.Items) == 0 {
		return fmt.Sprintf("persist error: %v", e.Err)
	}
	details := make([]string, len(e.Items))
	for i, item := range e.Items {
		details[i] = item.Error()
	}
	return fmt.Sprintf("persist error: %d item(s) rejected: %s", len(e.Items), strings.Join(details, "; "))
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// NewPersistError creates a PersistError for a transport-level write failure.
func NewPersistError(err error) *PersistError {
	return &PersistError{Err: err}
}

// NewPersistItemsError creates a PersistError carrying per-item rejections.
func NewPersistItemsError(items []ItemError) *PersistError {
	return &PersistError{Items: items}
}

// AuthError represents a manual trigger presenting a mismatched token,
// rejected before any other work.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return ErrUnauthorized
}

// NewAuthError creates a new AuthError.
func NewAuthError(reason string) *AuthError {
	return &AuthError{Reason: reason}
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
