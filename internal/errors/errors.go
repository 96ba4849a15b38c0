// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrGatewayUnavailable means a session to the market-data gateway could
	// not be established or maintained. Fatal for the current call; the
	// caller decides whether to retry.
	ErrGatewayUnavailable = errors.New("gateway unavailable")

	// ErrChainUnavailable means the gateway was reachable but reported no
	// usable expirations for the symbol. Treated as "no data", not a crash.
	ErrChainUnavailable = errors.New("option chain unavailable")

	// ErrIncompleteQuote means a contract or leg lacks pricing data.
	ErrIncompleteQuote = errors.New("incomplete quote")

	// ErrInvalidStrategyShape means the legs do not match the named
	// strategy's defining shape. Caller error, fails before computation.
	ErrInvalidStrategyShape = errors.New("invalid strategy shape")

	// ErrPriceUnavailable means no underlying price was available even
	// after the last-close fallback.
	ErrPriceUnavailable = errors.New("price unavailable")

	ErrNotConnected   = errors.New("not connected to gateway")
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrConfigInvalid  = errors.New("invalid configuration")
)

// GatewayError represents an error from the market-data gateway.
type GatewayError struct {
	Op      string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway error [%s]: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("gateway error [%s]: %s", e.Op, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError creates a new GatewayError.
func NewGatewayError(op, message string, err error) *GatewayError {
	return &GatewayError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// ChainError represents an error while retrieving an option chain.
type ChainError struct {
	Symbol  string
	Message string
	Err     error
}

func (e *ChainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chain error [%s]: %s: %v", e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("chain error [%s]: %s", e.Symbol, e.Message)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}

// NewChainError creates a new ChainError.
func NewChainError(symbol, message string, err error) *ChainError {
	return &ChainError{
		Symbol:  symbol,
		Message: message,
		Err:     err,
	}
}

// StrategyError represents an error while constructing or evaluating a
// strategy instance.
type StrategyError struct {
	Strategy string
	Symbol   string
	Reason   string
	Err      error
}

func (e *StrategyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("strategy error [%s] %s: %s: %v", e.Strategy, e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("strategy error [%s] %s: %s", e.Strategy, e.Symbol, e.Reason)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}

// NewStrategyError creates a new StrategyError.
func NewStrategyError(strategy, symbol, reason string, err error) *StrategyError {
	return &StrategyError{
		Strategy: strategy,
		Symbol:   symbol,
		Reason:   reason,
		Err:      err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
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
