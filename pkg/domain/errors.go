package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Validation failures. They are recoverable and reported back to the caller.
var (
	ErrInvalidCaller       = errors.New("anonymous principal not allowed")
	ErrAlreadyRegistered   = errors.New("user already registered")
	ErrInvalidPropertyType = errors.New("invalid property type")
	ErrPropertyNotFound    = errors.New("property not found")
	ErrZeroQuantity        = errors.New("cannot buy zero shares")
	ErrInsufficientShares  = errors.New("not enough shares available")
	ErrAmountOverflow      = errors.New("amount overflows ledger arithmetic")
)

// ErrPersistence marks a failed durable write. It is fatal to the call that
// hit it: nothing that call did is committed.
var ErrPersistence = errors.New("persistence failure")

// InsufficientSharesError reports the shares actually left on a property.
type InsufficientSharesError struct {
	PropertyID PropertyID
	Requested  Shares
	Available  Shares
}

func (e InsufficientSharesError) Error() string {
	return fmt.Sprintf("not enough shares available: requested %d, only %d shares left", e.Requested, e.Available)
}

// Is lets errors.Is(err, ErrInsufficientShares) match.
func (e InsufficientSharesError) Is(target error) bool {
	return target == ErrInsufficientShares
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	if len(e.Result.Violations) == 0 {
		return "transaction blocked by rules"
	}
	msgs := make([]string, 0, len(e.Result.Violations))
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			msgs = append(msgs, v.Rule+": "+v.Message)
		}
	}
	return "transaction blocked by rules: " + strings.Join(msgs, "; ")
}

// PersistenceError wraps the underlying storage failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// IsValidation reports whether err is one of the recoverable ledger errors.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidCaller,
		ErrAlreadyRegistered,
		ErrInvalidPropertyType,
		ErrPropertyNotFound,
		ErrZeroQuantity,
		ErrInsufficientShares,
		ErrAmountOverflow,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
