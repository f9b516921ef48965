package errx

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Kind classifies an AppError so callers can decide how to surface it.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindStorage
	KindCache
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	case KindCache:
		return "cache"
	default:
		return "internal"
	}
}

const (
	// SystemErrorMessage is an operator-facing fallback when internal errors occur.
	SystemErrorMessage = "internal error"
	// StoreErrorMessage describes order store failures.
	StoreErrorMessage = "order store operation failed"
	// StoreNotFoundMessage is used when the store has no matching rows.
	StoreNotFoundMessage = "no matching rows in order store"
	// RedisErrorMessage describes report cache failures.
	RedisErrorMessage = "report cache operation failed"
	// RedisNotFoundMessage is used on a cache miss.
	RedisNotFoundMessage = "report not cached"
)

// AppError wraps an underlying error with a kind and safe message.
type AppError struct {
	Err     error
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, kind Kind, message string) *AppError {
	return &AppError{
		Err:     err,
		Kind:    kind,
		Message: message,
	}
}

// Internal wraps a failure that is neither a caller mistake nor a store or cache fault.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	return New(err, KindInternal, SystemErrorMessage)
}

// InvalidInput reports a caller or configuration mistake.
func InvalidInput(format string, args ...any) *AppError {
	return &AppError{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// WrapStore maps database/sql errors onto the unified error type.
func WrapStore(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return New(err, KindNotFound, StoreNotFoundMessage)
	}
	return New(err, KindStorage, StoreErrorMessage)
}

// WrapRedis maps Redis errors onto the unified error type.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, KindNotFound, RedisNotFoundMessage)
	}
	return New(err, KindCache, RedisErrorMessage)
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// Is reports whether the target matches the underlying error.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if e.Err != nil && errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
