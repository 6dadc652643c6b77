package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInternal           = errors.New("internal error")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyExists      = errors.New("already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenNotFound      = errors.New("token not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyUsed   = errors.New("email already used")
	ErrRoleNotFound       = errors.New("role not found")
	ErrMethodNotAllowed   = errors.New("method not allowed")
)

// TokenExpiredError carries the moment the token expired so the boundary can
// report it to clients. It matches ErrTokenExpired under errors.Is.
type TokenExpiredError struct {
	At time.Time
}

func (e *TokenExpiredError) Error() string {
	return fmt.Sprintf("token expired at %s", e.At.UTC().Format(time.RFC3339))
}

func (e *TokenExpiredError) Unwrap() error { return ErrTokenExpired }

func NewTokenExpired(at time.Time) error {
	return &TokenExpiredError{At: at}
}

// ExpiredAt extracts the expiry timestamp from an ErrTokenExpired chain.
func ExpiredAt(err error) (time.Time, bool) {
	var te *TokenExpiredError
	if errors.As(err, &te) {
		return te.At, true
	}
	return time.Time{}, false
}

func NewInvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

// WrapUnauthorized collapses a token verification failure into ErrUnauthorized
// while keeping the underlying kind (expired, invalid) reachable via
// errors.Is, so the boundary can clear the refresh cookie on those sub-kinds.
func WrapUnauthorized(err error) error {
	return fmt.Errorf("%w: %w", ErrUnauthorized, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsTokenExpired(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}

func IsTokenInvalid(err error) bool {
	return errors.Is(err, ErrTokenInvalid)
}

func IsTokenNotFound(err error) bool {
	return errors.Is(err, ErrTokenNotFound)
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsEmailAlreadyUsed(err error) bool {
	return errors.Is(err, ErrEmailAlreadyUsed)
}

func IsRoleNotFound(err error) bool {
	return errors.Is(err, ErrRoleNotFound)
}

func IsMethodNotAllowed(err error) bool {
	return errors.Is(err, ErrMethodNotAllowed)
}
