// Package common defines shared constants and sentinel errors used across
// the ledger, authentication and transport layers. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Validation errors.
	ErrInvalidInput = errors.New("invalid input")

	// Ledger errors.
	ErrMemberNotFound = errors.New("member not found")

	// ErrHistoryWriteFailed means the balance increment was applied but the
	// matching history row was not written. The caller must reconcile.
	ErrHistoryWriteFailed = errors.New("history write failed")

	// Account errors.
	ErrDuplicateUser      = errors.New("duplicate user")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrRateLimited        = errors.New("rate limited")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
