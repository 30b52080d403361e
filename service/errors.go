package service

// The error taxonomy the handlers translate to HTTP. Authentication failures
// deliberately collapse to generic messages: callers must not be able to tell
// an unknown email from a wrong password, or a revoked refresh token from an
// expired one.

// ConflictError means a unique key is already taken.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// AuthenticationError covers bad credentials, deactivated accounts and
// invalid/expired/reused refresh tokens.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

// ValidationError means malformed input, rejected before any persistence
// access.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// StorageError means a file was rejected before being written to the store.
type StorageError struct {
	Message string
}

func (e *StorageError) Error() string { return e.Message }

var (
	ErrEmailTaken          = &ConflictError{Message: "email already registered"}
	ErrInvalidCredentials  = &AuthenticationError{Message: "invalid credentials"}
	ErrAccountDeactivated  = &AuthenticationError{Message: "account deactivated"}
	ErrInvalidRefreshToken = &AuthenticationError{Message: "invalid refresh token"}
)
