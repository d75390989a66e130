package ports

import "errors"

// Sentinel errors shared by the service and its adapters. Adapters wrap
// driver errors with these so callers can branch with errors.Is.
var (
	// General
	ErrInvalidRequest  = errors.New("invalid request parameters or format")
	ErrNotFound        = errors.New("resource not found")
	ErrTimeout         = errors.New("operation timed out")
	ErrContextCanceled = errors.New("operation canceled via context")
	ErrUnauthorized    = errors.New("caller is not identified")
	ErrConfiguration   = errors.New("invalid or missing configuration")

	// Trade lifecycle
	ErrInvalidTransition = errors.New("trade status does not allow this operation")
	ErrManualProfitSet   = errors.New("trade already has a manual profit")

	// Storage
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
	ErrUpdateFailed   = errors.New("database update failed")
	ErrDeleteFailed   = errors.New("database delete failed")
)
