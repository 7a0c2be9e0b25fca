package pos

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAuthExpired            = errors.New("authentication expired")
	ErrPartialFetch           = errors.New("partial catalog fetch")
	ErrFetchFailed            = errors.New("catalog fetch failed")
	ErrConflictingIntegration = errors.New("another POS integration is already enabled")
	ErrSignatureInvalid       = errors.New("webhook signature invalid")
	ErrTransactionApply       = errors.New("failed to apply catalog changes")
	ErrNotConnected           = errors.New("POS integration not connected")
	ErrSyncInProgress         = errors.New("sync already in progress")
	ErrUnsupportedProvider    = errors.New("unsupported POS provider")
)

// PageError records a catalog page that could not be fetched.
// It matches ErrPartialFetch with errors.Is.
type PageError struct {
	Page string
	Err  error
}

func (e PageError) Error() string {
	return fmt.Sprintf("page %s: %v", e.Page, e.Err)
}

func (e PageError) Unwrap() []error {
	return []error{ErrPartialFetch, e.Err}
}
