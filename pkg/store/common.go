package store

import (
	"context"
	"errors"
	"strings"

	"github.com/go-pkgz/repeater/v2"
)

// errCritical marks errors repeater must not retry
var errCritical = errors.New("critical store error")

// criticalError wraps an error to signal repeater to stop retrying
type criticalError struct {
	err error
}

func (e *criticalError) Error() string {
	return e.err.Error()
}

func (e *criticalError) Unwrap() error {
	return e.err
}

func (e *criticalError) Is(target error) bool {
	return target == errCritical //nolint:errorlint // sentinel identity
}

// isLockError checks if an error is a SQLite lock/busy error or a postgres serialization failure
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked") ||
		strings.Contains(errStr, "SQLSTATE 40001") ||
		strings.Contains(errStr, "SQLSTATE 40P01")
}

// isDuplicateError checks if an error is a unique constraint violation
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "SQLSTATE 23505")
}

// retry runs fn with backoff while it fails on lock errors.
// Any other error must be wrapped in criticalError by fn to stop retrying.
func (s *Store) retry(ctx context.Context, fn func() error) error {
	retrier := repeater.NewBackoff(s.retryAttempts, s.retryDelay, repeater.WithMaxDelay(s.retryMaxDelay))
	err := retrier.Do(ctx, fn, errCritical)
	var crit *criticalError
	if errors.As(err, &crit) {
		return crit.err
	}
	return err
}
