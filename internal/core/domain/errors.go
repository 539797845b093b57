package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig marks size/threshold parameters rejected at
	// construction time, e.g. overlap >= chunk size.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCorruptedIndex marks a structural invariant violation in the
	// index: vector/unit count mismatch or embedding dimension mismatch.
	// Never auto-repaired.
	ErrCorruptedIndex = errors.New("corrupted index")

	// ErrIndexNotFound marks a missing persisted index; the caller
	// decides whether to bootstrap a fresh one.
	ErrIndexNotFound = errors.New("index not found")

	// ErrProviderUnavailable marks an embedding provider failure.
	// Searches recover by degrading to keyword-only scoring.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrRecordNotFound marks a missing curated record.
	ErrRecordNotFound = errors.New("curated record not found")

	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
