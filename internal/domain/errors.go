package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Validation errors abort a call with prior index state
// preserved; provider errors surface to the immediate caller with the
// underlying cause attached.
var (
	ErrValidation      = errors.New("validation failed")
	ErrProviderAuth    = errors.New("provider authentication failed")
	ErrProviderQuota   = errors.New("provider quota exceeded")
	ErrProviderNetwork = errors.New("provider network failure")
	ErrProviderTimeout = errors.New("provider timeout")
)

// WrapError attaches an operation and a typed kind to err.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err, kind error) bool {
	return errors.Is(err, kind)
}
