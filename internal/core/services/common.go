package services

import (
	"errors"
	"fmt"

	"medask-forum/internal/core/domain"

	"gorm.io/gorm"
)

// wrapStore classifies an unexpected repository error as a transient
// store failure. Callers must never interpret it as allowed or denied.
func wrapStore(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

// isNotFound reports whether err is the record-not-found case rather
// than a store failure.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
