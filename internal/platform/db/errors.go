package db

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/odyssey-erp/odyssey-crm/internal/shared"
)

// Error wraps a storage error for op. Missing rows become shared.ErrNotFound,
// everything else is tagged as shared.ErrPersistence.
func Error(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrValidation) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, shared.ErrPersistence, err)
}

// CheckID rejects identifiers that cannot name a row. Malformed ids are
// reported as missing rather than reaching the database as a type error.
func CheckID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return shared.ErrNotFound
	}
	return nil
}
