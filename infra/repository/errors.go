package repository

import (
	"errors"

	"github.com/amirasaad/ledger/pkg/domain"
	"gorm.io/gorm"
)

// mapGormError converts GORM errors to domain errors, keeping database
// concerns inside the infrastructure layer. notFound is the domain error to
// report for gorm.ErrRecordNotFound, which differs per entity.
func mapGormError(err, notFound error) error {
	if err == nil {
		return nil
	}

	currentErr := err
	for currentErr != nil {
		switch {
		case errors.Is(currentErr, gorm.ErrDuplicatedKey):
			return domain.ErrDuplicateTransaction
		case errors.Is(currentErr, gorm.ErrRecordNotFound):
			return notFound
		}
		currentErr = errors.Unwrap(currentErr)
	}

	return err
}
