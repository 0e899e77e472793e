// Package repository implements the ledger store contracts on top of GORM.
package repository

import (
	"context"

	repo "github.com/amirasaad/ledger/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides the transaction boundary and repository access in one
// abstraction. Repositories obtained inside Do are bound to the transaction
// session, so every row lock and write within the callback commits or rolls
// back atomically.
type UoW struct {
	db *gorm.DB
	tx *gorm.DB
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db}
}

// Do runs the given function in a transaction boundary, providing a UoW whose
// repositories share the transaction session.
func (u *UoW) Do(ctx context.Context, fn func(uow repo.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx})
	})
}

// AccountRepository returns an account repository bound to the current session.
func (u *UoW) AccountRepository() (repo.AccountRepository, error) {
	return NewAccountRepository(u.session()), nil
}

// TransactionRepository returns a ledger entry repository bound to the current session.
func (u *UoW) TransactionRepository() (repo.TransactionRepository, error) {
	return NewTransactionRepository(u.session()), nil
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}
