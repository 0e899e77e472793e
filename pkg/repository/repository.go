// Package repository defines the data access contracts the ledger engine
// depends on. Implementations live in infra/repository (Postgres via GORM)
// and internal/fixtures/memstore (in-memory, for tests).
package repository

import (
	"context"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account data access operations.
type AccountRepository interface {
	// Create persists a new account.
	Create(ctx context.Context, account *domain.Account) error
	// Get returns the account by id, or domain.ErrAccountNotFound.
	Get(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	// GetForUpdate returns the account by id while holding an exclusive row
	// lock until the enclosing unit of work commits or rolls back. Callers
	// locking multiple rows must acquire them in ascending id order.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	// UpdateBalance sets the account's cached balance. Must only be called on
	// a row locked through GetForUpdate within the same unit of work.
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
}

// TransactionRepository defines the interface for ledger entry access.
type TransactionRepository interface {
	// Create appends an immutable ledger entry. Violating the
	// (account_id, idempotency_key) unique constraint yields
	// domain.ErrDuplicateTransaction.
	Create(ctx context.Context, tx *domain.Transaction) error
	// GetByKey returns the entry carrying the idempotency key on the given
	// account, or domain.ErrTransactionNotFound.
	GetByKey(ctx context.Context, accountID uuid.UUID, key string) (*domain.Transaction, error)
	// ListByAccount returns entries for the account ordered by creation time
	// descending, paginated by offset/limit.
	ListByAccount(ctx context.Context, accountID uuid.UUID, offset, limit int) ([]*domain.Transaction, error)
	// SumByAccount returns the sum of all entry amounts for the account, the
	// derived view of its balance.
	SumByAccount(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
}

// UnitOfWork is the transaction boundary for ledger operations. Repositories
// obtained inside Do share one store transaction, so every mutation made
// through them commits or rolls back as a unit.
type UnitOfWork interface {
	// Do executes fn within a transaction boundary. If fn returns an error the
	// transaction is rolled back and the error is returned unchanged.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// AccountRepository returns the account repository bound to the current
	// transaction, or the base session outside of Do.
	AccountRepository() (AccountRepository, error)

	// TransactionRepository returns the ledger entry repository bound to the
	// current transaction, or the base session outside of Do.
	TransactionRepository() (TransactionRepository, error)
}
