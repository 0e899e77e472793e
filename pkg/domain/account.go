// Package domain holds the ledger's core entities and the sentinel errors the
// engine reports as typed outcomes. Entities carry exact decimal balances;
// floating point never appears in money paths.
package domain

import (
	"time"

	"github.com/amirasaad/ledger/pkg/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a named, currency-scoped balance holder.
//
// Invariants:
//   - Balance is never negative; the store's CHECK constraint backs the
//     application-level validation.
//   - Currency is fixed at creation.
//   - Balance only changes through the deposit, withdraw and transfer
//     operations, each of which writes matching signed entries in the same
//     atomic unit.
type Account struct {
	ID        uuid.UUID
	Owner     string
	Currency  currency.Code
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount builds a fresh account with a zero balance.
func NewAccount(owner string, code currency.Code) *Account {
	return &Account{
		ID:       uuid.New(),
		Owner:    owner,
		Currency: code,
		Balance:  decimal.Zero,
	}
}
