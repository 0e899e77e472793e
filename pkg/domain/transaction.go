package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	// TypeDeposit credits a single account.
	TypeDeposit TransactionType = "DEPOSIT"
	// TypeWithdrawal debits a single account.
	TypeWithdrawal TransactionType = "WITHDRAWAL"
	// TypeTransferOut is the debit leg of a transfer, recorded on the sender.
	TypeTransferOut TransactionType = "TRANSFER_OUT"
	// TypeTransferIn is the credit leg of a transfer, recorded on the receiver.
	TypeTransferIn TransactionType = "TRANSFER_IN"
	// TypeTransferLog is the zero-amount linkage record written on the sender
	// under the caller's original idempotency key. It reserves the key exactly
	// once while both legs remain individually addressable under derived keys.
	TypeTransferLog TransactionType = "TRANSFER_LOG"
)

// Transaction is an immutable signed ledger entry. Positive amounts are
// credits, negative amounts are debits. Entries form an append-only audit
// trail; they are never updated or deleted.
type Transaction struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	Amount         decimal.Decimal
	Type           TransactionType
	IdempotencyKey string
	CreatedAt      time.Time
}

// NewTransaction builds a ledger entry for the given account.
func NewTransaction(accountID uuid.UUID, amount decimal.Decimal, txType TransactionType, key string) *Transaction {
	return &Transaction{
		ID:             uuid.New(),
		AccountID:      accountID,
		Amount:         amount,
		Type:           txType,
		IdempotencyKey: key,
	}
}

// ValidateAmount checks that an operation amount is strictly positive and has
// at most two decimal places, the ledger's fixed monetary scale.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.Exponent() < -2 {
		return ErrInvalidAmount
	}
	return nil
}
