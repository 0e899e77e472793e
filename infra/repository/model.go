package repository

import (
	"time"

	"github.com/amirasaad/ledger/pkg/currency"
	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents an account record in the database. The balance column is
// the authoritative cached balance, guarded by a CHECK (balance >= 0)
// constraint in the schema.
type Account struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Owner     string          `gorm:"size:255;not null"`
	Currency  string          `gorm:"type:varchar(3);not null"`
	Balance   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Transactions []Transaction `gorm:"foreignKey:AccountID"`
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}

// Transaction represents a persisted ledger entry. Rows are append-only; the
// composite unique index over (account_id, idempotency_key) is the mechanism
// of last resort against idempotency races.
type Transaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AccountID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uix_account_idempotency"`
	Amount          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TransactionType string          `gorm:"type:varchar(16);not null"`
	IdempotencyKey  string          `gorm:"size:255;not null;uniqueIndex:uix_account_idempotency"`
	CreatedAt       time.Time
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string {
	return "transactions"
}

func mapAccountToDomain(m *Account) *domain.Account {
	return &domain.Account{
		ID:        m.ID,
		Owner:     m.Owner,
		Currency:  currency.Code(m.Currency),
		Balance:   m.Balance,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func mapAccountToModel(a *domain.Account) Account {
	return Account{
		ID:       a.ID,
		Owner:    a.Owner,
		Currency: a.Currency.String(),
		Balance:  a.Balance,
	}
}

func mapTransactionToDomain(m *Transaction) *domain.Transaction {
	return &domain.Transaction{
		ID:             m.ID,
		AccountID:      m.AccountID,
		Amount:         m.Amount,
		Type:           domain.TransactionType(m.TransactionType),
		IdempotencyKey: m.IdempotencyKey,
		CreatedAt:      m.CreatedAt,
	}
}

func mapTransactionToModel(t *domain.Transaction) Transaction {
	return Transaction{
		ID:              t.ID,
		AccountID:       t.AccountID,
		Amount:          t.Amount,
		TransactionType: string(t.Type),
		IdempotencyKey:  t.IdempotencyKey,
	}
}
