package webapi

import (
	"time"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest is the body for POST /accounts.
type CreateAccountRequest struct {
	Owner    string `json:"owner" validate:"required,max=255"`
	Currency string `json:"currency" validate:"required,len=3"`
}

// MutationRequest is the body for deposit and withdraw operations.
type MutationRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key" validate:"required,max=255"`
}

// TransferRequest is the body for POST /transfer.
type TransferRequest struct {
	FromAccountID  string          `json:"from_account_id" validate:"required,uuid4"`
	ToAccountID    string          `json:"to_account_id" validate:"required,uuid4"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key" validate:"required,max=255"`
}

// AccountResponse is the wire form of an account.
type AccountResponse struct {
	ID       string          `json:"id"`
	Owner    string          `json:"owner"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
}

// TransactionResponse is the wire form of a ledger entry.
type TransactionResponse struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType string          `json:"transaction_type"`
	IdempotencyKey  string          `json:"idempotency_key"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:       a.ID.String(),
		Owner:    a.Owner,
		Currency: a.Currency.String(),
		Balance:  a.Balance,
	}
}

func toTransactionResponses(entries []*domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, TransactionResponse{
			ID:              e.ID.String(),
			AccountID:       e.AccountID.String(),
			Amount:          e.Amount,
			TransactionType: string(e.Type),
			IdempotencyKey:  e.IdempotencyKey,
			CreatedAt:       e.CreatedAt,
		})
	}
	return out
}
