// Package ledger implements the transaction execution engine: single-account
// deposits and withdrawals, two-account transfers, and the read-only balance
// and history projections.
//
// Every mutating operation runs inside a unit of work, acquires exclusive row
// locks on the accounts it touches before reading their balances, and holds
// them until commit or rollback. Idempotency is checked up front against the
// caller's key and backed by the store's (account_id, idempotency_key) unique
// constraint; a constraint hit is reported as a skipped outcome with no new
// side effects.
package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amirasaad/ledger/pkg/currency"
	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationResult is the outcome of a successful or skipped balance mutation.
type OperationResult struct {
	// Skipped is true when the idempotency key was already applied. No new
	// entries were written and no balance changed.
	Skipped bool
	// NewBalance is the mutated account's balance after commit; for transfers
	// it is the sender's new balance. Zero when Skipped.
	NewBalance decimal.Decimal
}

// Service executes ledger operations against a unit of work.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// NewService creates a ledger service.
func NewService(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{uow: uow, logger: logger}
}

// CreateAccount creates an account with a zero balance in the given currency.
func (s *Service) CreateAccount(ctx context.Context, owner string, code currency.Code) (*domain.Account, error) {
	if !code.Supported() {
		return nil, currency.ErrUnsupportedCurrency
	}
	account := domain.NewAccount(owner, code)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		return accounts.Create(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("account created", "account_id", account.ID, "currency", code)
	return account, nil
}

// Deposit adds amount to the account's balance and appends one DEPOSIT entry.
// The row lock is held for the full read-validate-write span.
func (s *Service) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, key string) (*OperationResult, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}
	logger := s.logger.With("operation", "deposit", "account_id", accountID, "idempotency_key", key)

	var result *OperationResult
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, entries, err := ledgerRepositories(uow)
		if err != nil {
			return err
		}

		applied, err := alreadyApplied(ctx, entries, accountID, key)
		if err != nil {
			return err
		}
		if applied {
			result = &OperationResult{Skipped: true}
			return nil
		}

		account, err := accounts.GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		newBalance := account.Balance.Add(amount)
		if err := accounts.UpdateBalance(ctx, accountID, newBalance); err != nil {
			return err
		}
		entry := domain.NewTransaction(accountID, amount, domain.TypeDeposit, key)
		if err := entries.Create(ctx, entry); err != nil {
			return err
		}

		result = &OperationResult{NewBalance: newBalance}
		return nil
	})
	return s.finish(logger, result, err)
}

// Withdraw subtracts amount from the account's balance and appends one
// WITHDRAWAL entry of -amount. Fails with domain.ErrInsufficientFunds and no
// state change when the balance cannot cover the amount.
func (s *Service) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, key string) (*OperationResult, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}
	logger := s.logger.With("operation", "withdraw", "account_id", accountID, "idempotency_key", key)

	var result *OperationResult
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, entries, err := ledgerRepositories(uow)
		if err != nil {
			return err
		}

		applied, err := alreadyApplied(ctx, entries, accountID, key)
		if err != nil {
			return err
		}
		if applied {
			result = &OperationResult{Skipped: true}
			return nil
		}

		account, err := accounts.GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if account.Balance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}

		newBalance := account.Balance.Sub(amount)
		if err := accounts.UpdateBalance(ctx, accountID, newBalance); err != nil {
			return err
		}
		entry := domain.NewTransaction(accountID, amount.Neg(), domain.TypeWithdrawal, key)
		if err := entries.Create(ctx, entry); err != nil {
			return err
		}

		result = &OperationResult{NewBalance: newBalance}
		return nil
	})
	return s.finish(logger, result, err)
}

// GetBalance returns the account's current balance.
func (s *Service) GetBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return decimal.Zero, err
	}
	account, err := accounts.Get(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// GetAccount returns the account record.
func (s *Service) GetAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	return accounts.Get(ctx, accountID)
}

// GetHistory returns the account's ledger entries, most recent first.
func (s *Service) GetHistory(ctx context.Context, accountID uuid.UUID, offset, limit int) ([]*domain.Transaction, error) {
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	if _, err := accounts.Get(ctx, accountID); err != nil {
		return nil, err
	}
	entries, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	return entries.ListByAccount(ctx, accountID, offset, limit)
}

// ledgerRepositories fetches both repositories bound to the transaction.
func ledgerRepositories(uow repository.UnitOfWork) (repository.AccountRepository, repository.TransactionRepository, error) {
	accounts, err := uow.AccountRepository()
	if err != nil {
		return nil, nil, err
	}
	entries, err := uow.TransactionRepository()
	if err != nil {
		return nil, nil, err
	}
	return accounts, entries, nil
}

// alreadyApplied reports whether an entry under the key exists on the account.
// This lookup avoids redoing work on retries; the unique constraint remains
// the mechanism of last resort for races the lookup misses.
func alreadyApplied(ctx context.Context, entries repository.TransactionRepository, accountID uuid.UUID, key string) (bool, error) {
	_, err := entries.GetByKey(ctx, accountID, key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrTransactionNotFound) {
		return false, nil
	}
	return false, err
}

// finish translates a late unique-constraint hit into a skipped outcome and
// logs the result. All other errors propagate unchanged; nothing committed.
func (s *Service) finish(logger *slog.Logger, result *OperationResult, err error) (*OperationResult, error) {
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateTransaction) {
			logger.Info("idempotency key already applied, skipping")
			return &OperationResult{Skipped: true}, nil
		}
		logger.Error("operation failed", "error", err)
		return nil, err
	}
	if result.Skipped {
		logger.Info("idempotency key already applied, skipping")
	} else {
		logger.Info("operation committed", "new_balance", result.NewBalance)
	}
	return result, nil
}
