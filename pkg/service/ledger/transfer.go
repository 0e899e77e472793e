package ledger

import (
	"bytes"
	"context"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Suffixes deriving the per-leg idempotency keys from the caller's key. The
// caller's original key is reserved by the zero-amount TRANSFER_LOG entry on
// the sender; the debit and credit legs stay individually addressable.
const (
	transferOutSuffix = "_out"
	transferInSuffix  = "_in"
)

// Transfer atomically moves amount from one account to another.
//
// Both row locks are acquired in ascending id order regardless of which side
// sends, so two simultaneous opposite-direction transfers between the same
// pair cannot deadlock each other. Sender and receiver are resolved from the
// locked rows afterwards. On success three entries are appended in the same
// commit as the balance mutations: TRANSFER_OUT of -amount on the sender,
// TRANSFER_IN of +amount on the receiver, and a zero-amount TRANSFER_LOG on
// the sender under the caller's original key.
//
// A replay of a previously applied key returns a skipped result and changes
// nothing. Any failure before commit rolls back both balances and all entries.
func (s *Service) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, key string) (*OperationResult, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, domain.ErrSameAccountTransfer
	}
	logger := s.logger.With(
		"operation", "transfer",
		"from_account_id", fromID,
		"to_account_id", toID,
		"idempotency_key", key,
	)

	var result *OperationResult
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, entries, err := ledgerRepositories(uow)
		if err != nil {
			return err
		}

		// The TRANSFER_LOG entry lives on the sender under the caller's key,
		// so the guard lookup is scoped to the originating side.
		applied, err := alreadyApplied(ctx, entries, fromID, key)
		if err != nil {
			return err
		}
		if applied {
			result = &OperationResult{Skipped: true}
			return nil
		}

		firstID, secondID := lockOrder(fromID, toID)
		first, err := accounts.GetForUpdate(ctx, firstID)
		if err != nil {
			return err
		}
		second, err := accounts.GetForUpdate(ctx, secondID)
		if err != nil {
			return err
		}

		sender, receiver := first, second
		if first.ID != fromID {
			sender, receiver = second, first
		}

		if sender.Balance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}

		senderBalance := sender.Balance.Sub(amount)
		receiverBalance := receiver.Balance.Add(amount)
		if err := accounts.UpdateBalance(ctx, sender.ID, senderBalance); err != nil {
			return err
		}
		if err := accounts.UpdateBalance(ctx, receiver.ID, receiverBalance); err != nil {
			return err
		}

		debit := domain.NewTransaction(sender.ID, amount.Neg(), domain.TypeTransferOut, key+transferOutSuffix)
		credit := domain.NewTransaction(receiver.ID, amount, domain.TypeTransferIn, key+transferInSuffix)
		record := domain.NewTransaction(sender.ID, decimal.Zero, domain.TypeTransferLog, key)
		for _, entry := range []*domain.Transaction{debit, credit, record} {
			if err := entries.Create(ctx, entry); err != nil {
				return err
			}
		}

		result = &OperationResult{NewBalance: senderBalance}
		return nil
	})
	return s.finish(logger, result, err)
}

// lockOrder returns the two ids in canonical ascending order, the fixed
// sequence every multi-row operation locks in.
func lockOrder(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) < 0 {
		return a, b
	}
	return b, a
}
