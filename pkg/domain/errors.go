package domain

import "errors"

var (
	// ErrAccountNotFound is returned when a referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionNotFound is returned when a ledger entry lookup matches nothing.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInsufficientFunds is returned when an account balance cannot cover a
	// withdrawal or transfer. The operation is rejected with no state change.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned when an amount is not positive or carries
	// more than two decimal places. Rejected before any lock is taken.
	ErrInvalidAmount = errors.New("amount must be positive with at most two decimal places")

	// ErrSameAccountTransfer is returned when a transfer names the same account
	// on both sides.
	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")

	// ErrDuplicateTransaction is returned by the store when an insert violates
	// the (account_id, idempotency_key) unique constraint. The service layer
	// translates it into a skipped outcome, never a partial mutation.
	ErrDuplicateTransaction = errors.New("duplicate transaction for idempotency key")
)
