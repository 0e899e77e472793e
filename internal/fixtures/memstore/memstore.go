// Package memstore is an in-memory ledger store for tests. It implements the
// repository contracts with real blocking row locks and all-or-nothing commit
// semantics, so service-level tests exercise the same lock ordering and
// rollback behavior the Postgres store provides.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type row struct {
	mu   sync.Mutex
	data domain.Account
}

type entryRec struct {
	seq   int64
	entry domain.Transaction
}

// Store is an in-memory implementation of repository.UnitOfWork.
type Store struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*row
	entries  []entryRec
	keys     map[string]struct{}
	seq      int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]*row),
		keys:     make(map[string]struct{}),
	}
}

// Do runs fn with a transaction bound to this store. Staged writes are applied
// only when fn returns nil; row locks acquired through GetForUpdate are held
// until then and released afterwards in reverse acquisition order.
func (s *Store) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	t := &txn{store: s, balances: make(map[uuid.UUID]decimal.Decimal)}
	err := fn(t)
	if err == nil {
		t.commit()
	}
	t.release()
	return err
}

// AccountRepository returns an account repository over the committed state.
func (s *Store) AccountRepository() (repository.AccountRepository, error) {
	return &accountRepo{store: s}, nil
}

// TransactionRepository returns an entry repository over the committed state.
func (s *Store) TransactionRepository() (repository.TransactionRepository, error) {
	return &entryRepo{store: s}, nil
}

func keyOf(accountID uuid.UUID, key string) string {
	return accountID.String() + "|" + key
}

// txn carries staged writes and held row locks for one Do invocation.
type txn struct {
	store       *Store
	locked      []*row
	newAccounts []domain.Account
	balances    map[uuid.UUID]decimal.Decimal
	newEntries  []domain.Transaction
	stagedKeys  []string
}

func (t *txn) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	// Nested transactions are not supported; run in the current one.
	return fn(t)
}

func (t *txn) AccountRepository() (repository.AccountRepository, error) {
	return &accountRepo{store: t.store, tx: t}, nil
}

func (t *txn) TransactionRepository() (repository.TransactionRepository, error) {
	return &entryRepo{store: t.store, tx: t}, nil
}

func (t *txn) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range t.newAccounts {
		a.CreatedAt = time.Now()
		a.UpdatedAt = a.CreatedAt
		s.accounts[a.ID] = &row{data: a}
	}
	for id, balance := range t.balances {
		r := s.accounts[id]
		r.data.Balance = balance
		r.data.UpdatedAt = time.Now()
	}
	for _, e := range t.newEntries {
		s.seq++
		e.CreatedAt = time.Now()
		s.entries = append(s.entries, entryRec{seq: s.seq, entry: e})
		s.keys[keyOf(e.AccountID, e.IdempotencyKey)] = struct{}{}
	}
}

func (t *txn) release() {
	for i := len(t.locked) - 1; i >= 0; i-- {
		t.locked[i].mu.Unlock()
	}
	t.locked = nil
}

type accountRepo struct {
	store *Store
	tx    *txn
}

func (r *accountRepo) Create(ctx context.Context, account *domain.Account) error {
	if r.tx != nil {
		r.tx.newAccounts = append(r.tx.newAccounts, *account)
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a := *account
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.store.accounts[a.ID] = &row{data: a}
	return nil
}

func (r *accountRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rw, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	a := rw.data
	return &a, nil
}

func (r *accountRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	if r.tx == nil {
		return nil, fmt.Errorf("memstore: GetForUpdate outside a transaction")
	}
	r.store.mu.Lock()
	rw, ok := r.store.accounts[id]
	r.store.mu.Unlock()
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	// Blocks until any concurrent transaction holding the row commits or
	// rolls back, mirroring SELECT ... FOR UPDATE lock waits.
	rw.mu.Lock()
	r.tx.locked = append(r.tx.locked, rw)
	a := rw.data
	return &a, nil
}

func (r *accountRepo) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return fmt.Errorf("memstore: check constraint violated: balance %s < 0", balance)
	}
	if r.tx == nil {
		return fmt.Errorf("memstore: UpdateBalance outside a transaction")
	}
	r.tx.balances[id] = balance
	return nil
}

type entryRepo struct {
	store *Store
	tx    *txn
}

func (r *entryRepo) Create(ctx context.Context, entry *domain.Transaction) error {
	if r.tx == nil {
		return fmt.Errorf("memstore: Create outside a transaction")
	}
	k := keyOf(entry.AccountID, entry.IdempotencyKey)
	r.store.mu.Lock()
	_, dup := r.store.keys[k]
	r.store.mu.Unlock()
	if dup {
		return domain.ErrDuplicateTransaction
	}
	for _, staged := range r.tx.stagedKeys {
		if staged == k {
			return domain.ErrDuplicateTransaction
		}
	}
	r.tx.stagedKeys = append(r.tx.stagedKeys, k)
	r.tx.newEntries = append(r.tx.newEntries, *entry)
	return nil
}

func (r *entryRepo) GetByKey(ctx context.Context, accountID uuid.UUID, key string) (*domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.entries {
		e := r.store.entries[i].entry
		if e.AccountID == accountID && e.IdempotencyKey == key {
			return &e, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (r *entryRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, offset, limit int) ([]*domain.Transaction, error) {
	r.store.mu.Lock()
	matched := make([]entryRec, 0)
	for _, rec := range r.store.entries {
		if rec.entry.AccountID == accountID {
			matched = append(matched, rec)
		}
	}
	r.store.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit >= 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	result := make([]*domain.Transaction, 0, len(matched))
	for i := range matched {
		e := matched[i].entry
		result = append(result, &e)
	}
	return result, nil
}

func (r *entryRepo) SumByAccount(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sum := decimal.Zero
	for _, rec := range r.store.entries {
		if rec.entry.AccountID == accountID {
			sum = sum.Add(rec.entry.Amount)
		}
	}
	return sum, nil
}
