package repository

import (
	"context"

	"github.com/amirasaad/ledger/pkg/domain"
	repo "github.com/amirasaad/ledger/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a ledger entry repository using the provided *gorm.DB.
func NewTransactionRepository(db *gorm.DB) repo.TransactionRepository {
	return &transactionRepository{db: db}
}

// Create implements repository.TransactionRepository. A unique-constraint
// violation on (account_id, idempotency_key) is reported as
// domain.ErrDuplicateTransaction.
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	m := mapTransactionToModel(tx)
	return mapGormError(r.db.WithContext(ctx).Create(&m).Error, domain.ErrTransactionNotFound)
}

// GetByKey implements repository.TransactionRepository.
func (r *transactionRepository) GetByKey(ctx context.Context, accountID uuid.UUID, key string) (*domain.Transaction, error) {
	var m Transaction
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND idempotency_key = ?", accountID, key).
		First(&m).Error
	if err != nil {
		return nil, mapGormError(err, domain.ErrTransactionNotFound)
	}
	return mapTransactionToDomain(&m), nil
}

// ListByAccount implements repository.TransactionRepository.
func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, offset, limit int) ([]*domain.Transaction, error) {
	var models []Transaction
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, mapGormError(err, domain.ErrTransactionNotFound)
	}
	result := make([]*domain.Transaction, 0, len(models))
	for i := range models {
		result = append(result, mapTransactionToDomain(&models[i]))
	}
	return result, nil
}

// SumByAccount implements repository.TransactionRepository.
func (r *transactionRepository) SumByAccount(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}
