package repository

import (
	"context"

	"github.com/amirasaad/ledger/pkg/domain"
	repo "github.com/amirasaad/ledger/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates an account repository using the provided *gorm.DB.
func NewAccountRepository(db *gorm.DB) repo.AccountRepository {
	return &accountRepository{db: db}
}

// Create implements repository.AccountRepository.
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	m := mapAccountToModel(account)
	return mapGormError(r.db.WithContext(ctx).Create(&m).Error, domain.ErrAccountNotFound)
}

// Get implements repository.AccountRepository.
func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapGormError(err, domain.ErrAccountNotFound)
	}
	return mapAccountToDomain(&m), nil
}

// GetForUpdate implements repository.AccountRepository. The SELECT ... FOR
// UPDATE row lock is held until the surrounding transaction ends.
func (r *accountRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, mapGormError(err, domain.ErrAccountNotFound)
	}
	return mapAccountToDomain(&m), nil
}

// UpdateBalance implements repository.AccountRepository.
func (r *accountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", id).
		Update("balance", balance)
	if result.Error != nil {
		return mapGormError(result.Error, domain.ErrAccountNotFound)
	}
	if result.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
