package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harborcpa/practice-backend/internal/domain/model"
	domainRepo "github.com/harborcpa/practice-backend/internal/domain/repository"
)

type bankAccountRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewBankAccountRepository creates a new bank account repository
func NewBankAccountRepository(db *gorm.DB, logger *zap.Logger) domainRepo.BankAccountRepository {
	return &bankAccountRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertAccounts inserts or refreshes accounts keyed by the aggregator account id
func (r *bankAccountRepository) UpsertAccounts(ctx context.Context, accounts []*model.BankAccount) error {
	if len(accounts) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"aggregator_customer_id", "name", "type", "balance",
				"currency", "status", "institution_id", "last_updated_at",
			}),
		}).
		Create(accounts).Error

	if err != nil {
		r.logger.Error("Failed to upsert bank accounts",
			zap.Int("count", len(accounts)),
			zap.Error(err))
		return fmt.Errorf("failed to upsert bank accounts: %w", err)
	}

	return nil
}

// MarkRemoved flips accounts to removed, scoped by both customer and ids
func (r *bankAccountRepository) MarkRemoved(ctx context.Context, aggregatorCustomerID string, accountIDs []string) (int64, error) {
	if len(accountIDs) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Model(&model.BankAccount{}).
		Where("aggregator_customer_id = ? AND id IN ?", aggregatorCustomerID, accountIDs).
		Updates(map[string]interface{}{
			"status":          model.AccountStatusRemoved,
			"last_updated_at": gorm.Expr("NOW()"),
		})

	if result.Error != nil {
		r.logger.Error("Failed to mark bank accounts removed",
			zap.String("aggregator_customer_id", aggregatorCustomerID),
			zap.Strings("account_ids", accountIDs),
			zap.Error(result.Error))
		return 0, fmt.Errorf("failed to mark bank accounts removed: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// ListActiveByCustomer returns the customer's active accounts
func (r *bankAccountRepository) ListActiveByCustomer(ctx context.Context, aggregatorCustomerID string) ([]*model.BankAccount, error) {
	var accounts []*model.BankAccount

	err := r.db.WithContext(ctx).
		Where("aggregator_customer_id = ? AND status = ?", aggregatorCustomerID, model.AccountStatusActive).
		Order("created_at ASC").
		Find(&accounts).Error

	if err != nil {
		r.logger.Error("Failed to list active bank accounts",
			zap.String("aggregator_customer_id", aggregatorCustomerID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list active bank accounts: %w", err)
	}

	return accounts, nil
}
