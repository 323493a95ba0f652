package usecase

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/harborcpa/practice-backend/internal/domain/model"
	"github.com/harborcpa/practice-backend/internal/domain/provider"
	"github.com/harborcpa/practice-backend/internal/domain/repository"
)

const (
	defaultAccountName = "Unnamed account"
	defaultAccountType = "unknown"
	defaultCurrency    = "USD"
)

// Reconciler applies aggregator-reported account changes to local storage
type Reconciler interface {
	Upsert(ctx context.Context, aggregatorCustomerID string, accounts []provider.Account) (int, error)
	Remove(ctx context.Context, aggregatorCustomerID string, accountIDs []string) (int64, error)
}

// AccountReconciler synchronizes BankAccount rows with the aggregator's
// authoritative account list for a customer
type AccountReconciler struct {
	accounts repository.BankAccountRepository
	logger   *zap.Logger
}

// NewAccountReconciler creates a new account reconciler
func NewAccountReconciler(accounts repository.BankAccountRepository, logger *zap.Logger) *AccountReconciler {
	return &AccountReconciler{
		accounts: accounts,
		logger:   logger,
	}
}

// Upsert maps aggregator accounts to local rows and upserts them keyed by the
// aggregator account id. An account without an id is skipped with a warning;
// one malformed account must not fail the batch. Returns the number of
// accounts written.
func (r *AccountReconciler) Upsert(ctx context.Context, aggregatorCustomerID string, accounts []provider.Account) (int, error) {
	rows := make([]*model.BankAccount, 0, len(accounts))
	for _, acct := range accounts {
		if acct.ID == "" {
			r.logger.Warn("Skipping aggregator account without id",
				zap.String("aggregator_customer_id", aggregatorCustomerID),
				zap.String("account_name", acct.Name))
			continue
		}

		row := &model.BankAccount{
			ID:                   acct.ID,
			AggregatorCustomerID: aggregatorCustomerID,
			Name:                 acct.Name,
			Type:                 acct.Type,
			Balance:              decimal.NewFromFloat(acct.Balance),
			Currency:             acct.Currency,
			Status:               model.AccountStatusActive,
			InstitutionID:        acct.InstitutionID,
		}
		if row.Name == "" {
			row.Name = defaultAccountName
		}
		if row.Type == "" {
			row.Type = defaultAccountType
		}
		if row.Currency == "" {
			row.Currency = defaultCurrency
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return 0, nil
	}

	if err := r.accounts.UpsertAccounts(ctx, rows); err != nil {
		return 0, err
	}

	r.logger.Info("Bank accounts reconciled",
		zap.String("aggregator_customer_id", aggregatorCustomerID),
		zap.Int("upserted", len(rows)),
		zap.Int("skipped", len(accounts)-len(rows)))

	return len(rows), nil
}

// Remove marks the given accounts removed, scoped by customer id
func (r *AccountReconciler) Remove(ctx context.Context, aggregatorCustomerID string, accountIDs []string) (int64, error) {
	removed, err := r.accounts.MarkRemoved(ctx, aggregatorCustomerID, accountIDs)
	if err != nil {
		return 0, err
	}

	r.logger.Info("Bank accounts removed",
		zap.String("aggregator_customer_id", aggregatorCustomerID),
		zap.Strings("account_ids", accountIDs),
		zap.Int64("removed", removed))

	return removed, nil
}
