package repository

import (
	"context"

	"github.com/harborcpa/practice-backend/internal/domain/model"
)

// BankAccountRepository reconciles locally stored accounts against the
// aggregator's reported set
type BankAccountRepository interface {
	// UpsertAccounts inserts or refreshes accounts keyed by the
	// aggregator-assigned account id
	UpsertAccounts(ctx context.Context, accounts []*model.BankAccount) error

	// MarkRemoved flips matching accounts to removed, scoped by customer id
	// so colliding ids across sandboxes cannot touch another tenant. Returns
	// the number of rows affected.
	MarkRemoved(ctx context.Context, aggregatorCustomerID string, accountIDs []string) (int64, error)

	// ListActiveByCustomer returns the customer's active accounts
	ListActiveByCustomer(ctx context.Context, aggregatorCustomerID string) ([]*model.BankAccount, error)
}
