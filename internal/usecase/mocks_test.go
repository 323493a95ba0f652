package usecase_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/harborcpa/practice-backend/internal/domain/entity"
	"github.com/harborcpa/practice-backend/internal/domain/model"
	"github.com/harborcpa/practice-backend/internal/domain/provider"
)

// MockCustomerMappingRepository is a mock implementation of CustomerMappingRepository
type MockCustomerMappingRepository struct {
	mock.Mock
}

func (m *MockCustomerMappingRepository) Create(ctx context.Context, link *entity.CustomerLink) (bool, error) {
	args := m.Called(ctx, link)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerMappingRepository) GetByPlatformClientID(ctx context.Context, platformClientID string) (*entity.CustomerLink, error) {
	args := m.Called(ctx, platformClientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CustomerLink), args.Error(1)
}

func (m *MockCustomerMappingRepository) GetByAggregatorCustomerID(ctx context.Context, aggregatorCustomerID string) (*entity.CustomerLink, error) {
	args := m.Called(ctx, aggregatorCustomerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CustomerLink), args.Error(1)
}

func (m *MockCustomerMappingRepository) UpdateStatus(ctx context.Context, aggregatorCustomerID string, status model.LinkStatus) error {
	args := m.Called(ctx, aggregatorCustomerID, status)
	return args.Error(0)
}

// MockBankAccountRepository is a mock implementation of BankAccountRepository
type MockBankAccountRepository struct {
	mock.Mock
}

func (m *MockBankAccountRepository) UpsertAccounts(ctx context.Context, accounts []*model.BankAccount) error {
	args := m.Called(ctx, accounts)
	return args.Error(0)
}

func (m *MockBankAccountRepository) MarkRemoved(ctx context.Context, aggregatorCustomerID string, accountIDs []string) (int64, error) {
	args := m.Called(ctx, aggregatorCustomerID, accountIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBankAccountRepository) ListActiveByCustomer(ctx context.Context, aggregatorCustomerID string) ([]*model.BankAccount, error) {
	args := m.Called(ctx, aggregatorCustomerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.BankAccount), args.Error(1)
}

// MockReconciler is a mock implementation of Reconciler
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Upsert(ctx context.Context, aggregatorCustomerID string, accounts []provider.Account) (int, error) {
	args := m.Called(ctx, aggregatorCustomerID, accounts)
	return args.Int(0), args.Error(1)
}

func (m *MockReconciler) Remove(ctx context.Context, aggregatorCustomerID string, accountIDs []string) (int64, error) {
	args := m.Called(ctx, aggregatorCustomerID, accountIDs)
	return args.Get(0).(int64), args.Error(1)
}

// MockAggregatorProvider is a mock implementation of AggregatorProvider
type MockAggregatorProvider struct {
	mock.Mock
}

func (m *MockAggregatorProvider) FetchToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockAggregatorProvider) CreateCustomer(ctx context.Context, username string) (string, error) {
	args := m.Called(ctx, username)
	return args.String(0), args.Error(1)
}

func (m *MockAggregatorProvider) SendConnectEmail(ctx context.Context, req *provider.ConnectEmailRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockAggregatorProvider) GetCustomerAccounts(ctx context.Context, customerID string) ([]provider.Account, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Account), args.Error(1)
}

func (m *MockAggregatorProvider) ProviderName() string {
	return "mock"
}
