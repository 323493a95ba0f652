package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborcpa/practice-backend/internal/domain/entity"
	domainErrors "github.com/harborcpa/practice-backend/internal/domain/errors"
	"github.com/harborcpa/practice-backend/internal/domain/model"
	"github.com/harborcpa/practice-backend/internal/domain/provider"
	"github.com/harborcpa/practice-backend/internal/domain/repository"
)

// LinkRegistry owns the platform-client to aggregator-customer mapping and
// the status projection the UI polls
type LinkRegistry struct {
	mappings   repository.CustomerMappingRepository
	accounts   repository.BankAccountRepository
	aggregator provider.AggregatorProvider
	reconciler Reconciler
	logger     *zap.Logger
}

// NewLinkRegistry creates a new link registry
func NewLinkRegistry(
	mappings repository.CustomerMappingRepository,
	accounts repository.BankAccountRepository,
	aggregator provider.AggregatorProvider,
	reconciler Reconciler,
	logger *zap.Logger,
) *LinkRegistry {
	return &LinkRegistry{
		mappings:   mappings,
		accounts:   accounts,
		aggregator: aggregator,
		reconciler: reconciler,
		logger:     logger,
	}
}

// GetOrCreateCustomer returns the aggregator customer id for a platform
// client, creating an aggregator customer and the local mapping on first
// request. Safe to call concurrently for the same client: the unique
// constraint on the platform client id arbitrates, and the loser re-fetches.
func (s *LinkRegistry) GetOrCreateCustomer(ctx context.Context, platformClientID uuid.UUID, displayName string) (string, error) {
	existing, err := s.mappings.GetByPlatformClientID(ctx, platformClientID.String())
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.AggregatorCustomerID, nil
	}

	username := buildUsername(displayName)
	customerID, err := s.aggregator.CreateCustomer(ctx, username)
	if err != nil {
		return "", err
	}

	created, err := s.mappings.Create(ctx, &entity.CustomerLink{
		PlatformClientID:     platformClientID.String(),
		AggregatorCustomerID: customerID,
		Status:               string(model.LinkStatusNotLinked),
	})
	if err != nil {
		return "", err
	}
	if !created {
		// a concurrent request won the insert; its aggregator customer is
		// authoritative and the one we just created goes unused
		winner, err := s.mappings.GetByPlatformClientID(ctx, platformClientID.String())
		if err != nil {
			return "", err
		}
		if winner == nil {
			return "", fmt.Errorf("customer mapping vanished after conflict for client %s", platformClientID)
		}
		s.logger.Warn("Concurrent link request created a redundant aggregator customer",
			zap.String("platform_client_id", platformClientID.String()),
			zap.String("unused_customer_id", customerID),
			zap.String("kept_customer_id", winner.AggregatorCustomerID))
		return winner.AggregatorCustomerID, nil
	}

	s.logger.Info("Customer mapping created",
		zap.String("platform_client_id", platformClientID.String()),
		zap.String("aggregator_customer_id", customerID))

	return customerID, nil
}

// GetStatus is the read-only projection the UI polls: mapping status joined
// with the customer's active accounts. A client with no mapping reads as
// not_linked.
func (s *LinkRegistry) GetStatus(ctx context.Context, platformClientID uuid.UUID) (*entity.LinkageStatus, error) {
	link, err := s.mappings.GetByPlatformClientID(ctx, platformClientID.String())
	if err != nil {
		return nil, err
	}
	if link == nil {
		return &entity.LinkageStatus{
			Status:   string(model.LinkStatusNotLinked),
			Accounts: []entity.LinkedAccount{},
		}, nil
	}

	accounts, err := s.accounts.ListActiveByCustomer(ctx, link.AggregatorCustomerID)
	if err != nil {
		return nil, err
	}

	status := &entity.LinkageStatus{
		Status:   link.Status,
		Accounts: make([]entity.LinkedAccount, 0, len(accounts)),
	}
	if link.Status == string(model.LinkStatusLinked) {
		linkedAt := link.UpdatedAt
		status.LinkedAt = &linkedAt
	}
	for _, acct := range accounts {
		status.Accounts = append(status.Accounts, entity.LinkedAccount{
			ID:            acct.ID,
			Name:          acct.Name,
			Type:          acct.Type,
			Balance:       acct.Balance.StringFixed(2),
			Currency:      acct.Currency,
			InstitutionID: acct.InstitutionID,
		})
	}

	return status, nil
}

// SetStatus moves the linkage status. Only the event router calls this;
// invitation sending never touches status.
func (s *LinkRegistry) SetStatus(ctx context.Context, aggregatorCustomerID string, status model.LinkStatus) error {
	return s.mappings.UpdateStatus(ctx, aggregatorCustomerID, status)
}

// RefreshAccounts pulls the aggregator's current account list for the client
// and reconciles local storage against it, then returns the fresh projection
func (s *LinkRegistry) RefreshAccounts(ctx context.Context, platformClientID uuid.UUID) (*entity.LinkageStatus, error) {
	link, err := s.mappings.GetByPlatformClientID(ctx, platformClientID.String())
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, domainErrors.ErrNoCustomerLink
	}

	accounts, err := s.aggregator.GetCustomerAccounts(ctx, link.AggregatorCustomerID)
	if err != nil {
		return nil, err
	}

	if _, err := s.reconciler.Upsert(ctx, link.AggregatorCustomerID, accounts); err != nil {
		return nil, err
	}

	return s.GetStatus(ctx, platformClientID)
}

// buildUsername sanitizes a display name into an alphanumeric aggregator
// username with a timestamp suffix to satisfy uniqueness constraints
func buildUsername(displayName string) string {
	var b strings.Builder
	for _, r := range displayName {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	name := b.String()
	if name == "" {
		name = "client"
	}
	return fmt.Sprintf("%s%d", name, time.Now().Unix())
}
