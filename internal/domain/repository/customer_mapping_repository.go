package repository

import (
	"context"

	"github.com/harborcpa/practice-backend/internal/domain/entity"
	"github.com/harborcpa/practice-backend/internal/domain/model"
)

// CustomerMappingRepository persists the platform-client to aggregator-customer mapping
type CustomerMappingRepository interface {
	// Create inserts a new mapping. Returns created=false when another
	// writer already holds the platform client id; callers re-fetch instead
	// of creating duplicate aggregator customers.
	Create(ctx context.Context, link *entity.CustomerLink) (created bool, err error)

	// GetByPlatformClientID returns the mapping for a platform client, or nil when absent
	GetByPlatformClientID(ctx context.Context, platformClientID string) (*entity.CustomerLink, error)

	// GetByAggregatorCustomerID returns the mapping for an aggregator customer, or nil when absent
	GetByAggregatorCustomerID(ctx context.Context, aggregatorCustomerID string) (*entity.CustomerLink, error)

	// UpdateStatus sets the linkage status for the mapping owning the given
	// aggregator customer id. Last write wins.
	UpdateStatus(ctx context.Context, aggregatorCustomerID string, status model.LinkStatus) error
}
