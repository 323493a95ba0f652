package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harborcpa/practice-backend/internal/domain/entity"
	"github.com/harborcpa/practice-backend/internal/domain/model"
	domainRepo "github.com/harborcpa/practice-backend/internal/domain/repository"
)

type customerMappingRepository struct {
	db *gorm.DB
}

func NewCustomerMappingRepository(db *gorm.DB) domainRepo.CustomerMappingRepository {
	return &customerMappingRepository{
		db: db,
	}
}

// modelToEntity converts a model.CustomerMapping to entity.CustomerLink
func (r *customerMappingRepository) modelToEntity(m *model.CustomerMapping) *entity.CustomerLink {
	if m == nil {
		return nil
	}
	return &entity.CustomerLink{
		ID:                   m.ID,
		PlatformClientID:     m.PlatformClientID.String(),
		AggregatorCustomerID: m.AggregatorCustomerID,
		Status:               string(m.Status),
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// entityToModel converts an entity.CustomerLink to model.CustomerMapping
func (r *customerMappingRepository) entityToModel(e *entity.CustomerLink) (*model.CustomerMapping, error) {
	if e == nil {
		return nil, nil
	}

	clientUUID, err := uuid.Parse(e.PlatformClientID)
	if err != nil {
		return nil, err
	}

	return &model.CustomerMapping{
		ID:                   e.ID,
		PlatformClientID:     clientUUID,
		AggregatorCustomerID: e.AggregatorCustomerID,
		Status:               model.LinkStatus(e.Status),
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}, nil
}

func (r *customerMappingRepository) Create(ctx context.Context, link *entity.CustomerLink) (bool, error) {
	modelMapping, err := r.entityToModel(link)
	if err != nil {
		return false, err
	}
	if modelMapping.Status == "" {
		modelMapping.Status = model.LinkStatusNotLinked
	}

	// The unique constraint on platform_client_id is the arbiter for
	// concurrent first link requests
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "platform_client_id"}},
			DoNothing: true,
		}).
		Create(modelMapping)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create customer mapping: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *customerMappingRepository) GetByPlatformClientID(ctx context.Context, platformClientID string) (*entity.CustomerLink, error) {
	clientUUID, err := uuid.Parse(platformClientID)
	if err != nil {
		return nil, err
	}

	var mapping model.CustomerMapping
	err = r.db.WithContext(ctx).Where("platform_client_id = ?", clientUUID).First(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.modelToEntity(&mapping), nil
}

func (r *customerMappingRepository) GetByAggregatorCustomerID(ctx context.Context, aggregatorCustomerID string) (*entity.CustomerLink, error) {
	var mapping model.CustomerMapping
	err := r.db.WithContext(ctx).Where("aggregator_customer_id = ?", aggregatorCustomerID).First(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.modelToEntity(&mapping), nil
}

func (r *customerMappingRepository) UpdateStatus(ctx context.Context, aggregatorCustomerID string, status model.LinkStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.CustomerMapping{}).
		Where("aggregator_customer_id = ?", aggregatorCustomerID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": gorm.Expr("NOW()"),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update linkage status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("customer mapping not found: %s", aggregatorCustomerID)
	}

	return nil
}
