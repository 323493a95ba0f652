package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harborcpa/practice-backend/internal/domain/model"
	domainRepo "github.com/harborcpa/practice-backend/internal/domain/repository"
)

type webhookEventRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(db *gorm.DB, logger *zap.Logger) domainRepo.WebhookEventRepository {
	return &webhookEventRepository{
		db:     db,
		logger: logger,
	}
}

// SaveEvent inserts the event unless its message id was already recorded.
// ON CONFLICT DO NOTHING makes the unique constraint the arbiter, so two
// concurrent deliveries of the same message cannot both insert.
func (r *webhookEventRepository) SaveEvent(ctx context.Context, record *model.WebhookEventRecord) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoNothing: true,
		}).
		Create(record)

	if result.Error != nil {
		r.logger.Error("Failed to save webhook event",
			zap.String("message_id", record.MessageID),
			zap.String("event_type", record.EventType),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to save webhook event: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// GetByMessageID retrieves a webhook event by its idempotency key
func (r *webhookEventRepository) GetByMessageID(ctx context.Context, messageID string) (*model.WebhookEventRecord, error) {
	var event model.WebhookEventRecord

	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		First(&event).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get webhook event",
			zap.String("message_id", messageID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}

	return &event, nil
}

// MarkProcessed stamps processed_at after routing completed
func (r *webhookEventRepository) MarkProcessed(ctx context.Context, messageID string) error {
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&model.WebhookEventRecord{}).
		Where("message_id = ?", messageID).
		Update("processed_at", &now)

	if result.Error != nil {
		r.logger.Error("Failed to mark webhook event as processed",
			zap.String("message_id", messageID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark webhook event as processed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook event not found: %s", messageID)
	}

	return nil
}

// ListRecent retrieves the newest webhook events for debugging
func (r *webhookEventRepository) ListRecent(ctx context.Context, limit int) ([]*model.WebhookEventRecord, error) {
	var events []*model.WebhookEventRecord

	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&events).Error
	if err != nil {
		r.logger.Error("Failed to list webhook events", zap.Error(err))
		return nil, fmt.Errorf("failed to list webhook events: %w", err)
	}

	return events, nil
}
