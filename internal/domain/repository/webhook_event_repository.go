package repository

import (
	"context"

	"github.com/harborcpa/practice-backend/internal/domain/model"
)

// WebhookEventRepository is the append-only store of inbound webhook deliveries
type WebhookEventRepository interface {
	// SaveEvent inserts the record if no record with the same message id
	// exists. Returns created=false when the message id was already present;
	// duplicate delivery is an expected outcome, not an error.
	SaveEvent(ctx context.Context, record *model.WebhookEventRecord) (created bool, err error)

	// GetByMessageID returns the stored record, or nil when absent
	GetByMessageID(ctx context.Context, messageID string) (*model.WebhookEventRecord, error)

	// MarkProcessed stamps processed_at once routing has completed
	MarkProcessed(ctx context.Context, messageID string) error

	// ListRecent returns the newest records for debugging
	ListRecent(ctx context.Context, limit int) ([]*model.WebhookEventRecord, error)
}
