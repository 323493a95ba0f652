package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// WebhookEventRecord is the append-only audit log of inbound aggregator
// webhooks. MessageID is the idempotency key; the unique constraint on it is
// the authoritative arbiter for duplicate deliveries.
type WebhookEventRecord struct {
	ID                   int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID            string     `gorm:"column:message_id;unique;not null;size:255;index" json:"message_id"`
	EventType            string     `gorm:"not null;size:100;index" json:"event_type"`
	AggregatorCustomerID string     `gorm:"column:aggregator_customer_id;size:100;index" json:"aggregator_customer_id"`
	RawHeaders           JSONB      `gorm:"type:jsonb" json:"raw_headers"`
	RawPayload           JSONB      `gorm:"type:jsonb;not null" json:"raw_payload"`
	Verified             bool       `gorm:"not null;default:false" json:"verified"`
	ProcessedAt          *time.Time `json:"processed_at,omitempty"`
	CreatedAt            time.Time  `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (WebhookEventRecord) TableName() string {
	return "webhook_event_records"
}

// JSONB represents a JSONB database type
type JSONB map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONB) Scan(src interface{}) error {
	if src == nil {
		*j = nil
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		*j = make(JSONB)
		return nil
	}
}
