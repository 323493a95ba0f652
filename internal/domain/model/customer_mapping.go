package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// LinkStatus represents the lifecycle state of a customer's bank linkage
type LinkStatus string

const (
	LinkStatusNotLinked LinkStatus = "not_linked"
	LinkStatusPending   LinkStatus = "pending"
	LinkStatusLinked    LinkStatus = "linked"
	LinkStatusError     LinkStatus = "error"
)

// Scan implements sql.Scanner interface
func (s *LinkStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = LinkStatus(v)
	case []byte:
		*s = LinkStatus(v)
	default:
		*s = LinkStatusNotLinked
	}
	return nil
}

// Value implements driver.Valuer interface
func (s LinkStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// CustomerMapping maps a platform client to the aggregator's customer record.
// Status is the only field mutated after creation, always by the event router.
type CustomerMapping struct {
	ID                   int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PlatformClientID     uuid.UUID  `gorm:"column:platform_client_id;type:uuid;unique;not null;index" json:"platform_client_id"`
	AggregatorCustomerID string     `gorm:"column:aggregator_customer_id;unique;not null;size:100;index" json:"aggregator_customer_id"`
	Status               LinkStatus `gorm:"type:link_status;default:'not_linked';index" json:"status"`
	CreatedAt            time.Time  `gorm:"default:now()" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (CustomerMapping) TableName() string {
	return "customer_mappings"
}
