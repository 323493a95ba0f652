package model

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus represents whether an account is still reported by the aggregator
type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "active"
	AccountStatusRemoved AccountStatus = "removed"
)

// Scan implements sql.Scanner interface
func (s *AccountStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = AccountStatus(v)
	case []byte:
		*s = AccountStatus(v)
	default:
		*s = AccountStatusActive
	}
	return nil
}

// Value implements driver.Valuer interface
func (s AccountStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// BankAccount is a locally reconciled copy of an aggregator-reported account.
// Keyed by the aggregator-assigned account id, scoped by customer id.
type BankAccount struct {
	ID                   string          `gorm:"primaryKey;size:100" json:"id"`
	AggregatorCustomerID string          `gorm:"column:aggregator_customer_id;not null;size:100;index" json:"aggregator_customer_id"`
	Name                 string          `gorm:"not null;size:255" json:"name"`
	Type                 string          `gorm:"not null;size:50" json:"type"`
	Balance              decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"balance"`
	Currency             string          `gorm:"not null;size:10" json:"currency"`
	Status               AccountStatus   `gorm:"type:bank_account_status;default:'active';index" json:"status"`
	InstitutionID        string          `gorm:"column:institution_id;size:100" json:"institution_id"`
	CreatedAt            time.Time       `gorm:"default:now()" json:"created_at"`
	LastUpdatedAt        time.Time       `gorm:"column:last_updated_at;default:now()" json:"last_updated_at"`
}

// TableName specifies the table name for GORM
func (BankAccount) TableName() string {
	return "bank_accounts"
}
