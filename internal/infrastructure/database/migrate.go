package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/harborcpa/practice-backend/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	// Custom types must exist before auto-migrate references them
	if err := createCustomTypes(db); err != nil {
		logger.Error("Failed to create custom types", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.CustomerMapping{},
		&model.WebhookEventRecord{},
		&model.BankAccount{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomTypes creates custom PostgreSQL enum types
func createCustomTypes(db *gorm.DB) error {
	var exists bool

	db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'link_status')`).Scan(&exists)
	if !exists {
		if err := db.Exec(`CREATE TYPE link_status AS ENUM ('not_linked', 'pending', 'linked', 'error')`).Error; err != nil {
			return err
		}
	}

	db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'bank_account_status')`).Scan(&exists)
	if !exists {
		if err := db.Exec(`CREATE TYPE bank_account_status AS ENUM ('active', 'removed')`).Error; err != nil {
			return err
		}
	}

	return nil
}

// createCustomIndexes creates indexes GORM doesn't handle automatically
func createCustomIndexes(db *gorm.DB) error {
	// Status projections only read active accounts
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_bank_accounts_active_per_customer ON bank_accounts (aggregator_customer_id) WHERE status = 'active'`).Error; err != nil {
		return err
	}

	// Debug listing and audits read the event log newest-first
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_webhook_event_records_created_at ON webhook_event_records (created_at DESC)`).Error; err != nil {
		return err
	}

	return nil
}
