package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/harborcpa/practice-backend/internal/adapter/repository"
	domainRepo "github.com/harborcpa/practice-backend/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	CustomerMapping domainRepo.CustomerMappingRepository
	WebhookEvent    domainRepo.WebhookEventRepository
	BankAccount     domainRepo.BankAccountRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		CustomerMapping: repository.NewCustomerMappingRepository(db),
		WebhookEvent:    repository.NewWebhookEventRepository(db, logger),
		BankAccount:     repository.NewBankAccountRepository(db, logger),
	}
}
