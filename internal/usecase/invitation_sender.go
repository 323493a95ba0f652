package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/harborcpa/practice-backend/internal/domain/provider"
)

// InvitationSender asks the aggregator to email a client a single-use
// bank-linking link. Fire and forget: acceptance only means the email job was
// queued, and linkage status only ever changes from webhook events.
type InvitationSender struct {
	aggregator  provider.AggregatorProvider
	redirectURI string
	webhookURL  string
	logger      *zap.Logger
}

// NewInvitationSender creates a new invitation sender. redirectURI and
// webhookURL come from configuration; the webhook URL is what the aggregator
// will call back with linkage events.
func NewInvitationSender(aggregator provider.AggregatorProvider, redirectURI, webhookURL string, logger *zap.Logger) *InvitationSender {
	return &InvitationSender{
		aggregator:  aggregator,
		redirectURI: redirectURI,
		webhookURL:  webhookURL,
		logger:      logger,
	}
}

// Send requests a connect invitation email for the aggregator customer.
// redirectOverride substitutes the configured redirect URI when non-empty.
func (s *InvitationSender) Send(ctx context.Context, aggregatorCustomerID, email, firstName, redirectOverride string) error {
	redirect := s.redirectURI
	if redirectOverride != "" {
		redirect = redirectOverride
	}

	err := s.aggregator.SendConnectEmail(ctx, &provider.ConnectEmailRequest{
		CustomerID:  aggregatorCustomerID,
		Email:       email,
		FirstName:   firstName,
		RedirectURI: redirect,
		WebhookURL:  s.webhookURL,
		SingleUse:   true,
	})
	if err != nil {
		s.logger.Error("Connect invitation rejected",
			zap.String("aggregator_customer_id", aggregatorCustomerID),
			zap.Error(err))
		return err
	}

	s.logger.Info("Connect invitation sent",
		zap.String("aggregator_customer_id", aggregatorCustomerID),
		zap.String("email", email))

	return nil
}
