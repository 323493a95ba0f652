package provider

import (
	"context"
	"fmt"
)

// TokenProvider exchanges partner credentials for a short-lived access token.
// Tokens are fetched fresh per logical operation and never cached; a caching
// decorator can wrap this interface later without changing call sites.
type TokenProvider interface {
	FetchToken(ctx context.Context) (string, error)
}

// AggregatorProvider defines the outbound surface of the open-banking
// aggregator (customer creation, connect invitations, account reads)
type AggregatorProvider interface {
	TokenProvider

	// CreateCustomer registers a new customer with the aggregator and
	// returns the aggregator-assigned customer id
	CreateCustomer(ctx context.Context, username string) (string, error)

	// SendConnectEmail asks the aggregator to email the client a single-use
	// bank-linking link
	SendConnectEmail(ctx context.Context, req *ConnectEmailRequest) error

	// GetCustomerAccounts reads the aggregator's current account list for a customer
	GetCustomerAccounts(ctx context.Context, customerID string) ([]Account, error)

	// ProviderName returns the provider name
	ProviderName() string
}

// ConnectEmailRequest carries everything the aggregator needs to deliver a
// connect invitation
type ConnectEmailRequest struct {
	CustomerID  string `json:"customer_id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	RedirectURI string `json:"redirect_uri"`
	WebhookURL  string `json:"webhook_url"`
	SingleUse   bool   `json:"single_use"`
}

// Account is the provider-agnostic shape of an aggregator-reported bank account
type Account struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Balance       float64 `json:"balance"`
	Currency      string  `json:"currency"`
	InstitutionID string  `json:"institutionId"`
}

// AccountsFromPayload leniently extracts accounts from a decoded webhook
// payload. Aggregator sandboxes are inconsistent about id types (string vs
// number), so both are accepted; entries that are not objects are dropped.
func AccountsFromPayload(items []interface{}) []Account {
	accounts := make([]Account, 0, len(items))
	for _, item := range items {
		raw, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		acct := Account{}
		switch id := raw["id"].(type) {
		case string:
			acct.ID = id
		case float64:
			acct.ID = fmt.Sprintf("%.0f", id)
		}
		acct.Name, _ = raw["name"].(string)
		acct.Type, _ = raw["type"].(string)
		acct.Balance, _ = raw["balance"].(float64)
		acct.Currency, _ = raw["currency"].(string)
		acct.InstitutionID, _ = raw["institutionId"].(string)
		accounts = append(accounts, acct)
	}
	return accounts
}

// ProviderError represents a failure reported by (or while calling) the aggregator
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
