package entity

import "time"

// CustomerLink is the transport-facing view of a customer mapping
type CustomerLink struct {
	ID                   int64     `json:"id"`
	PlatformClientID     string    `json:"platform_client_id"`
	AggregatorCustomerID string    `json:"aggregator_customer_id"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// LinkedAccount is one active bank account in a status projection
type LinkedAccount struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Balance       string `json:"balance"`
	Currency      string `json:"currency"`
	InstitutionID string `json:"institution_id,omitempty"`
}

// LinkageStatus is the read-only projection the UI polls: the mapping status
// joined with the customer's active accounts
type LinkageStatus struct {
	Status   string          `json:"status"`
	LinkedAt *time.Time      `json:"linked_at,omitempty"`
	Accounts []LinkedAccount `json:"accounts"`
}
