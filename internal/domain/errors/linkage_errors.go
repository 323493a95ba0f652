package errors

import "errors"

var (
	// ErrNoCustomerLink indicates that the platform client has never requested a bank linkage
	ErrNoCustomerLink = errors.New("no customer link found for client")

	// ErrUnknownAggregatorCustomer indicates a webhook referenced a customer id with no local mapping
	ErrUnknownAggregatorCustomer = errors.New("no customer mapping for aggregator customer id")

	// ErrDuplicateDelivery indicates a webhook message id was already recorded; not a failure
	ErrDuplicateDelivery = errors.New("webhook event already recorded")
)
