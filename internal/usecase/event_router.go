package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/harborcpa/practice-backend/internal/domain/model"
	"github.com/harborcpa/practice-backend/internal/domain/provider"
	"github.com/harborcpa/practice-backend/internal/domain/repository"
)

// Aggregator connect event types. Events are expected but not guaranteed to
// arrive in temporal order per customer; status writes are last-write-wins.
const (
	EventStarted               = "started"
	EventInstitutionDiscovered = "institutionDiscovered"
	EventDiscovered            = "discovered"
	EventAdding                = "adding"
	EventAdded                 = "added"
	EventDone                  = "done"
	EventUnableToConnect       = "unableToConnect"
	EventInvalidCredentials    = "invalidCredentials"
	EventAccountsDeleted       = "accountsDeleted"
	EventPing                  = "ping"
)

// LinkageEvent is a parsed, deduplicated webhook event handed to the router
type LinkageEvent struct {
	MessageID  string
	EventID    string
	EventType  string
	CustomerID string
	Payload    map[string]interface{}
	Verified   bool
}

// EventRouter advances the linkage lifecycle from inbound aggregator events:
// not_linked -> pending -> linked, error from pending on failure events, and
// back to pending when all accounts are deleted.
type EventRouter struct {
	mappings   repository.CustomerMappingRepository
	reconciler Reconciler
	logger     *zap.Logger
}

// NewEventRouter creates a new event router
func NewEventRouter(mappings repository.CustomerMappingRepository, reconciler Reconciler, logger *zap.Logger) *EventRouter {
	return &EventRouter{
		mappings:   mappings,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Route interprets the event type and applies its effect. Events for unknown
// customers are logged as orphaned and discarded; unknown event types are
// ignored so new aggregator event types cannot break ingestion.
func (r *EventRouter) Route(ctx context.Context, event *LinkageEvent) error {
	link, err := r.mappings.GetByAggregatorCustomerID(ctx, event.CustomerID)
	if err != nil {
		return err
	}
	if link == nil {
		r.logger.Warn("Orphaned webhook event: no mapping for aggregator customer",
			zap.String("aggregator_customer_id", event.CustomerID),
			zap.String("event_type", event.EventType),
			zap.String("message_id", event.MessageID))
		return nil
	}

	switch event.EventType {
	case EventStarted, EventInstitutionDiscovered, EventDiscovered, EventAdding:
		r.logger.Info("Linkage progress event",
			zap.String("aggregator_customer_id", event.CustomerID),
			zap.String("event_type", event.EventType))
		return nil

	case EventAdded:
		accounts := r.eventAccounts(event)
		if accounts == nil {
			r.logger.Warn("Added event without accounts payload",
				zap.String("aggregator_customer_id", event.CustomerID),
				zap.String("message_id", event.MessageID))
			return nil
		}
		if _, err := r.reconciler.Upsert(ctx, event.CustomerID, accounts); err != nil {
			return err
		}
		return r.setStatus(ctx, event, model.LinkStatusLinked)

	case EventDone:
		accounts := r.eventAccounts(event)
		if len(accounts) == 0 {
			// connect session finished without any account landing
			return r.setStatus(ctx, event, model.LinkStatusPending)
		}
		if _, err := r.reconciler.Upsert(ctx, event.CustomerID, accounts); err != nil {
			return err
		}
		return r.setStatus(ctx, event, model.LinkStatusLinked)

	case EventUnableToConnect, EventInvalidCredentials:
		return r.setStatus(ctx, event, model.LinkStatusError)

	case EventAccountsDeleted:
		ids := r.eventAccountIDs(event)
		if len(ids) > 0 {
			if _, err := r.reconciler.Remove(ctx, event.CustomerID, ids); err != nil {
				return err
			}
		}
		return r.setStatus(ctx, event, model.LinkStatusPending)

	default:
		r.logger.Warn("Unhandled webhook event type",
			zap.String("event_type", event.EventType),
			zap.String("aggregator_customer_id", event.CustomerID))
		return nil
	}
}

func (r *EventRouter) setStatus(ctx context.Context, event *LinkageEvent, status model.LinkStatus) error {
	if err := r.mappings.UpdateStatus(ctx, event.CustomerID, status); err != nil {
		return err
	}

	r.logger.Info("Linkage status updated",
		zap.String("aggregator_customer_id", event.CustomerID),
		zap.String("event_type", event.EventType),
		zap.String("status", string(status)))

	return nil
}

// eventAccounts returns the parsed accounts array, or nil when the payload
// carries no accounts key at all
func (r *EventRouter) eventAccounts(event *LinkageEvent) []provider.Account {
	if event.Payload == nil {
		return nil
	}
	raw, ok := event.Payload["accounts"].([]interface{})
	if !ok {
		return nil
	}
	return provider.AccountsFromPayload(raw)
}

func (r *EventRouter) eventAccountIDs(event *LinkageEvent) []string {
	if event.Payload == nil {
		return nil
	}
	raw, ok := event.Payload["accountIds"].([]interface{})
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			ids = append(ids, v)
		case float64:
			ids = append(ids, fmt.Sprintf("%.0f", v))
		}
	}
	return ids
}
