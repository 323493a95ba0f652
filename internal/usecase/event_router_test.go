package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/harborcpa/practice-backend/internal/domain/entity"
	"github.com/harborcpa/practice-backend/internal/domain/model"
	"github.com/harborcpa/practice-backend/internal/domain/provider"
	"github.com/harborcpa/practice-backend/internal/usecase"
)

const customerID = "7029456"

func existingLink() *entity.CustomerLink {
	return &entity.CustomerLink{
		ID:                   1,
		PlatformClientID:     "f5a1e1d0-0000-4000-8000-000000000001",
		AggregatorCustomerID: customerID,
		Status:               string(model.LinkStatusPending),
	}
}

func TestEventRouter_AddedUpsertsAndLinks(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	mappings := new(MockCustomerMappingRepository)
	reconciler := new(MockReconciler)
	router := usecase.NewEventRouter(mappings, reconciler, logger)

	mappings.On("GetByAggregatorCustomerID", ctx, customerID).Return(existingLink(), nil)
	reconciler.On("Upsert", ctx, customerID, []provider.Account{
		{ID: "5011648377", Name: "Checking", Type: "checking", Balance: 401.22, Currency: "USD", InstitutionID: "101732"},
		{ID: "5011648378", Name: "Savings", Type: "savings", Balance: 1000.00, Currency: "USD", InstitutionID: "101732"},
	}).Return(2, nil)
	mappings.On("UpdateStatus", ctx, customerID, model.LinkStatusLinked).Return(nil)

	err := router.Route(ctx, &usecase.LinkageEvent{
		MessageID:  "msg-1",
		EventID:    "evt-1",
		EventType:  usecase.EventAdded,
		CustomerID: customerID,
		Payload: map[string]interface{}{
			"accounts": []interface{}{
				map[string]interface{}{"id": "5011648377", "name": "Checking", "type": "checking", "balance": 401.22, "currency": "USD", "institutionId": "101732"},
				map[string]interface{}{"id": "5011648378", "name": "Savings", "type": "savings", "balance": 1000.00, "currency": "USD", "institutionId": "101732"},
			},
		},
	})

	assert.NoError(t, err)
	mappings.AssertExpectations(t)
	reconciler.AssertExpectations(t)
}

func TestEventRouter_AddedWithoutAccountsPayload(t *testing.T) {
	ctx := context.Background()
	mappings := new(MockCustomerMappingRepository)
	reconciler := new(MockReconciler)
	router := usecase.NewEventRouter(mappings, reconciler, zap.NewNop())

	mappings.On("GetByAggregatorCustomerID", ctx, customerID).Return(existingLink(), nil)

	err := router.Route(ctx, &usecase.LinkageEvent{
		EventType:  usecase.EventAdded,
		CustomerID: customerID,
		Payload:    map[string]interface{}{},
	})

	assert.NoError(t, err)
	mappings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	reconciler.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestEventRouter_DoneEmptyAccountsMovesToPending(t *testing.T) {
	ctx := context.Background()
	mappings := new(MockCustomerMappingRepository)
	reconciler := new(MockReconciler)
	router := usecase.NewEventRouter(mappings, reconciler, zap.NewNop())

	mappings.On("GetByAggregatorCustomerID", ctx, customerID).Return(existingLink(), nil)
	mappings.On("UpdateStatus", ctx, customerID, model.LinkStatusPending).Return(nil)

	err := router.Route(ctx, &usecase.LinkageEvent{
		EventType:  usecase.EventDone,
		CustomerID: customerID,
		Payload:    map[string]interface{}{"accounts": []interface{}{}},
	})

	assert.NoError(t, err)
	mappings.AssertExpectations(t)
	reconciler.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestEventRouter_DoneWithAccountsLinks(t *testing.T) {
	ctx := context.Background()
	mappings := new(MockCustomerMappingRepository)
	reconciler := new(MockReconciler)
	router := usecase.NewEventRouter(mappings, reconciler, zap.NewNop())

	mappings.On("GetByAggregatorCustomerID", ctx, customerID).Return(existingLink(), nil)
	reconciler.On("Upsert", ctx, customerID, mock.Anything).Return(1, nil)
	mappings.On("UpdateStatus", ctx, customerID, model.LinkStatusLinked).Return(nil)

	err := router.Route(ctx, &usecase.LinkageEvent{
		EventType:  usecase.EventDone,
		CustomerID: customerID,
		Payload: map[string]interface{}{
			"accounts": []interface{}{
				map[string]interface{}{"id": "5011648377", "name": "Checking"},
			},
		},
	})

	assert.NoError(t, err)
	mappings.AssertExpectations(t)
	reconciler.AssertExpectations(t)
}

func TestEventRouter_FailureEventsMoveToError(t *testing.T) {
	for _, eventType := range []string{usecase.EventUnableToConnect, usecase.EventInvalidCredentials} {
		t.Run(eventType, func(t *testing.T) {
			ctx := context.Background()
			mappings := new(MockCustomerMappingRepository)
			reconciler := new(MockReconciler)
			router := usecase.NewEventRouter(mappings, reconciler, zap.NewNop())

			mappings.On("GetByAggregatorCustomerID", ctx, customerID).Return(existingLink(), nil)
			mappings.On("UpdateStatus", ctx, customerID, model.LinkStatusError).Return(nil)

			err := router.Route(ctx, &usecase.LinkageEvent{
				EventType:  eventType,
				CustomerID: customerID,
			})

			assert.NoError(t, err)
			mappings.AssertExpectations(t)
		})
	}
}

func TestEventRouter_AccountsDeletedRemovesAndReverts(t *testing.T) {
	ctx := context.Background()
	mappings := new(MockCustomerMappingRepository)
	reconciler := new(MockReconciler)
	router := usecase.NewEventRouter(mappings, reconciler, zap.NewNop())

	mappings.On("GetByAggregatorCustomerID", ctx, customerID).Return(existingLink(), nil)
	reconciler.On("Remove", ctx, customerID, []string{"5011648377", "5011648378"}).Return(int64(2), nil)
	mappings.On("UpdateStatus", ctx, customerID, model.LinkStatusPending).Return(nil)

	err := router.Route(ctx, &usecase.LinkageEvent{
		EventType:  usecase.EventAccountsDeleted,
		CustomerID: customerID,
		Payload: map[string]interface{}{
			// sandboxes deliver ids as both strings and numbers
			"accountIds": []interface{}{"5011648377", float64(5011648378)},
		},
	})

	assert.NoError(t, err)
	mappings.AssertExpectations(t)
	reconciler.AssertExpectations(t)
}

func TestEventRouter_OrphanEventDiscarded(t *testing.T) {
	ctx := context.Background()
	mappings := new(MockCustomerMappingRepository)
	reconciler := new(MockReconciler)
	router := usecase.NewEventRouter(mappings, reconciler, zap.NewNop())

	mappings.On("GetByAggregatorCustomerID", ctx, "unknown-customer").Return(nil, nil)

	err := router.Route(ctx, &usecase.LinkageEvent{
		EventType:  usecase.EventAdded,
		CustomerID: "unknown-customer",
		Payload: map[string]interface{}{
			"accounts": []interface{}{map[string]interface{}{"id": "1"}},
		},
	})

	assert.NoError(t, err)
	mappings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	reconciler.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestEventRouter_ProgressAndUnknownEventsAreNoOps(t *testing.T) {
	for _, eventType := range []string{
		usecase.EventStarted,
		usecase.EventInstitutionDiscovered,
		usecase.EventAdding,
		"someFutureEventType",
	} {
		t.Run(eventType, func(t *testing.T) {
			ctx := context.Background()
			mappings := new(MockCustomerMappingRepository)
			reconciler := new(MockReconciler)
			router := usecase.NewEventRouter(mappings, reconciler, zap.NewNop())

			mappings.On("GetByAggregatorCustomerID", ctx, customerID).Return(existingLink(), nil)

			err := router.Route(ctx, &usecase.LinkageEvent{
				EventType:  eventType,
				CustomerID: customerID,
			})

			assert.NoError(t, err)
			mappings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
