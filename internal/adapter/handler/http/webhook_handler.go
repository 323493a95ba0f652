package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/harborcpa/practice-backend/internal/domain/model"
	"github.com/harborcpa/practice-backend/internal/domain/repository"
	"github.com/harborcpa/practice-backend/internal/infrastructure/crypto"
	"github.com/harborcpa/practice-backend/internal/usecase"
)

const (
	HeaderSignature          = "X-Webhook-Signature"
	HeaderSignatureTimestamp = "X-Webhook-Timestamp"
	HeaderMessageID          = "X-Message-Id"
)

// EventRouter routes verified, deduplicated events to the linkage state machine
type EventRouter interface {
	Route(ctx context.Context, event *usecase.LinkageEvent) error
}

// WebhookHandler ingests aggregator webhook callbacks: verify, deduplicate,
// persist, route, always 202. The aggregator delivers at least once and
// retries on non-2xx, so internal failures are logged instead of surfaced.
type WebhookHandler struct {
	logger   *zap.Logger
	verifier crypto.SignatureVerifier
	events   repository.WebhookEventRepository
	router   EventRouter
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(logger *zap.Logger, verifier crypto.SignatureVerifier, events repository.WebhookEventRepository, router EventRouter) *WebhookHandler {
	return &WebhookHandler{
		logger:   logger,
		verifier: verifier,
		events:   events,
		router:   router,
	}
}

type webhookPayload struct {
	CustomerID string                 `json:"customerId"`
	EventType  string                 `json:"eventType"`
	EventID    string                 `json:"eventId"`
	Payload    map[string]interface{} `json:"payload"`
}

// HandleWebhook processes POST /webhooks/open-banking
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading webhook body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Error reading request body",
			"code":  "INVALID_REQUEST",
		})
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.EventType == "" {
		h.logger.Warn("Malformed webhook payload",
			zap.Error(err),
			zap.Int("body_bytes", len(body)))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid JSON payload or missing eventType",
			"code":  "INVALID_PAYLOAD",
		})
	}

	if payload.EventType != usecase.EventPing && (payload.EventID == "" || payload.CustomerID == "") {
		h.logger.Warn("Webhook payload missing mandatory fields",
			zap.String("event_type", payload.EventType))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "eventId and customerId are required",
			"code":  "MISSING_FIELDS",
		})
	}

	// Verification failure is logged, not fatal: dropping deliveries during
	// a key rollover would lose legitimate linkage events, so unverifiable
	// events are accepted and recorded as unverified.
	verified := true
	signature := c.Request().Header.Get(HeaderSignature)
	timestamp := c.Request().Header.Get(HeaderSignatureTimestamp)
	if err := h.verifier.Verify(body, signature, timestamp); err != nil {
		verified = false
		h.logger.Warn("Webhook signature verification failed",
			zap.String("event_type", payload.EventType),
			zap.String("event_id", payload.EventID),
			zap.Error(err))
	}

	// ping traffic is acknowledged but never persisted or routed
	if payload.EventType == usecase.EventPing {
		return c.JSON(http.StatusAccepted, echo.Map{
			"received":  true,
			"processed": false,
			"eventId":   payload.EventID,
		})
	}

	messageID := h.idempotencyKey(c, &payload)

	record := &model.WebhookEventRecord{
		MessageID:            messageID,
		EventType:            payload.EventType,
		AggregatorCustomerID: payload.CustomerID,
		RawHeaders:           headersToJSONB(c.Request().Header),
		RawPayload:           rawPayloadToJSONB(body),
		Verified:             verified,
	}

	created, err := h.events.SaveEvent(c.Request().Context(), record)
	if err != nil {
		h.logger.Error("Failed to persist webhook event",
			zap.String("message_id", messageID),
			zap.Error(err))
		return c.JSON(http.StatusAccepted, echo.Map{
			"received":  true,
			"processed": false,
			"eventId":   messageID,
		})
	}
	if !created {
		h.logger.Info("Duplicate webhook delivery ignored",
			zap.String("message_id", messageID),
			zap.String("event_type", payload.EventType))
		return c.JSON(http.StatusAccepted, echo.Map{
			"received":  true,
			"processed": false,
			"eventId":   messageID,
		})
	}

	event := &usecase.LinkageEvent{
		MessageID:  messageID,
		EventID:    payload.EventID,
		EventType:  payload.EventType,
		CustomerID: payload.CustomerID,
		Payload:    payload.Payload,
		Verified:   verified,
	}

	if err := h.router.Route(c.Request().Context(), event); err != nil {
		// still 202: a retry storm from the aggregator would only amplify
		// the local failure
		h.logger.Error("Failed to route webhook event",
			zap.String("message_id", messageID),
			zap.String("event_type", payload.EventType),
			zap.Error(err))
		return c.JSON(http.StatusAccepted, echo.Map{
			"received":  true,
			"processed": false,
			"eventId":   messageID,
		})
	}

	if err := h.events.MarkProcessed(c.Request().Context(), messageID); err != nil {
		h.logger.Error("Failed to stamp webhook event processed",
			zap.String("message_id", messageID),
			zap.Error(err))
	}

	return c.JSON(http.StatusAccepted, echo.Map{
		"received":  true,
		"processed": true,
		"eventId":   messageID,
	})
}

// ListRecentEvents serves the non-production debug listing of stored events
func (h *WebhookHandler) ListRecentEvents(c echo.Context) error {
	events, err := h.events.ListRecent(c.Request().Context(), 50)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to list webhook events",
			"code":  "INTERNAL_ERROR",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"events": events,
		"count":  len(events),
	})
}

// idempotencyKey prefers the aggregator's message id header, then the event's
// own id, then a synthesized key so header-less test traffic never collides
func (h *WebhookHandler) idempotencyKey(c echo.Context, payload *webhookPayload) string {
	if id := c.Request().Header.Get(HeaderMessageID); id != "" {
		return id
	}
	if payload.EventID != "" {
		return payload.EventID
	}
	return "generated-" + uuid.NewString()
}

func headersToJSONB(headers http.Header) model.JSONB {
	out := make(model.JSONB, len(headers))
	for key, values := range headers {
		out[key] = strings.Join(values, ", ")
	}
	return out
}

func rawPayloadToJSONB(body []byte) model.JSONB {
	var out model.JSONB
	if err := json.Unmarshal(body, &out); err != nil {
		return model.JSONB{}
	}
	return out
}
