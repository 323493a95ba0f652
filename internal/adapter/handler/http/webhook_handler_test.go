package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/harborcpa/practice-backend/internal/domain/model"
	"github.com/harborcpa/practice-backend/internal/usecase"
)

type mockEventRepo struct {
	mock.Mock
}

func (m *mockEventRepo) SaveEvent(ctx context.Context, record *model.WebhookEventRecord) (bool, error) {
	args := m.Called(ctx, record)
	return args.Bool(0), args.Error(1)
}

func (m *mockEventRepo) GetByMessageID(ctx context.Context, messageID string) (*model.WebhookEventRecord, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WebhookEventRecord), args.Error(1)
}

func (m *mockEventRepo) MarkProcessed(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *mockEventRepo) ListRecent(ctx context.Context, limit int) ([]*model.WebhookEventRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.WebhookEventRecord), args.Error(1)
}

type mockRouter struct {
	mock.Mock
}

func (m *mockRouter) Route(ctx context.Context, event *usecase.LinkageEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// stubVerifier returns a fixed verification result
type stubVerifier struct {
	err error
}

func (v *stubVerifier) Verify(body []byte, signatureB64, timestamp string) error {
	return v.err
}

func postWebhook(handler *WebhookHandler, body string, headers map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/open-banking", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = handler.HandleWebhook(c)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestWebhookHandler_MalformedPayload(t *testing.T) {
	handler := NewWebhookHandler(zap.NewNop(), &stubVerifier{}, new(mockEventRepo), new(mockRouter))

	t.Run("invalid json", func(t *testing.T) {
		rec := postWebhook(handler, `{not json`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing eventType", func(t *testing.T) {
		rec := postWebhook(handler, `{"customerId":"7029456","eventId":"evt-1"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_PAYLOAD", decodeResponse(t, rec)["code"])
	})

	t.Run("non-ping without eventId", func(t *testing.T) {
		rec := postWebhook(handler, `{"customerId":"7029456","eventType":"added"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "MISSING_FIELDS", decodeResponse(t, rec)["code"])
	})

	t.Run("non-ping without customerId", func(t *testing.T) {
		rec := postWebhook(handler, `{"eventId":"evt-1","eventType":"added"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWebhookHandler_PingNeverPersisted(t *testing.T) {
	events := new(mockEventRepo)
	router := new(mockRouter)
	handler := NewWebhookHandler(zap.NewNop(), &stubVerifier{}, events, router)

	rec := postWebhook(handler, `{"eventType":"ping"}`, nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, true, resp["received"])
	assert.Equal(t, false, resp["processed"])
	events.AssertNotCalled(t, "SaveEvent", mock.Anything, mock.Anything)
	router.AssertNotCalled(t, "Route", mock.Anything, mock.Anything)
}

func TestWebhookHandler_HappyPath(t *testing.T) {
	events := new(mockEventRepo)
	router := new(mockRouter)
	handler := NewWebhookHandler(zap.NewNop(), &stubVerifier{}, events, router)

	var saved *model.WebhookEventRecord
	events.On("SaveEvent", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*model.WebhookEventRecord)
	}).Return(true, nil)
	router.On("Route", mock.Anything, mock.MatchedBy(func(event *usecase.LinkageEvent) bool {
		return event.EventType == "added" && event.CustomerID == "7029456" && event.Verified
	})).Return(nil)
	events.On("MarkProcessed", mock.Anything, "msg-42").Return(nil)

	rec := postWebhook(handler,
		`{"customerId":"7029456","eventType":"added","eventId":"evt-1","payload":{"accounts":[{"id":"5011648377"}]}}`,
		map[string]string{HeaderMessageID: "msg-42"})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, true, resp["received"])
	assert.Equal(t, true, resp["processed"])
	assert.Equal(t, "msg-42", resp["eventId"])

	// header message id beats the event's own id
	assert.Equal(t, "msg-42", saved.MessageID)
	assert.True(t, saved.Verified)
	assert.Equal(t, "added", saved.EventType)
	assert.NotEmpty(t, saved.RawPayload)
	events.AssertExpectations(t)
	router.AssertExpectations(t)
}

func TestWebhookHandler_DuplicateDelivery(t *testing.T) {
	events := new(mockEventRepo)
	router := new(mockRouter)
	handler := NewWebhookHandler(zap.NewNop(), &stubVerifier{}, events, router)

	events.On("SaveEvent", mock.Anything, mock.Anything).Return(false, nil)

	rec := postWebhook(handler,
		`{"customerId":"7029456","eventType":"added","eventId":"evt-1"}`, nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, false, resp["processed"])
	assert.Equal(t, "evt-1", resp["eventId"])
	router.AssertNotCalled(t, "Route", mock.Anything, mock.Anything)
}

func TestWebhookHandler_InvalidSignatureStillProcessed(t *testing.T) {
	events := new(mockEventRepo)
	router := new(mockRouter)
	handler := NewWebhookHandler(zap.NewNop(), &stubVerifier{err: errors.New("signature does not match payload")}, events, router)

	var saved *model.WebhookEventRecord
	events.On("SaveEvent", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*model.WebhookEventRecord)
	}).Return(true, nil)
	router.On("Route", mock.Anything, mock.Anything).Return(nil)
	events.On("MarkProcessed", mock.Anything, "evt-1").Return(nil)

	rec := postWebhook(handler,
		`{"customerId":"7029456","eventType":"added","eventId":"evt-1"}`, nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, true, decodeResponse(t, rec)["processed"])
	assert.False(t, saved.Verified)
	router.AssertExpectations(t)
}

func TestWebhookHandler_RouterFailureStillAccepted(t *testing.T) {
	events := new(mockEventRepo)
	router := new(mockRouter)
	handler := NewWebhookHandler(zap.NewNop(), &stubVerifier{}, events, router)

	events.On("SaveEvent", mock.Anything, mock.Anything).Return(true, nil)
	router.On("Route", mock.Anything, mock.Anything).Return(errors.New("db write failed"))

	rec := postWebhook(handler,
		`{"customerId":"7029456","eventType":"added","eventId":"evt-1"}`, nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, true, resp["received"])
	assert.Equal(t, false, resp["processed"])
	events.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
}

func TestWebhookHandler_EventIDFallbackKey(t *testing.T) {
	events := new(mockEventRepo)
	router := new(mockRouter)
	handler := NewWebhookHandler(zap.NewNop(), &stubVerifier{}, events, router)

	// no X-Message-Id header, so the event's own id keys the record
	var saved *model.WebhookEventRecord
	events.On("SaveEvent", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*model.WebhookEventRecord)
	}).Return(true, nil)
	router.On("Route", mock.Anything, mock.Anything).Return(nil)
	events.On("MarkProcessed", mock.Anything, mock.Anything).Return(nil)

	rec := postWebhook(handler,
		`{"customerId":"7029456","eventType":"added","eventId":"evt-9"}`, nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "evt-9", saved.MessageID)
}
