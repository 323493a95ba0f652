package finicity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/harborcpa/practice-backend/internal/domain/provider"
)

const (
	authPath         = "/aggregation/v2/partners/authentication"
	testCustomerPath = "/aggregation/v2/customers/testing"
	liveCustomerPath = "/aggregation/v2/customers/active"
	connectEmailPath = "/connect/v2/send/email"

	appKeyHeader = "Finicity-App-Key"
	tokenHeader  = "Finicity-App-Token"
)

// Client calls the Finicity aggregation API. Every authenticated operation
// exchanges partner credentials for a fresh token first; tokens are short
// lived and deliberately never cached here.
type Client struct {
	baseURL       string
	partnerID     string
	partnerSecret string
	appKey        string
	environment   string
	client        *http.Client
	logger        *zap.Logger
}

// NewClient creates a new Finicity client
func NewClient(baseURL, partnerID, partnerSecret, appKey, environment string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:       baseURL,
		partnerID:     partnerID,
		partnerSecret: partnerSecret,
		appKey:        appKey,
		environment:   environment,
		client:        &http.Client{Timeout: 30 * time.Second},
		logger:        logger,
	}
}

// ProviderName returns the provider name
func (c *Client) ProviderName() string {
	return "finicity"
}

// FetchToken exchanges partner credentials for a short-lived access token.
// POST /aggregation/v2/partners/authentication
func (c *Client) FetchToken(ctx context.Context) (string, error) {
	body := map[string]string{
		"partnerId":     c.partnerID,
		"partnerSecret": c.partnerSecret,
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, authPath, "", body, &result); err != nil {
		return "", err
	}

	if result.Token == "" {
		return "", &provider.ProviderError{
			Code:    "AUTH_FAILED",
			Message: "Aggregator returned an empty partner token",
		}
	}

	return result.Token, nil
}

// CreateCustomer registers a customer and returns the aggregator-assigned id.
// Test customers are used outside production so sandbox linking never touches
// real institutions.
func (c *Client) CreateCustomer(ctx context.Context, username string) (string, error) {
	token, err := c.FetchToken(ctx)
	if err != nil {
		return "", err
	}

	path := testCustomerPath
	if c.environment == "production" {
		path = liveCustomerPath
	}

	body := map[string]string{
		"username": username,
	}

	var result struct {
		ID          string `json:"id"`
		Username    string `json:"username"`
		CreatedDate string `json:"createdDate"`
	}
	if err := c.post(ctx, path, token, body, &result); err != nil {
		return "", err
	}

	c.logger.Info("Aggregator customer created",
		zap.String("customer_id", result.ID),
		zap.String("username", result.Username))

	return result.ID, nil
}

// SendConnectEmail asks the aggregator to email a single-use bank-linking
// link. Success only means the email job was accepted.
func (c *Client) SendConnectEmail(ctx context.Context, req *provider.ConnectEmailRequest) error {
	token, err := c.FetchToken(ctx)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"partnerId":          c.partnerID,
		"customerId":         req.CustomerID,
		"redirectUri":        req.RedirectURI,
		"webhook":            req.WebhookURL,
		"webhookContentType": "application/json",
		"singleUseUrl":       req.SingleUse,
		"email": map[string]string{
			"to":        req.Email,
			"firstName": req.FirstName,
		},
	}

	if err := c.post(ctx, connectEmailPath, token, body, nil); err != nil {
		return err
	}

	c.logger.Info("Connect invitation accepted by aggregator",
		zap.String("customer_id", req.CustomerID),
		zap.String("email", req.Email))

	return nil
}

// GetCustomerAccounts reads the aggregator's current account list.
// GET /aggregation/v1/customers/{id}/accounts
func (c *Client) GetCustomerAccounts(ctx context.Context, customerID string) ([]provider.Account, error) {
	token, err := c.FetchToken(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/aggregation/v1/customers/%s/accounts", c.baseURL, customerID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "REQUEST_ERROR",
			Message: "Failed to create request",
			Details: err.Error(),
		}
	}
	c.setHeaders(httpReq, token)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("Finicity accounts request failed", zap.Error(err))
		return nil, &provider.ProviderError{
			Code:    "API_ERROR",
			Message: "Aggregator API request failed",
			Details: err.Error(),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "RESPONSE_ERROR",
			Message: "Failed to read response",
			Details: err.Error(),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp.StatusCode, respBody)
	}

	var result struct {
		Accounts []provider.Account `json:"accounts"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &provider.ProviderError{
			Code:    "PARSE_ERROR",
			Message: "Failed to parse response",
			Details: err.Error(),
		}
	}

	return result.Accounts, nil
}

// post sends a JSON body and decodes the JSON response into out (out may be nil)
func (c *Client) post(ctx context.Context, path, token string, body interface{}, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return &provider.ProviderError{
			Code:    "MARSHAL_ERROR",
			Message: "Failed to prepare request",
			Details: err.Error(),
		}
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return &provider.ProviderError{
			Code:    "REQUEST_ERROR",
			Message: "Failed to create request",
			Details: err.Error(),
		}
	}
	c.setHeaders(httpReq, token)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("Finicity API request failed",
			zap.String("path", path),
			zap.Error(err))
		return &provider.ProviderError{
			Code:    "API_ERROR",
			Message: "Aggregator API request failed",
			Details: err.Error(),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &provider.ProviderError{
			Code:    "RESPONSE_ERROR",
			Message: "Failed to read response",
			Details: err.Error(),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Finicity API returned error status",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(respBody)))
		if path == authPath {
			return &provider.ProviderError{
				Code:    "AUTH_FAILED",
				Message: "Aggregator rejected partner credentials",
				Details: fmt.Sprintf("status %d: %s", resp.StatusCode, respBody),
			}
		}
		return c.apiError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &provider.ProviderError{
			Code:    "PARSE_ERROR",
			Message: "Failed to parse response",
			Details: err.Error(),
		}
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(appKeyHeader, c.appKey)
	if token != "" {
		req.Header.Set(tokenHeader, token)
	}
}

func (c *Client) apiError(status int, body []byte) error {
	var errResp struct {
		Code    interface{} `json:"code"`
		Message string      `json:"message"`
	}
	_ = json.Unmarshal(body, &errResp)

	code := "API_ERROR"
	if errResp.Code != nil {
		code = fmt.Sprintf("%v", errResp.Code)
	}

	message := errResp.Message
	if message == "" {
		message = "Aggregator API request failed"
	}

	return &provider.ProviderError{
		Code:    code,
		Message: message,
		Details: fmt.Sprintf("status %d: %s", status, body),
	}
}
