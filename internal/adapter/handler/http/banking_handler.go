package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/harborcpa/practice-backend/internal/domain/errors"
	"github.com/harborcpa/practice-backend/internal/domain/provider"
	"github.com/harborcpa/practice-backend/internal/usecase"
)

// BankingHandler serves the firm-facing open-banking endpoints: request a
// linking invitation, poll linkage status, refresh the account inventory
type BankingHandler struct {
	logger   *zap.Logger
	registry *usecase.LinkRegistry
	invites  *usecase.InvitationSender
}

// NewBankingHandler creates a new banking handler
func NewBankingHandler(logger *zap.Logger, registry *usecase.LinkRegistry, invites *usecase.InvitationSender) *BankingHandler {
	return &BankingHandler{
		logger:   logger,
		registry: registry,
		invites:  invites,
	}
}

// LinkRequest is the body for POST /clients/:clientId/banking/link
type LinkRequest struct {
	Email       string `json:"email" validate:"required,email"`
	ClientName  string `json:"client_name" validate:"required"`
	RedirectURI string `json:"redirect_uri" validate:"omitempty,url"`
}

// RequestLink creates (or reuses) the aggregator customer for the client and
// asks the aggregator to email the linking invitation. Status stays wherever
// it is; only webhook events move it.
func (h *BankingHandler) RequestLink(c echo.Context) error {
	clientID, err := uuid.Parse(c.Param("clientId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "clientId must be a valid UUID",
			"code":  "INVALID_CLIENT_ID",
		})
	}

	var req LinkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
			"code":  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
			"code":  "VALIDATION_FAILED",
		})
	}

	ctx := c.Request().Context()

	customerID, err := h.registry.GetOrCreateCustomer(ctx, clientID, req.ClientName)
	if err != nil {
		return h.providerError(c, "Failed to prepare aggregator customer", err)
	}

	if err := h.invites.Send(ctx, customerID, req.Email, req.ClientName, req.RedirectURI); err != nil {
		return h.providerError(c, "Failed to send connect invitation", err)
	}

	return c.JSON(http.StatusAccepted, echo.Map{
		"status":                 "invitation_sent",
		"aggregator_customer_id": customerID,
	})
}

// GetStatus serves the poll-based linkage status projection
func (h *BankingHandler) GetStatus(c echo.Context) error {
	clientID, err := uuid.Parse(c.Param("clientId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "clientId must be a valid UUID",
			"code":  "INVALID_CLIENT_ID",
		})
	}

	status, err := h.registry.GetStatus(c.Request().Context(), clientID)
	if err != nil {
		h.logger.Error("Failed to read linkage status",
			zap.String("platform_client_id", clientID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to read linkage status",
			"code":  "INTERNAL_ERROR",
		})
	}

	return c.JSON(http.StatusOK, status)
}

// RefreshAccounts pulls the aggregator's account list and reconciles local rows
func (h *BankingHandler) RefreshAccounts(c echo.Context) error {
	clientID, err := uuid.Parse(c.Param("clientId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "clientId must be a valid UUID",
			"code":  "INVALID_CLIENT_ID",
		})
	}

	status, err := h.registry.RefreshAccounts(c.Request().Context(), clientID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNoCustomerLink) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Client has no bank linkage",
				"code":  "NO_CUSTOMER_LINK",
			})
		}
		return h.providerError(c, "Failed to refresh accounts", err)
	}

	return c.JSON(http.StatusOK, status)
}

// providerError maps aggregator failures to a response the firm UI can show
func (h *BankingHandler) providerError(c echo.Context, message string, err error) error {
	h.logger.Error(message, zap.Error(err))

	var provErr *provider.ProviderError
	if errors.As(err, &provErr) {
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": message,
			"code":  provErr.Code,
		})
	}

	return c.JSON(http.StatusInternalServerError, echo.Map{
		"error": message,
		"code":  "INTERNAL_ERROR",
	})
}
