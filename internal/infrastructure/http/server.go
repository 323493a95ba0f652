package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/harborcpa/practice-backend/internal/adapter/handler/http"
	"github.com/harborcpa/practice-backend/internal/config"
	"github.com/harborcpa/practice-backend/internal/infrastructure/crypto"
	"github.com/harborcpa/practice-backend/internal/infrastructure/database"
	"github.com/harborcpa/practice-backend/internal/infrastructure/provider/finicity"
	"github.com/harborcpa/practice-backend/internal/middleware/auth"
	"github.com/harborcpa/practice-backend/internal/usecase"
)

const webhookPath = "/webhooks/open-banking"

// requestValidator adapts go-playground/validator to echo's Validator interface
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	repos  *database.Repositories
}

func NewServer(cfg *config.Config, logger *zap.Logger, repos *database.Repositories) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{"*"},
	}))

	s := &Server{
		config: cfg,
		logger: logger,
		echo:   e,
		repos:  repos,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() error {
	agg := s.config.Service.Aggregator

	verifier, err := crypto.NewECDSAVerifier(agg.WebhookPublicKey)
	if err != nil {
		return fmt.Errorf("webhook public key: %w", err)
	}

	aggregator := finicity.NewClient(
		agg.BaseURL, agg.PartnerID, agg.PartnerSecret, agg.AppKey,
		s.config.Service.Environment, s.logger)

	reconciler := usecase.NewAccountReconciler(s.repos.BankAccount, s.logger)
	registry := usecase.NewLinkRegistry(s.repos.CustomerMapping, s.repos.BankAccount, aggregator, reconciler, s.logger)
	invites := usecase.NewInvitationSender(aggregator, agg.RedirectURI, agg.WebhookURL, s.logger)
	router := usecase.NewEventRouter(s.repos.CustomerMapping, reconciler, s.logger)

	webhookHandler := handlers.NewWebhookHandler(s.logger, verifier, s.repos.WebhookEvent, router)
	bankingHandler := handlers.NewBankingHandler(s.logger, registry, invites)

	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "openbanking",
		})
	})

	// JWT middleware configuration
	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
		SkipPaths: []string{
			"/health",
			webhookPath,
		},
	}

	// Firm-facing API (requires staff JWT)
	v1 := s.echo.Group("/api/v1", auth.JWTMiddleware(jwtConfig))

	banking := v1.Group("/clients/:clientId/banking")
	banking.POST("/link", bankingHandler.RequestLink)
	banking.GET("/status", bankingHandler.GetStatus)
	banking.POST("/refresh", bankingHandler.RefreshAccounts)

	// Internal/Debug routes
	if s.config.Service.Environment != "production" {
		v1.GET("/internal/webhook-events", webhookHandler.ListRecentEvents)
	}

	// Webhook route (outside API versioning and JWT auth)
	s.echo.POST(webhookPath, webhookHandler.HandleWebhook)

	return nil
}
