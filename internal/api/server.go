package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vigil-go/internal/config"
)

// Server represents the HTTP server with all configured routes and middleware.
type Server struct {
	app    *fiber.App
	config *config.ServerConfig
	logger *slog.Logger

	// Handlers
	ruleHandler        *RuleHandler
	maintenanceHandler *MaintenanceWindowHandler
	serverHandler      *ServerHandler
	alertHandler       *AlertHandler
	ingestHandler      *IngestHandler
}

// ServerDeps contains all dependencies required to create a new Server.
type ServerDeps struct {
	Config             *config.ServerConfig
	Logger             *slog.Logger
	RuleHandler        *RuleHandler
	MaintenanceHandler *MaintenanceWindowHandler
	ServerHandler      *ServerHandler
	AlertHandler       *AlertHandler
	IngestHandler      *IngestHandler
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(deps ServerDeps) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		CaseSensitive:         true,
		ReadTimeout:           deps.Config.ReadTimeout,
		WriteTimeout:          deps.Config.WriteTimeout,
		IdleTimeout:           deps.Config.IdleTimeout,
		ErrorHandler:          customErrorHandler,
	})

	s := &Server{
		app:                app,
		config:             deps.Config,
		logger:             deps.Logger,
		ruleHandler:        deps.RuleHandler,
		maintenanceHandler: deps.MaintenanceHandler,
		serverHandler:      deps.ServerHandler,
		alertHandler:       deps.AlertHandler,
		ingestHandler:      deps.IngestHandler,
	}

	s.registerMiddleware()
	s.registerRoutes()

	return s
}

// registerMiddleware sets up all middleware for the server.
func (s *Server) registerMiddleware() {
	// Recovery middleware to handle panics
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID middleware for tracing
	s.app.Use(requestid.New())

	// Logger middleware for request logging
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} | ${path} | ${error}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
}

// registerRoutes sets up all API routes.
func (s *Server) registerRoutes() {
	// Health check endpoint (outside versioned API)
	s.app.Get("/healthz", s.healthCheck)

	// Prometheus metrics endpoint
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes
	v1 := s.app.Group("/v1")

	// Sample ingestion
	v1.Post("/samples", s.ingestHandler.IngestSamples)

	// Alert rule CRUD
	v1.Post("/rules", s.ruleHandler.Create)
	v1.Get("/rules", s.ruleHandler.List)
	v1.Get("/rules/:id", s.ruleHandler.GetByID)
	v1.Put("/rules/:id", s.ruleHandler.Update)
	v1.Delete("/rules/:id", s.ruleHandler.Delete)

	// Maintenance window CRUD
	v1.Post("/maintenance-windows", s.maintenanceHandler.Create)
	v1.Get("/maintenance-windows", s.maintenanceHandler.List)
	v1.Get("/maintenance-windows/:id", s.maintenanceHandler.GetByID)
	v1.Put("/maintenance-windows/:id", s.maintenanceHandler.Update)
	v1.Delete("/maintenance-windows/:id", s.maintenanceHandler.Delete)

	// Server registry CRUD
	v1.Post("/servers", s.serverHandler.Create)
	v1.Get("/servers", s.serverHandler.List)
	v1.Get("/servers/:id", s.serverHandler.GetByID)
	v1.Put("/servers/:id", s.serverHandler.Update)
	v1.Delete("/servers/:id", s.serverHandler.Delete)

	// Alerts (read-only; alerts are created by the engine)
	v1.Get("/alerts", s.alertHandler.List)
	v1.Get("/alerts/:id", s.alertHandler.GetByID)
}

// healthCheck returns the health status of the service.
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return Success(c, map[string]string{
		"status": "healthy",
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	addr := s.config.Address()
	s.logger.Info("starting HTTP server", "address", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler handles errors returned from handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return Error(c, e.Code, ErrCodeInternalError, e.Message)
	}

	return InternalError(c, fmt.Sprintf("unexpected error: %v", err))
}
