// Package http exposes the order services over a gin router. Handlers only
// translate requests and map service errors to status codes.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/port"
	"github.com/hyeunung/hanslwebapp-sub000/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Location is where board dates like 2025-03-03 are interpreted
	Location *time.Location
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Location:     time.UTC,
	}
}

// Services are the application services the router calls into
type Services struct {
	Approvals     service.ApprovalService
	Orders        service.OrderService
	Board         service.BoardService
	Exports       service.ExportService
	Vendors       service.VendorService
	Notifications service.NotificationService
	Employees     port.EmployeeRepository
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	if config.Location == nil {
		config.Location = time.UTC
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		config:   config,
		router:   router,
		services: services,
		logger:   logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(corsMiddleware())
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+EmployeeHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		kv := []interface{}{
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if a, ok := actorFrom(c); ok {
			kv = append(kv, "actor", a.Email)
		}
		s.logger.Info("HTTP request", kv...)
	}
}

func (s *Server) setupRoutes() {
	h := NewHandlers(s.services, s.config.Location, s.logger)

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api", h.Identify)
	{
		api.GET("/me", h.Me)
		api.GET("/employees", h.ListEmployees)

		api.GET("/board", h.GetBoard)
		api.GET("/board/export", h.ExportBoard)

		api.POST("/orders", h.CreateOrder)
		api.GET("/orders/:orderNumber", h.GetOrder)
		api.PUT("/orders/:orderNumber", h.EditOrder)
		api.DELETE("/orders/:orderNumber", h.DeleteOrder)
		api.DELETE("/orders/:orderNumber/lines/:lineNumber", h.DeleteLine)
		api.GET("/orders/:orderNumber/notifications", h.ListNotifications)
		api.GET("/orders/:orderNumber/spreadsheet", h.ExportOrder)

		api.POST("/orders/:orderNumber/verify", h.Verify)
		api.POST("/orders/:orderNumber/approve", h.Approve)
		api.POST("/orders/:orderNumber/reject", h.Reject)
		api.POST("/orders/:orderNumber/reset", h.Reset)

		api.POST("/orders/:orderNumber/receipt", h.MarkReceived)
		api.DELETE("/orders/:orderNumber/receipt", h.ClearReceived)
		api.POST("/orders/:orderNumber/payment", h.MarkPaymentCompleted)
		api.DELETE("/orders/:orderNumber/payment", h.ClearPayment)

		api.GET("/vendors", h.ListVendors)
		api.POST("/vendors", h.CreateVendor)
		api.GET("/vendors/:id", h.GetVendor)
		api.PUT("/vendors/:id", h.UpdateVendor)
		api.DELETE("/vendors/:id", h.DeleteVendor)
		api.POST("/vendors/:id/contacts", h.AddContact)
		api.PUT("/contacts/:id", h.UpdateContact)
		api.DELETE("/contacts/:id", h.DeleteContact)
	}
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
