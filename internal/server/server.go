package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matthieukhl/receipter/internal/checkout"
	"github.com/matthieukhl/receipter/internal/escpos"
	"github.com/matthieukhl/receipter/internal/models"
	"github.com/matthieukhl/receipter/internal/order"
	"github.com/matthieukhl/receipter/internal/pricing"
	"go.uber.org/zap"
)

const (
	healthTimeout   = 2 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Pinger is the database the catalog was loaded from.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

type Server struct {
	router    *gin.Engine
	service   *checkout.Service
	discounts []int
	db        Pinger
	logger    *zap.Logger
}

type Option func(*Server)

// WithDatabase adds the catalog database to the health check.
func WithDatabase(db Pinger) Option {
	return func(s *Server) { s.db = db }
}

// receiptRequest is the form a client posts for preview and print.
type receiptRequest struct {
	Customer  models.Customer `json:"customer"`
	Items     []string        `json:"items"`
	Discount  *int            `json:"discount" binding:"omitempty,min=0,max=100"`
	OrderedAt *time.Time      `json:"ordered_at"`
}

type receiptResponse struct {
	Number        int                `json:"number"`
	Lines         []models.OrderLine `json:"lines"`
	Summary       string             `json:"summary"`
	Totals        models.Totals      `json:"totals"`
	DiscountLabel string             `json:"discount_label"`
	Text          string             `json:"text"`
	Printed       bool               `json:"printed"`
}

// NewServer creates a new server instance
func NewServer(service *checkout.Service, discounts []int, logger *zap.Logger, opts ...Option) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	server := &Server{
		router:    router,
		service:   service,
		discounts: discounts,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(server)
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.healthCheck)
		api.GET("/products", s.listProducts)
		api.POST("/receipts/preview", s.previewReceipt)
		api.POST("/receipts/print", s.printReceipt)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// healthCheck endpoint for monitoring
func (s *Server) healthCheck(c *gin.Context) {
	status, code := "ok", http.StatusOK
	body := gin.H{
		"service":       "receipter",
		"version":       "0.1.0",
		"printer_open":  s.service.PrinterReady(),
		"printer_state": s.service.PrinterState().String(),
		"next_number":   s.service.NextNumber(),
		"product_count": s.service.Catalog().Len(),
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := s.db.HealthCheck(ctx); err != nil {
			s.logger.Warn("database health check failed", zap.Error(err))
			status, code = "degraded", http.StatusServiceUnavailable
			body["database"] = err.Error()
		} else {
			body["database"] = "ok"
		}
	}

	body["status"] = status
	c.JSON(code, body)
}

func (s *Server) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"products":  s.service.Catalog().Products(),
		"discounts": s.discounts,
	})
}

func (s *Server) previewReceipt(c *gin.Context) {
	req, ok := s.bind(c)
	if !ok {
		return
	}

	res, err := s.service.Preview(req)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(res))
}

func (s *Server) printReceipt(c *gin.Context) {
	req, ok := s.bind(c)
	if !ok {
		return
	}

	res, err := s.service.Print(req)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(res))
}

func (s *Server) bind(c *gin.Context) (checkout.Request, bool) {
	var body receiptRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return checkout.Request{}, false
	}

	req := checkout.Request{
		Customer: body.Customer,
		Items:    body.Items,
	}
	if body.Discount != nil {
		req.Discount = *body.Discount
	}
	if body.OrderedAt != nil {
		req.OrderedAt = *body.OrderedAt
	}
	return req, true
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, order.ErrUnknownProduct),
		errors.Is(err, pricing.ErrInvalidDiscount),
		errors.Is(err, pricing.ErrInvalidPrice):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, escpos.ErrPrintFailed):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("receipt request failed", zap.Int("status", status), zap.Error(err))
	}

	c.JSON(status, gin.H{
		"status": "error",
		"error":  err.Error(),
	})
}

func toResponse(res *checkout.Result) receiptResponse {
	return receiptResponse{
		Number:        res.Data.Number,
		Lines:         res.Data.Lines,
		Summary:       res.Summary,
		Totals:        res.Data.Totals,
		DiscountLabel: res.Data.DiscountLabel,
		Text:          res.Text,
		Printed:       res.Printed,
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
