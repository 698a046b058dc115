// Package checkout runs the order → totals → receipt text → printer flow for
// one preview or print request.
package checkout

import (
	"fmt"
	"sync"
	"time"

	"github.com/matthieukhl/receipter/internal/catalog"
	"github.com/matthieukhl/receipter/internal/escpos"
	"github.com/matthieukhl/receipter/internal/models"
	"github.com/matthieukhl/receipter/internal/order"
	"github.com/matthieukhl/receipter/internal/pricing"
	"github.com/matthieukhl/receipter/internal/receipt"
	"go.uber.org/zap"
)

// ReceiptPrinter sends finished receipt text to paper.
type ReceiptPrinter interface {
	PrintReceipt(text string) error
	Ready() bool
	State() escpos.State
}

// Request is what the form collects for one receipt.
type Request struct {
	Customer  models.Customer
	Items     []string
	Discount  int
	OrderedAt time.Time
}

// Result is the rendered receipt and the data it was rendered from.
type Result struct {
	Data    models.ReceiptData
	Summary string
	Text    string
	Printed bool
}

type Service struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	printer ReceiptPrinter
	counter *order.Counter
	now     func() time.Time
	logger  *zap.Logger
}

type Option func(*Service)

// WithClock replaces time.Now for order and generated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(c *catalog.Catalog, p ReceiptPrinter, counter *order.Counter, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		catalog: c,
		printer: p,
		counter: counter,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog exposes the product list the service prices against.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// NextNumber is the sequence number the next receipt will carry.
func (s *Service) NextNumber() int {
	return s.counter.Current()
}

// PrinterReady reports whether the printer device is open.
func (s *Service) PrinterReady() bool {
	return s.printer != nil && s.printer.Ready()
}

// PrinterState is the outcome of the last print attempt.
func (s *Service) PrinterState() escpos.State {
	if s.printer == nil {
		return escpos.StateIdle
	}
	return s.printer.State()
}

// Preview renders the receipt without printing it.
func (s *Service) Preview(req Request) (*Result, error) {
	return s.render(req)
}

// Print renders and prints the receipt. The sequence number advances only
// when the printer accepted the whole receipt.
func (s *Service) Print(req Request) (*Result, error) {
	if s.printer == nil {
		return nil, fmt.Errorf("no printer configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.render(req)
	if err != nil {
		return nil, err
	}

	if err := s.printer.PrintReceipt(res.Text); err != nil {
		s.logger.Error("print failed",
			zap.Int("number", res.Data.Number),
			zap.Error(err))
		return res, err
	}

	res.Printed = true
	next := s.counter.Advance()
	s.logger.Info("receipt printed",
		zap.Int("number", res.Data.Number),
		zap.Int("next_number", next),
		zap.Int64("grand_total", res.Data.Totals.GrandTotal))

	return res, nil
}

func (s *Service) render(req Request) (*Result, error) {
	o := order.New(s.catalog)
	if err := o.AddAll(req.Items); err != nil {
		return nil, err
	}

	totals, err := pricing.ComputeTotals(o.Prices(), req.Discount)
	if err != nil {
		return nil, err
	}

	now := s.now()
	orderedAt := req.OrderedAt
	if orderedAt.IsZero() {
		orderedAt = now
	}

	data := models.ReceiptData{
		Number:        s.counter.Current(),
		OrderedAt:     orderedAt,
		Customer:      req.Customer,
		Lines:         o.Lines(),
		Totals:        totals,
		DiscountLabel: pricing.FormatDiscount(req.Discount),
		GeneratedAt:   now,
	}

	text, err := receipt.Render(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Data:    data,
		Summary: o.Summary(),
		Text:    text,
	}, nil
}
