// Package order accumulates the products selected for one receipt.
package order

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/matthieukhl/receipter/internal/catalog"
	"github.com/matthieukhl/receipter/internal/models"
)

var ErrUnknownProduct = errors.New("unknown product")

// Order is the running list of selected products. Selecting a product twice
// adds two lines. Nothing clears it implicitly.
type Order struct {
	catalog *catalog.Catalog
	names   []string
}

func New(c *catalog.Catalog) *Order {
	return &Order{catalog: c}
}

// Add appends one occurrence of name.
func (o *Order) Add(name string) error {
	if _, ok := o.catalog.Price(name); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProduct, name)
	}
	o.names = append(o.names, name)
	return nil
}

// AddAll adds every name, stopping at the first unknown one.
func (o *Order) AddAll(names []string) error {
	for _, n := range names {
		if err := o.Add(n); err != nil {
			return err
		}
	}
	return nil
}

func (o *Order) Len() int {
	return len(o.names)
}

// Lines returns one priced line per selection, in selection order.
func (o *Order) Lines() []models.OrderLine {
	lines := make([]models.OrderLine, 0, len(o.names))
	for _, n := range o.names {
		price, _ := o.catalog.Price(n)
		lines = append(lines, models.OrderLine{Name: n, Price: price})
	}
	return lines
}

// Prices returns the price of every line.
func (o *Order) Prices() []int64 {
	prices := make([]int64, 0, len(o.names))
	for _, l := range o.Lines() {
		prices = append(prices, l.Price)
	}
	return prices
}

// Summary groups the selection for display: "Pizza (x2), Cola (x1)", in
// order of first selection.
func (o *Order) Summary() string {
	return Summarize(o.Lines())
}

// Summarize groups lines by name, keeping first-seen order.
func Summarize(lines []models.OrderLine) string {
	counts := make(map[string]int, len(lines))
	var order []string
	for _, l := range lines {
		if counts[l.Name] == 0 {
			order = append(order, l.Name)
		}
		counts[l.Name]++
	}

	parts := make([]string, 0, len(order))
	for _, n := range order {
		parts = append(parts, fmt.Sprintf("%s (x%d)", n, counts[n]))
	}
	return strings.Join(parts, ", ")
}

// Counter hands out receipt sequence numbers, starting at 1. The number only
// moves on when a receipt was actually printed.
type Counter struct {
	mu   sync.Mutex
	next int
}

func NewCounter(start int) *Counter {
	if start < 1 {
		start = 1
	}
	return &Counter{next: start}
}

// Current is the number the next receipt will carry.
func (c *Counter) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Advance moves to the next number and returns it.
func (c *Counter) Advance() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	return c.next
}
