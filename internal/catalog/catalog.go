package catalog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matthieukhl/receipter/internal/database"
	"github.com/matthieukhl/receipter/internal/models"
)

var ErrMalformedLine = errors.New("malformed catalog line")

// Catalog maps product names to unit prices. It is read-only once loaded.
type Catalog struct {
	prices map[string]int64
	names  []string
}

// New builds a catalog from products, keeping their order for listing.
func New(products []models.Product) (*Catalog, error) {
	c := &Catalog{prices: make(map[string]int64, len(products))}
	for _, p := range products {
		if err := c.add(p.Name, p.Price); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(name string, price int64) error {
	if name == "" {
		return fmt.Errorf("%w: empty product name", ErrMalformedLine)
	}
	if price < 0 {
		return fmt.Errorf("%w: negative price for %q", ErrMalformedLine, name)
	}
	if _, dup := c.prices[name]; dup {
		return fmt.Errorf("%w: duplicate product %q", ErrMalformedLine, name)
	}
	c.prices[name] = price
	c.names = append(c.names, name)
	return nil
}

// Price returns the unit price of name.
func (c *Catalog) Price(name string) (int64, bool) {
	p, ok := c.prices[name]
	return p, ok
}

// Names lists the products in load order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Products lists name/price pairs in load order.
func (c *Catalog) Products() []models.Product {
	out := make([]models.Product, 0, len(c.names))
	for _, n := range c.names {
		out = append(out, models.Product{Name: n, Price: c.prices[n]})
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.names)
}

// LoadFile reads a name,price product list.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse reads one "name,price" product per line. Blank lines are skipped;
// anything else that does not parse fails the whole load.
func Parse(r io.Reader) (*Catalog, error) {
	c := &Catalog{prices: make(map[string]int64)}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line == "" {
			continue
		}

		name, priceText, ok := strings.Cut(line, ",")
		if !ok || strings.Contains(priceText, ",") {
			return nil, fmt.Errorf("%w: line %d: want name,price, got %q", ErrMalformedLine, lineNo, line)
		}

		price, err := strconv.ParseInt(strings.TrimSpace(priceText), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad price %q", ErrMalformedLine, lineNo, priceText)
		}

		if err := c.add(strings.TrimSpace(name), price); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	return c, nil
}

// LoadDB reads the catalog from the products table.
func LoadDB(ctx context.Context, db *database.DB) (*Catalog, error) {
	products, err := db.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return New(products)
}
