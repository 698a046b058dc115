// Package pricing turns selected line prices and a discount percentage into
// order totals.
//
// Amounts are whole currency units. The discount is computed exactly with
// decimal arithmetic and rounded half-up to a whole unit, so the grand total
// is always subtotal minus the rounded discount.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matthieukhl/receipter/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidDiscount = errors.New("discount must be between 0 and 100 percent")
	ErrInvalidPrice    = errors.New("invalid price")
)

var hundred = decimal.NewFromInt(100)

// ComputeTotals sums every price and applies discountPercent.
func ComputeTotals(prices []int64, discountPercent int) (models.Totals, error) {
	if discountPercent < 0 || discountPercent > 100 {
		return models.Totals{}, fmt.Errorf("%w: got %d", ErrInvalidDiscount, discountPercent)
	}

	var subtotal int64
	for i, p := range prices {
		if p < 0 {
			return models.Totals{}, fmt.Errorf("%w: line %d is negative (%d)", ErrInvalidPrice, i+1, p)
		}
		if p > math.MaxInt64-subtotal {
			return models.Totals{}, fmt.Errorf("%w: subtotal overflows at line %d", ErrInvalidPrice, i+1)
		}
		subtotal += p
	}

	discount := DiscountAmount(subtotal, discountPercent)

	return models.Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		GrandTotal:     subtotal - discount,
	}, nil
}

// DiscountAmount is subtotal * percent / 100 rounded half-up. Callers
// validate the inputs.
func DiscountAmount(subtotal int64, percent int) int64 {
	return decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(hundred).
		Round(0).
		IntPart()
}

// ParseDiscount accepts the form labels ("10%") as well as bare numbers.
func ParseDiscount(label string) (int, error) {
	s := strings.TrimSpace(label)
	s = strings.TrimSuffix(s, "%")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDiscount, label)
	}
	if n < 0 || n > 100 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidDiscount, n)
	}
	return n, nil
}

// FormatDiscount renders a percentage the way the discount selector shows it.
func FormatDiscount(percent int) string {
	return strconv.Itoa(percent) + "%"
}
