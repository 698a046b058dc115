package models

import (
	"time"
)

// Product is one entry of the product catalog
type Product struct {
	Name  string `json:"name" db:"name"`
	Price int64  `json:"price" db:"price"`
}

// Customer holds the delivery details printed on the receipt
type Customer struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// OrderLine is one selected product occurrence. Repeated selections are
// repeated lines.
type OrderLine struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Totals are whole currency units.
type Totals struct {
	Subtotal       int64 `json:"subtotal"`
	DiscountAmount int64 `json:"discount_amount"`
	GrandTotal     int64 `json:"grand_total"`
}

// ReceiptData is everything the receipt layout needs. It is built fresh for
// each preview or print and never modified afterwards.
type ReceiptData struct {
	Number        int
	OrderedAt     time.Time
	Customer      Customer
	Lines         []OrderLine
	Totals        Totals
	DiscountLabel string
	GeneratedAt   time.Time
}
