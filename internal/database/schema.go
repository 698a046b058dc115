package database

import (
	"context"
	"fmt"

	"github.com/matthieukhl/receipter/internal/models"
)

// ProductsSQL is the catalog table read by the mysql catalog source.
const ProductsSQL = `CREATE TABLE IF NOT EXISTS products (
    id BIGINT PRIMARY KEY AUTO_INCREMENT,
    name VARCHAR(255) NOT NULL,
    price BIGINT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY uk_name (name)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// SetupSchema creates the catalog table
func (db *DB) SetupSchema(ctx context.Context) error {
	_, err := db.ExecContext(ctx, ProductsSQL)
	return err
}

// DropSchema removes the catalog table
func (db *DB) DropSchema(ctx context.Context) error {
	_, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS products")
	return err
}

// ListProducts returns the catalog in insertion order.
func (db *DB) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := db.QueryContext(ctx, "SELECT name, price FROM products ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.Name, &p.Price); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// UpsertProducts writes products in one transaction, updating the price of
// names already present.
func (db *DB) UpsertProducts(ctx context.Context, products []models.Product) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (name, price) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE price = VALUES(price)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.ExecContext(ctx, p.Name, p.Price); err != nil {
			return fmt.Errorf("failed to upsert %q: %w", p.Name, err)
		}
	}

	return tx.Commit()
}
