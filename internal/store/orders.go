package store

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/habotlola-gif/poizon-bot/internal/models"
)

type OrderStore struct {
	db *sqlx.DB
}

// Append stores a completed order and returns its assigned ID.
// Orders are immutable once written; there is no update or delete.
func (o *OrderStore) Append(ord models.Order) (int64, error) {
	if ord.Status == "" {
		ord.Status = models.StatusNew
	}

	res, err := o.db.Exec(
		`INSERT INTO orders (user_id, username, kind, product_id, product, price, link, size, comment, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ord.UserID, ord.Username, ord.Kind, ord.ProductID, ord.Product,
		ord.Price, ord.Link, ord.Size, ord.Comment, ord.Status, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to append order: %w", err)
	}
	return res.LastInsertId()
}

// ListRecent returns the n most recent orders, newest first.
func (o *OrderStore) ListRecent(n int) ([]models.Order, error) {
	var out []models.Order
	err := o.db.Select(&out, `
		SELECT id, user_id, username, kind, product_id, product, price,
		       link, size, comment, status, created_at
		FROM orders
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, n)
	return out, err
}

// Count returns the number of orders, optionally filtered by status.
func (o *OrderStore) Count(status models.OrderStatus) (int, error) {
	var n int
	if status == "" {
		err := o.db.Get(&n, `SELECT COUNT(*) FROM orders`)
		return n, err
	}
	err := o.db.Get(&n, `SELECT COUNT(*) FROM orders WHERE status = ?`, status)
	return n, err
}
