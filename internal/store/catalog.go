package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/habotlola-gif/poizon-bot/internal/models"
)

var (
	// ErrInvalidProduct is returned for candidates missing required fields.
	ErrInvalidProduct = errors.New("product is missing required fields")

	// ErrNotFound is returned by Find for an unknown product ID.
	ErrNotFound = errors.New("product not found")
)

type CatalogStore struct {
	db *sqlx.DB
}

// InsertIfNew inserts the candidate unless a product with the same source
// post ID already exists. The dedup check and the insert are a single
// statement, so concurrent ingestion of the same post inserts once.
func (c *CatalogStore) InsertIfNew(p models.Product) (bool, error) {
	if p.Name == "" || p.Price == "" || p.SourcePostID == 0 {
		return false, ErrInvalidProduct
	}
	if p.Category == "" {
		p.Category = models.CategoryOther
	}

	res, err := c.db.Exec(
		`INSERT INTO products (name, description, price, photo_id, category, source_post_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source_post_id) DO NOTHING`,
		p.Name, p.Description, p.Price, p.PhotoID, p.Category, p.SourcePostID, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert product: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Insert stores an admin-entered product, which carries no source post ID.
func (c *CatalogStore) Insert(p models.Product) (int64, error) {
	if p.Name == "" || p.Price == "" {
		return 0, ErrInvalidProduct
	}
	if p.Category == "" {
		p.Category = models.CategoryOther
	}

	res, err := c.db.Exec(
		`INSERT INTO products (name, description, price, photo_id, category, source_post_id, created_at)
		 VALUES (?, ?, ?, ?, ?, NULL, ?)`,
		p.Name, p.Description, p.Price, p.PhotoID, p.Category, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert product: %w", err)
	}
	return res.LastInsertId()
}

// List returns all products, newest first.
func (c *CatalogStore) List() ([]models.Product, error) {
	var out []models.Product
	err := c.db.Select(&out, `
		SELECT id, name, description, price, photo_id, category,
		       COALESCE(source_post_id, 0) AS source_post_id, created_at
		FROM products
		ORDER BY created_at DESC, id DESC`)
	return out, err
}

func (c *CatalogStore) Find(id int64) (*models.Product, error) {
	var p models.Product
	err := c.db.Get(&p, `
		SELECT id, name, description, price, photo_id, category,
		       COALESCE(source_post_id, 0) AS source_post_id, created_at
		FROM products
		WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a product by ID. Deleting an absent ID is a no-op.
func (c *CatalogStore) Delete(id int64) error {
	_, err := c.db.Exec(`DELETE FROM products WHERE id = ?`, id)
	return err
}

func (c *CatalogStore) Count() (int, error) {
	var n int
	err := c.db.Get(&n, `SELECT COUNT(*) FROM products`)
	return n, err
}
