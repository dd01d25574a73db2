package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Store owns the sqlite connection shared by the catalog and order stores.
type Store struct {
	db      *sqlx.DB
	Catalog *CatalogStore
	Orders  *OrderStore
}

func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s.Catalog = &CatalogStore{db: db}
	s.Orders = &OrderStore{db: db}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price TEXT NOT NULL,
		photo_id TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT 'other',
		source_post_id INTEGER UNIQUE,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		username TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		product_id INTEGER NOT NULL DEFAULT 0,
		product TEXT NOT NULL DEFAULT '',
		price TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT '',
		size TEXT NOT NULL DEFAULT '',
		comment TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'new',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);
	CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
