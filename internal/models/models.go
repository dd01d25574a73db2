package models

import "time"

// PriceOnRequest is stored when no price could be extracted from a post.
// The bot renders it as "DM for price" instead of a number.
const PriceOnRequest = "ask"

type Category string

const (
	CategoryOuterwear   Category = "outerwear"
	CategoryShoes       Category = "shoes"
	CategoryTShirts     Category = "tshirts"
	CategoryPants       Category = "pants"
	CategoryAccessories Category = "accessories"
	CategoryOther       Category = "other"
)

type OrderKind string

const (
	OrderFromCatalog OrderKind = "catalog"
	OrderFromLink    OrderKind = "link"
)

type OrderStatus string

const (
	StatusNew OrderStatus = "new"
)

// Product is a catalog entry, either mirrored from the source channel
// or entered by the admin. Fields are immutable after insert.
type Product struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	Price        string    `db:"price"` // numeric string, or PriceOnRequest
	PhotoID      string    `db:"photo_id"`
	Category     Category  `db:"category"`
	SourcePostID int64     `db:"source_post_id"` // channel message ID, 0 for admin-entered
	CreatedAt    time.Time `db:"created_at"`
}

// Order is created at the terminal step of a wizard and never mutated.
type Order struct {
	ID        int64       `db:"id"`
	UserID    int64       `db:"user_id"`
	Username  string      `db:"username"`
	Kind      OrderKind   `db:"kind"`
	ProductID int64       `db:"product_id"` // catalog orders only
	Product   string      `db:"product"`    // product name snapshot
	Price     string      `db:"price"`      // snapshot at order time
	Link      string      `db:"link"`       // link orders only
	Size      string      `db:"size"`
	Comment   string      `db:"comment"`
	Status    OrderStatus `db:"status"`
	CreatedAt time.Time   `db:"created_at"`
}
