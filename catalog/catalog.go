// Package catalog defines the storefront catalog contract served by both
// backing stores. The selector hands out the implementation bound to the
// active backend, so callers never branch on the mode themselves.
//
// Backends: memory, bunstore (relational, via bun) and mongostore
// (document, via the MongoDB driver).
package catalog

import (
	"context"
	"time"

	"github.com/xraph/duostore/id"
)

// Entity carries the timestamps shared by all catalog records.
type Entity struct {
	CreatedAt time.Time `json:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time `json:"updated_at" msgpack:"updated_at"`
}

// Touch sets UpdatedAt, and CreatedAt when unset, to now.
func (e *Entity) Touch(now time.Time) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
}

// Product is a sellable item.
type Product struct {
	Entity

	ID          id.ProductID  `json:"id" msgpack:"id"`
	Slug        string        `json:"slug" msgpack:"slug"`
	Name        string        `json:"name" msgpack:"name"`
	Description string        `json:"description,omitempty" msgpack:"description,omitempty"`
	PriceCents  int64         `json:"price_cents" msgpack:"price_cents"`
	Currency    string        `json:"currency" msgpack:"currency"`
	CategoryID  id.CategoryID `json:"category_id" msgpack:"category_id"`
	Stock       int           `json:"stock" msgpack:"stock"`
	Active      bool          `json:"active" msgpack:"active"`
}

// Category groups products. ParentID is Nil for a top-level category.
type Category struct {
	Entity

	ID       id.CategoryID `json:"id" msgpack:"id"`
	Slug     string        `json:"slug" msgpack:"slug"`
	Name     string        `json:"name" msgpack:"name"`
	ParentID id.CategoryID `json:"parent_id" msgpack:"parent_id"`
}

// ListOpts filters and pages ListProducts. Zero values mean no filter.
type ListOpts struct {
	CategoryID id.CategoryID
	ActiveOnly bool
	Limit      int
	Offset     int
}

// ProductStore persists products.
type ProductStore interface {
	// CreateProduct inserts p. A slug already in use yields ErrDuplicateSlug.
	CreateProduct(ctx context.Context, p *Product) error

	GetProduct(ctx context.Context, productID id.ProductID) (*Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*Product, error)

	// ListProducts returns products in creation order.
	ListProducts(ctx context.Context, opts ListOpts) ([]*Product, error)

	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, productID id.ProductID) error
}

// CategoryStore persists categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, categoryID id.CategoryID) (*Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)

	// ListCategories returns all categories ordered by name.
	ListCategories(ctx context.Context) ([]*Category, error)

	DeleteCategory(ctx context.Context, categoryID id.CategoryID) error
}

// Store is the aggregate catalog interface implemented by every backend.
type Store interface {
	ProductStore
	CategoryStore

	// Migrate creates tables, collections or indexes as needed.
	Migrate(ctx context.Context) error

	// Ping checks connectivity of the underlying store.
	Ping(ctx context.Context) error
}
