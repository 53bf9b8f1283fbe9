// Package memory is an in-memory catalog.Store for tests and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/catalog"
	"github.com/xraph/duostore/id"
)

var _ catalog.Store = (*Store)(nil)

// Store is a fully in-memory catalog. Safe for concurrent access.
type Store struct {
	mu sync.RWMutex

	products   map[string]*catalog.Product
	categories map[string]*catalog.Category
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		products:   make(map[string]*catalog.Product),
		categories: make(map[string]*catalog.Category),
	}
}

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// ──────────────────────────────────────────────────
// Products
// ──────────────────────────────────────────────────

// CreateProduct stores a copy of p.
func (m *Store) CreateProduct(_ context.Context, p *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.products {
		if existing.Slug == p.Slug {
			return duostore.ErrDuplicateSlug
		}
	}
	p.Touch(now())
	cp := *p
	m.products[p.ID.String()] = &cp
	return nil
}

// GetProduct returns a copy of the product.
func (m *Store) GetProduct(_ context.Context, productID id.ProductID) (*catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[productID.String()]
	if !ok {
		return nil, duostore.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

// GetProductBySlug returns a copy of the product with the given slug.
func (m *Store) GetProductBySlug(_ context.Context, slug string) (*catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, duostore.ErrProductNotFound
}

// ListProducts returns matching products in creation order.
func (m *Store) ListProducts(_ context.Context, opts catalog.ListOpts) ([]*catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*catalog.Product, 0, len(m.products))
	for _, p := range m.products {
		if !opts.CategoryID.IsNil() && p.CategoryID.String() != opts.CategoryID.String() {
			continue
		}
		if opts.ActiveOnly && !p.Active {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	// IDs are K-sortable, so they break creation-time ties.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return page(out, opts.Offset, opts.Limit), nil
}

// UpdateProduct replaces the stored product.
func (m *Store) UpdateProduct(_ context.Context, p *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.products[p.ID.String()]
	if !ok {
		return duostore.ErrProductNotFound
	}
	for key, other := range m.products {
		if key != p.ID.String() && other.Slug == p.Slug {
			return duostore.ErrDuplicateSlug
		}
	}
	p.CreatedAt = existing.CreatedAt
	p.Touch(now())
	cp := *p
	m.products[p.ID.String()] = &cp
	return nil
}

// DeleteProduct removes a product.
func (m *Store) DeleteProduct(_ context.Context, productID id.ProductID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[productID.String()]; !ok {
		return duostore.ErrProductNotFound
	}
	delete(m.products, productID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Categories
// ──────────────────────────────────────────────────

// CreateCategory stores a copy of c.
func (m *Store) CreateCategory(_ context.Context, c *catalog.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.categories {
		if existing.Slug == c.Slug {
			return duostore.ErrDuplicateSlug
		}
	}
	c.Touch(now())
	cp := *c
	m.categories[c.ID.String()] = &cp
	return nil
}

// GetCategory returns a copy of the category.
func (m *Store) GetCategory(_ context.Context, categoryID id.CategoryID) (*catalog.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.categories[categoryID.String()]
	if !ok {
		return nil, duostore.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

// GetCategoryBySlug returns a copy of the category with the given slug.
func (m *Store) GetCategoryBySlug(_ context.Context, slug string) (*catalog.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, duostore.ErrCategoryNotFound
}

// ListCategories returns all categories ordered by name.
func (m *Store) ListCategories(_ context.Context) ([]*catalog.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*catalog.Category, 0, len(m.categories))
	for _, c := range m.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeleteCategory removes a category.
func (m *Store) DeleteCategory(_ context.Context, categoryID id.CategoryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.categories[categoryID.String()]; !ok {
		return duostore.ErrCategoryNotFound
	}
	delete(m.categories, categoryID.String())
	return nil
}

func now() time.Time { return time.Now().UTC() }

func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
