// Package catalogtest is a behavioural test suite shared by every
// catalog.Store backend.
package catalogtest

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/catalog"
	"github.com/xraph/duostore/id"
)

// Factory returns an empty, migrated store for one subtest.
type Factory func(t *testing.T) catalog.Store

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("ProductCRUD", func(t *testing.T) { testProductCRUD(t, newStore(t)) })
	t.Run("DuplicateSlug", func(t *testing.T) { testDuplicateSlug(t, newStore(t)) })
	t.Run("ListProducts", func(t *testing.T) { testListProducts(t, newStore(t)) })
	t.Run("Categories", func(t *testing.T) { testCategories(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
}

func newCategory(slug, name string) *catalog.Category {
	return &catalog.Category{ID: id.NewCategoryID(), Slug: slug, Name: name}
}

func newProduct(slug string, cat id.CategoryID, active bool) *catalog.Product {
	return &catalog.Product{
		ID:         id.NewProductID(),
		Slug:       slug,
		Name:       slug,
		PriceCents: 1299,
		Currency:   "EUR",
		CategoryID: cat,
		Stock:      5,
		Active:     active,
	}
}

func testProductCRUD(t *testing.T, s catalog.Store) {
	ctx := context.Background()

	cat := newCategory("coffee", "Coffee")
	if err := s.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	p := newProduct("espresso-beans", cat.ID, true)
	p.Description = "Dark roast"
	if err := s.CreateProduct(ctx, p); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.CreatedAt.IsZero() {
		t.Error("CreateProduct should set CreatedAt")
	}

	got, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got.ID.String() != p.ID.String() || got.Slug != p.Slug || got.PriceCents != 1299 ||
		got.Description != "Dark roast" || got.CategoryID.String() != cat.ID.String() || !got.Active {
		t.Errorf("GetProduct = %+v, want %+v", got, p)
	}

	bySlug, err := s.GetProductBySlug(ctx, "espresso-beans")
	if err != nil {
		t.Fatalf("GetProductBySlug: %v", err)
	}
	if bySlug.ID.String() != p.ID.String() {
		t.Errorf("GetProductBySlug id = %s, want %s", bySlug.ID, p.ID)
	}

	p.Name = "Espresso Beans 1kg"
	p.Stock = 0
	if err := s.UpdateProduct(ctx, p); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	// Updating with identical values must still succeed.
	if err := s.UpdateProduct(ctx, p); err != nil {
		t.Fatalf("UpdateProduct (unchanged): %v", err)
	}
	got, err = s.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct after update: %v", err)
	}
	if got.Name != "Espresso Beans 1kg" || got.Stock != 0 {
		t.Errorf("update not applied: %+v", got)
	}

	if err := s.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := s.GetProduct(ctx, p.ID); !errors.Is(err, duostore.ErrProductNotFound) {
		t.Errorf("GetProduct after delete: expected ErrProductNotFound, got %v", err)
	}
}

func testDuplicateSlug(t *testing.T, s catalog.Store) {
	ctx := context.Background()

	if err := s.CreateProduct(ctx, newProduct("mug", id.Nil, true)); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	err := s.CreateProduct(ctx, newProduct("mug", id.Nil, true))
	if !errors.Is(err, duostore.ErrDuplicateSlug) {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}

	if err := s.CreateCategory(ctx, newCategory("tea", "Tea")); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	err = s.CreateCategory(ctx, newCategory("tea", "Tea again"))
	if !errors.Is(err, duostore.ErrDuplicateSlug) {
		t.Errorf("expected ErrDuplicateSlug for category, got %v", err)
	}
}

func testListProducts(t *testing.T, s catalog.Store) {
	ctx := context.Background()

	a := newCategory("a", "A")
	b := newCategory("b", "B")
	for _, c := range []*catalog.Category{a, b} {
		if err := s.CreateCategory(ctx, c); err != nil {
			t.Fatalf("CreateCategory: %v", err)
		}
	}
	for _, p := range []*catalog.Product{
		newProduct("a-1", a.ID, true),
		newProduct("a-2", a.ID, false),
		newProduct("b-1", b.ID, true),
	} {
		if err := s.CreateProduct(ctx, p); err != nil {
			t.Fatalf("CreateProduct %s: %v", p.Slug, err)
		}
	}

	tests := []struct {
		name string
		opts catalog.ListOpts
		want int
	}{
		{"all", catalog.ListOpts{}, 3},
		{"category", catalog.ListOpts{CategoryID: a.ID}, 2},
		{"category active", catalog.ListOpts{CategoryID: a.ID, ActiveOnly: true}, 1},
		{"active", catalog.ListOpts{ActiveOnly: true}, 2},
		{"limit", catalog.ListOpts{Limit: 2}, 2},
		{"offset", catalog.ListOpts{Offset: 2}, 1},
		{"offset past end", catalog.ListOpts{Offset: 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListProducts(ctx, tt.opts)
			if err != nil {
				t.Fatalf("ListProducts: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("ListProducts(%+v) returned %d products, want %d", tt.opts, len(got), tt.want)
			}
		})
	}
}

func testCategories(t *testing.T, s catalog.Store) {
	ctx := context.Background()

	root := newCategory("drinks", "Drinks")
	if err := s.CreateCategory(ctx, root); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	child := newCategory("coffee", "Coffee")
	child.ParentID = root.ID
	if err := s.CreateCategory(ctx, child); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	got, err := s.GetCategoryBySlug(ctx, "coffee")
	if err != nil {
		t.Fatalf("GetCategoryBySlug: %v", err)
	}
	if got.ParentID.String() != root.ID.String() {
		t.Errorf("ParentID = %q, want %q", got.ParentID, root.ID)
	}

	gotRoot, err := s.GetCategory(ctx, root.ID)
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if !gotRoot.ParentID.IsNil() {
		t.Errorf("root ParentID = %q, want nil", gotRoot.ParentID)
	}

	all, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(all) != 2 || all[0].Name != "Coffee" || all[1].Name != "Drinks" {
		t.Errorf("ListCategories not ordered by name: %+v", all)
	}

	if err := s.DeleteCategory(ctx, child.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if _, err := s.GetCategory(ctx, child.ID); !errors.Is(err, duostore.ErrCategoryNotFound) {
		t.Errorf("expected ErrCategoryNotFound, got %v", err)
	}
}

func testNotFound(t *testing.T, s catalog.Store) {
	ctx := context.Background()

	if _, err := s.GetProductBySlug(ctx, "missing"); !errors.Is(err, duostore.ErrProductNotFound) {
		t.Errorf("GetProductBySlug: expected ErrProductNotFound, got %v", err)
	}
	if err := s.UpdateProduct(ctx, newProduct("ghost", id.Nil, true)); !errors.Is(err, duostore.ErrProductNotFound) {
		t.Errorf("UpdateProduct: expected ErrProductNotFound, got %v", err)
	}
	if err := s.DeleteProduct(ctx, id.NewProductID()); !errors.Is(err, duostore.ErrProductNotFound) {
		t.Errorf("DeleteProduct: expected ErrProductNotFound, got %v", err)
	}
	if err := s.DeleteCategory(ctx, id.NewCategoryID()); !errors.Is(err, duostore.ErrCategoryNotFound) {
		t.Errorf("DeleteCategory: expected ErrCategoryNotFound, got %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
