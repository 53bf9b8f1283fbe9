package bunstore

import (
	"context"
	"fmt"
	"math"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/catalog"
	"github.com/xraph/duostore/id"
)

// CreateProduct inserts a product.
func (s *Store) CreateProduct(ctx context.Context, p *catalog.Product) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	p.Touch(now())
	if _, err := db.NewInsert().Model(toProductModel(p)).Exec(ctx); err != nil {
		if isDuplicateKey(err) {
			return duostore.ErrDuplicateSlug
		}
		return fmt.Errorf("duostore/bun: create product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product by ID.
func (s *Store) GetProduct(ctx context.Context, productID id.ProductID) (*catalog.Product, error) {
	return s.getProduct(ctx, "id = ?", productID.String())
}

// GetProductBySlug retrieves a product by slug.
func (s *Store) GetProductBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	return s.getProduct(ctx, "slug = ?", slug)
}

func (s *Store) getProduct(ctx context.Context, where string, arg any) (*catalog.Product, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	m := new(productModel)
	err = db.NewSelect().Model(m).Where(where, arg).Limit(1).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, duostore.ErrProductNotFound
		}
		return nil, fmt.Errorf("duostore/bun: get product: %w", err)
	}
	return fromProductModel(m)
}

// ListProducts returns matching products in creation order.
func (s *Store) ListProducts(ctx context.Context, opts catalog.ListOpts) ([]*catalog.Product, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}

	var models []productModel
	q := db.NewSelect().Model(&models)
	if !opts.CategoryID.IsNil() {
		q = q.Where("category_id = ?", opts.CategoryID.String())
	}
	if opts.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	q = q.Order("created_at ASC", "id ASC")

	limit := opts.Limit
	if limit <= 0 && opts.Offset > 0 {
		// OFFSET is only valid together with LIMIT on MySQL and SQLite.
		limit = math.MaxInt32
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("duostore/bun: list products: %w", err)
	}

	products := make([]*catalog.Product, 0, len(models))
	for i := range models {
		p, err := fromProductModel(&models[i])
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// UpdateProduct updates every mutable column of a product.
func (s *Store) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	p.Touch(now())
	res, err := db.NewUpdate().
		Model(toProductModel(p)).
		ExcludeColumn("created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		if isDuplicateKey(err) {
			return duostore.ErrDuplicateSlug
		}
		return fmt.Errorf("duostore/bun: update product: %w", err)
	}
	return affected(res, duostore.ErrProductNotFound)
}

// DeleteProduct removes a product.
func (s *Store) DeleteProduct(ctx context.Context, productID id.ProductID) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	res, err := db.NewDelete().
		Model((*productModel)(nil)).
		Where("id = ?", productID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("duostore/bun: delete product: %w", err)
	}
	return affected(res, duostore.ErrProductNotFound)
}
