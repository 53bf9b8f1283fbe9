package bunstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/catalog"
	"github.com/xraph/duostore/id"
)

// CreateCategory inserts a category.
func (s *Store) CreateCategory(ctx context.Context, c *catalog.Category) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	c.Touch(now())
	if _, err := db.NewInsert().Model(toCategoryModel(c)).Exec(ctx); err != nil {
		if isDuplicateKey(err) {
			return duostore.ErrDuplicateSlug
		}
		return fmt.Errorf("duostore/bun: create category: %w", err)
	}
	return nil
}

// GetCategory retrieves a category by ID.
func (s *Store) GetCategory(ctx context.Context, categoryID id.CategoryID) (*catalog.Category, error) {
	return s.getCategory(ctx, "id = ?", categoryID.String())
}

// GetCategoryBySlug retrieves a category by slug.
func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	return s.getCategory(ctx, "slug = ?", slug)
}

func (s *Store) getCategory(ctx context.Context, where string, arg any) (*catalog.Category, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	m := new(categoryModel)
	err = db.NewSelect().Model(m).Where(where, arg).Limit(1).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, duostore.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("duostore/bun: get category: %w", err)
	}
	return fromCategoryModel(m)
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]*catalog.Category, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	var models []categoryModel
	if err := db.NewSelect().Model(&models).Order("name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("duostore/bun: list categories: %w", err)
	}
	categories := make([]*catalog.Category, 0, len(models))
	for i := range models {
		c, err := fromCategoryModel(&models[i])
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}

// DeleteCategory removes a category.
func (s *Store) DeleteCategory(ctx context.Context, categoryID id.CategoryID) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	res, err := db.NewDelete().
		Model((*categoryModel)(nil)).
		Where("id = ?", categoryID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("duostore/bun: delete category: %w", err)
	}
	return affected(res, duostore.ErrCategoryNotFound)
}

// affected maps a zero row count to notFound.
func affected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("duostore/bun: rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
