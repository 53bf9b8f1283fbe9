package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/catalog"
	"github.com/xraph/duostore/id"
)

// CreateCategory inserts a category.
func (s *Store) CreateCategory(ctx context.Context, c *catalog.Category) error {
	col, err := s.collection(colCategories)
	if err != nil {
		return err
	}
	c.Touch(now())
	if _, err := col.InsertOne(ctx, toCategoryModel(c)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duostore.ErrDuplicateSlug
		}
		return fmt.Errorf("duostore/mongo: create category: %w", err)
	}
	return nil
}

// GetCategory retrieves a category by ID.
func (s *Store) GetCategory(ctx context.Context, categoryID id.CategoryID) (*catalog.Category, error) {
	return s.findCategory(ctx, bson.M{"_id": categoryID.String()})
}

// GetCategoryBySlug retrieves a category by slug.
func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	return s.findCategory(ctx, bson.M{"slug": slug})
}

func (s *Store) findCategory(ctx context.Context, filter bson.M) (*catalog.Category, error) {
	col, err := s.collection(colCategories)
	if err != nil {
		return nil, err
	}
	var m categoryModel
	if err := col.FindOne(ctx, filter).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, duostore.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("duostore/mongo: get category: %w", err)
	}
	return fromCategoryModel(&m)
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]*catalog.Category, error) {
	col, err := s.collection(colCategories)
	if err != nil {
		return nil, err
	}
	cursor, err := col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("duostore/mongo: list categories: %w", err)
	}
	var models []categoryModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("duostore/mongo: decode categories: %w", err)
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
	col, err := s.collection(colCategories)
	if err != nil {
		return err
	}
	res, err := col.DeleteOne(ctx, bson.M{"_id": categoryID.String()})
	if err != nil {
		return fmt.Errorf("duostore/mongo: delete category: %w", err)
	}
	if res.DeletedCount == 0 {
		return duostore.ErrCategoryNotFound
	}
	return nil
}
