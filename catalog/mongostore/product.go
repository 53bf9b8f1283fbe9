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

// CreateProduct inserts a product.
func (s *Store) CreateProduct(ctx context.Context, p *catalog.Product) error {
	col, err := s.collection(colProducts)
	if err != nil {
		return err
	}
	p.Touch(now())
	if _, err := col.InsertOne(ctx, toProductModel(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duostore.ErrDuplicateSlug
		}
		return fmt.Errorf("duostore/mongo: create product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product by ID.
func (s *Store) GetProduct(ctx context.Context, productID id.ProductID) (*catalog.Product, error) {
	return s.findProduct(ctx, bson.M{"_id": productID.String()})
}

// GetProductBySlug retrieves a product by slug.
func (s *Store) GetProductBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	return s.findProduct(ctx, bson.M{"slug": slug})
}

func (s *Store) findProduct(ctx context.Context, filter bson.M) (*catalog.Product, error) {
	col, err := s.collection(colProducts)
	if err != nil {
		return nil, err
	}
	var m productModel
	if err := col.FindOne(ctx, filter).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, duostore.ErrProductNotFound
		}
		return nil, fmt.Errorf("duostore/mongo: get product: %w", err)
	}
	return fromProductModel(&m)
}

// ListProducts returns matching products in creation order.
func (s *Store) ListProducts(ctx context.Context, opts catalog.ListOpts) ([]*catalog.Product, error) {
	col, err := s.collection(colProducts)
	if err != nil {
		return nil, err
	}

	filter := bson.M{}
	if !opts.CategoryID.IsNil() {
		filter["category_id"] = opts.CategoryID.String()
	}
	if opts.ActiveOnly {
		filter["active"] = true
	}

	findOpts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("duostore/mongo: list products: %w", err)
	}
	var models []productModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("duostore/mongo: decode products: %w", err)
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

// UpdateProduct updates every mutable field of a product.
func (s *Store) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	col, err := s.collection(colProducts)
	if err != nil {
		return err
	}
	p.Touch(now())
	m := toProductModel(p)

	set := bson.M{
		"slug":        m.Slug,
		"name":        m.Name,
		"description": m.Description,
		"price_cents": m.PriceCents,
		"currency":    m.Currency,
		"stock":       m.Stock,
		"active":      m.Active,
		"updated_at":  m.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if m.CategoryID == "" {
		update["$unset"] = bson.M{"category_id": ""}
	} else {
		set["category_id"] = m.CategoryID
	}

	res, err := col.UpdateByID(ctx, m.ID, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duostore.ErrDuplicateSlug
		}
		return fmt.Errorf("duostore/mongo: update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return duostore.ErrProductNotFound
	}
	return nil
}

// DeleteProduct removes a product.
func (s *Store) DeleteProduct(ctx context.Context, productID id.ProductID) error {
	col, err := s.collection(colProducts)
	if err != nil {
		return err
	}
	res, err := col.DeleteOne(ctx, bson.M{"_id": productID.String()})
	if err != nil {
		return fmt.Errorf("duostore/mongo: delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return duostore.ErrProductNotFound
	}
	return nil
}
