package mongostore

import (
	"fmt"
	"time"

	"github.com/xraph/duostore/catalog"
	"github.com/xraph/duostore/id"
)

type categoryModel struct {
	ID        string    `bson:"_id"`
	Slug      string    `bson:"slug"`
	Name      string    `bson:"name"`
	ParentID  string    `bson:"parent_id,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toCategoryModel(c *catalog.Category) *categoryModel {
	return &categoryModel{
		ID:        c.ID.String(),
		Slug:      c.Slug,
		Name:      c.Name,
		ParentID:  c.ParentID.String(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromCategoryModel(m *categoryModel) (*catalog.Category, error) {
	categoryID, err := id.ParseCategoryID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("duostore/mongo: parse category id %q: %w", m.ID, err)
	}
	parentID, err := parseOptional(m.ParentID, id.PrefixCategory)
	if err != nil {
		return nil, fmt.Errorf("duostore/mongo: parse parent id %q: %w", m.ParentID, err)
	}
	return &catalog.Category{
		Entity:   catalog.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       categoryID,
		Slug:     m.Slug,
		Name:     m.Name,
		ParentID: parentID,
	}, nil
}

type productModel struct {
	ID          string    `bson:"_id"`
	Slug        string    `bson:"slug"`
	Name        string    `bson:"name"`
	Description string    `bson:"description,omitempty"`
	PriceCents  int64     `bson:"price_cents"`
	Currency    string    `bson:"currency"`
	CategoryID  string    `bson:"category_id,omitempty"`
	Stock       int       `bson:"stock"`
	Active      bool      `bson:"active"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toProductModel(p *catalog.Product) *productModel {
	return &productModel{
		ID:          p.ID.String(),
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Currency:    p.Currency,
		CategoryID:  p.CategoryID.String(),
		Stock:       p.Stock,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromProductModel(m *productModel) (*catalog.Product, error) {
	productID, err := id.ParseProductID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("duostore/mongo: parse product id %q: %w", m.ID, err)
	}
	categoryID, err := parseOptional(m.CategoryID, id.PrefixCategory)
	if err != nil {
		return nil, fmt.Errorf("duostore/mongo: parse category id %q: %w", m.CategoryID, err)
	}
	return &catalog.Product{
		Entity:      catalog.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          productID,
		Slug:        m.Slug,
		Name:        m.Name,
		Description: m.Description,
		PriceCents:  m.PriceCents,
		Currency:    m.Currency,
		CategoryID:  categoryID,
		Stock:       m.Stock,
		Active:      m.Active,
	}, nil
}

func parseOptional(s string, prefix id.Prefix) (id.ID, error) {
	if s == "" {
		return id.Nil, nil
	}
	return id.ParseWithPrefix(s, prefix)
}
