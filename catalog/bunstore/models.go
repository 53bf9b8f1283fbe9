package bunstore

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/xraph/duostore/catalog"
	"github.com/xraph/duostore/id"
)

// ── Category model ────────────────────────────────────────────────

type categoryModel struct {
	bun.BaseModel `bun:"table:categories"`

	ID        string    `bun:"id,pk,type:varchar(64)"`
	Slug      string    `bun:"slug,notnull,unique,type:varchar(191)"`
	Name      string    `bun:"name,notnull"`
	ParentID  string    `bun:"parent_id,nullzero,type:varchar(64)"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
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
		return nil, fmt.Errorf("duostore/bun: parse category id %q: %w", m.ID, err)
	}
	parentID, err := parseOptional(m.ParentID, id.PrefixCategory)
	if err != nil {
		return nil, fmt.Errorf("duostore/bun: parse parent id %q: %w", m.ParentID, err)
	}
	return &catalog.Category{
		Entity:   catalog.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       categoryID,
		Slug:     m.Slug,
		Name:     m.Name,
		ParentID: parentID,
	}, nil
}

// ── Product model ─────────────────────────────────────────────────

type productModel struct {
	bun.BaseModel `bun:"table:products"`

	ID          string    `bun:"id,pk,type:varchar(64)"`
	Slug        string    `bun:"slug,notnull,unique,type:varchar(191)"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description,type:text"`
	PriceCents  int64     `bun:"price_cents,notnull"`
	Currency    string    `bun:"currency,notnull,type:varchar(3)"`
	CategoryID  string    `bun:"category_id,nullzero,type:varchar(64)"`
	Stock       int       `bun:"stock,notnull"`
	Active      bool      `bun:"active,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
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
		return nil, fmt.Errorf("duostore/bun: parse product id %q: %w", m.ID, err)
	}
	categoryID, err := parseOptional(m.CategoryID, id.PrefixCategory)
	if err != nil {
		return nil, fmt.Errorf("duostore/bun: parse category id %q: %w", m.CategoryID, err)
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
