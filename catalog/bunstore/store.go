// Package bunstore implements catalog.Store on the relational store using
// the bun ORM. It works with every dialect the relational client opens
// (MySQL, PostgreSQL, SQLite).
package bunstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/catalog"
)

var _ catalog.Store = (*Store)(nil)

// Source yields the current *bun.DB, or nil while disconnected.
// *relational.Client satisfies it.
type Source interface {
	DB() *bun.DB
}

type staticSource struct{ db *bun.DB }

func (s staticSource) DB() *bun.DB { return s.db }

// Static wraps a fixed *bun.DB as a Source.
func Static(db *bun.DB) Source { return staticSource{db} }

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store is the bun implementation of catalog.Store. It never opens or
// closes the database; the relational client owns the pool.
type Store struct {
	src    Source
	logger *slog.Logger
}

// New creates a new bun catalog store.
func New(src Source, opts ...Option) *Store {
	s := &Store{
		src:    src,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) db() (*bun.DB, error) {
	db := s.src.DB()
	if db == nil {
		return nil, duostore.NewStoreError(duostore.BackendRelational, "catalog", duostore.ErrNotConnected,
			fmt.Errorf("relational pool is not open"))
	}
	return db, nil
}

// Migrate creates the catalog tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	db, err := s.db()
	if err != nil {
		return err
	}

	for _, model := range []any{(*categoryModel)(nil), (*productModel)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("duostore/bun: create table: %w", err)
		}
	}

	q := db.NewCreateIndex().
		Model((*productModel)(nil)).
		Index("products_category_id_idx").
		Column("category_id")
	// MySQL has no CREATE INDEX IF NOT EXISTS; an existing index is
	// reported as a duplicate key name instead.
	if db.Dialect().Name() != dialect.MySQL {
		q = q.IfNotExists()
	}
	if _, err := q.Exec(ctx); err != nil && !isDuplicateIndex(err) {
		return fmt.Errorf("duostore/bun: create index: %w", err)
	}

	s.logger.Info("catalog schema ready", slog.String("dialect", db.Dialect().Name().String()))
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}
