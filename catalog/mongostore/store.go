// Package mongostore implements catalog.Store on the document store using
// the MongoDB Go driver.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/catalog"
)

var _ catalog.Store = (*Store)(nil)

// Collection names.
const (
	colProducts   = "products"
	colCategories = "categories"
)

// Source yields the current database, or nil while disconnected.
// *document.Client satisfies it.
type Source interface {
	Database() *mongo.Database
}

type staticSource struct{ db *mongo.Database }

func (s staticSource) Database() *mongo.Database { return s.db }

// Static wraps a fixed *mongo.Database as a Source.
func Static(db *mongo.Database) Source { return staticSource{db} }

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store is the MongoDB implementation of catalog.Store. The document
// client owns the session.
type Store struct {
	src    Source
	logger *slog.Logger
}

// New creates a new MongoDB catalog store.
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

func (s *Store) collection(name string) (*mongo.Collection, error) {
	db := s.src.Database()
	if db == nil {
		return nil, duostore.NewStoreError(duostore.BackendDocument, "catalog", duostore.ErrNotConnected,
			fmt.Errorf("document session is not open"))
	}
	return db.Collection(name), nil
}

// Migrate creates the catalog indexes. Collections are created implicitly.
func (s *Store) Migrate(ctx context.Context) error {
	for name, indexes := range migrationIndexes() {
		col, err := s.collection(name)
		if err != nil {
			return err
		}
		if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("duostore/mongo: create indexes on %s: %w", name, err)
		}
	}
	s.logger.Info("catalog indexes ready")
	return nil
}

// Ping checks connectivity with a primary ping.
func (s *Store) Ping(ctx context.Context) error {
	db := s.src.Database()
	if db == nil {
		_, err := s.collection(colProducts)
		return err
	}
	return db.Client().Ping(ctx, readpref.Primary())
}

// ── helpers ──────────────────────────────────────────────────────

// now returns the current UTC time truncated to BSON date precision.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colProducts: {
			{
				Keys:    bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{
				{Key: "category_id", Value: 1},
				{Key: "active", Value: 1},
			}},
			{Keys: bson.D{
				{Key: "created_at", Value: 1},
				{Key: "_id", Value: 1},
			}},
		},
		colCategories: {
			{
				Keys:    bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
	}
}
