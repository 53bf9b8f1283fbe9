//go:build integration

package selector_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/catalog"
	"github.com/xraph/duostore/catalog/bunstore"
	"github.com/xraph/duostore/catalog/mongostore"
	"github.com/xraph/duostore/document"
	"github.com/xraph/duostore/id"
	"github.com/xraph/duostore/relational"
	"github.com/xraph/duostore/selector"
)

func terminate(t *testing.T, c testcontainers.Container) {
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})
}

func startMySQL(t *testing.T) relational.Config {
	t.Helper()
	ctx := context.Background()

	c, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("storefront"),
		tcmysql.WithUsername("duostore"),
		tcmysql.WithPassword("duostore"),
	)
	if err != nil {
		t.Fatalf("start mysql container: %v", err)
	}
	terminate(t, c)

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := c.MappedPort(ctx, "3306/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}

	cfg := relational.DefaultConfig()
	cfg.Host = host
	cfg.Port, _ = strconv.Atoi(port.Port())
	cfg.User = "duostore"
	cfg.Password = "duostore"
	cfg.TLS = false
	return cfg
}

func startMongo(t *testing.T) document.Config {
	t.Helper()
	ctx := context.Background()

	c, err := tcmongo.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("start mongodb container: %v", err)
	}
	terminate(t, c)

	uri, err := c.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	cfg := document.DefaultConfig()
	cfg.URI = uri
	return cfg
}

func TestSelector_MySQLPrimaryWithMongoFallback(t *testing.T) {
	ctx := context.Background()
	relCfg := startMySQL(t)
	docCfg := startMongo(t)

	rel := relational.New(relCfg)
	doc := document.New(docCfg)
	relStore := bunstore.New(rel)
	docStore := mongostore.New(doc)

	s, err := selector.New(selector.DefaultConfig(), rel, doc,
		selector.WithCatalog(relStore, docStore),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if st := s.GetStatus(); st.Mode != duostore.ModeRelational {
		t.Fatalf("mode = %s, want RELATIONAL", st.Mode)
	}
	store, err := s.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	products, err := s.Products()
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	p := &catalog.Product{ID: id.NewProductID(), Slug: "mug", Name: "Mug", PriceCents: 1200, Currency: "EUR", Active: true}
	if err := products.CreateProduct(ctx, p); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	// Take the relational store away and let the next call fail over.
	if err := rel.Close(); err != nil {
		t.Fatalf("close relational: %v", err)
	}

	got, err := selector.Do(ctx, s, "products.getBySlug",
		func(ctx context.Context) (*catalog.Product, error) { return relStore.GetProductBySlug(ctx, "mug") },
		func(ctx context.Context) (*catalog.Product, error) { return docStore.GetProductBySlug(ctx, "mug") },
	)
	if !errors.Is(err, duostore.ErrProductNotFound) {
		t.Fatalf("Do = %v, %v; want ErrProductNotFound from the empty document store", got, err)
	}

	st := s.GetStatus()
	if st.Mode != duostore.ModeDocument || !st.FallbackActive || !st.Connections.Document {
		t.Errorf("status = %+v, want document fallback", st)
	}
	if r := s.HealthCheck(ctx); !r.Healthy || r.Database != duostore.BackendDocument {
		t.Errorf("health = %+v, want healthy document", r)
	}

	// The fallback migrated the document catalog, so slugs stay unique.
	products, err = s.Products()
	if err != nil {
		t.Fatalf("Products after fallback: %v", err)
	}
	if err := products.CreateProduct(ctx, &catalog.Product{ID: id.NewProductID(), Slug: "cup", Name: "Cup", Currency: "EUR"}); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	err = products.CreateProduct(ctx, &catalog.Product{ID: id.NewProductID(), Slug: "cup", Name: "Other cup", Currency: "EUR"})
	if !errors.Is(err, duostore.ErrDuplicateSlug) {
		t.Errorf("duplicate slug = %v, want ErrDuplicateSlug", err)
	}
}

func TestSelector_UnreachableMySQLFallsBackToMongo(t *testing.T) {
	ctx := context.Background()
	docCfg := startMongo(t)

	relCfg := relational.DefaultConfig()
	relCfg.Host = "127.0.0.1"
	relCfg.Port = 1
	relCfg.TLS = false
	relCfg.AcquireTimeout = time.Second

	cfg := selector.DefaultConfig()
	cfg.ConnectTimeout = 2 * time.Second

	s, err := selector.New(cfg, relational.New(relCfg), document.New(docCfg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	st := s.GetStatus()
	if st.Mode != duostore.ModeDocument || !st.FallbackActive {
		t.Errorf("status = %+v, want document fallback", st)
	}
	if st.Connections.Relational || !st.Connections.Document {
		t.Errorf("connections = %+v, want document only", st.Connections)
	}
}

func TestBunStore_MySQL(t *testing.T) {
	relCfg := startMySQL(t)
	rel := relational.New(relCfg)
	if err := rel.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = rel.Close() })

	s := bunstore.New(rel)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// Migrate is idempotent on MySQL too.
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}
