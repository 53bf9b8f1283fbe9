//go:build integration

package mongostore_test

import (
	"context"
	"strings"
	"testing"

	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/xraph/duostore/catalog"
	"github.com/xraph/duostore/catalog/catalogtest"
	"github.com/xraph/duostore/catalog/mongostore"
	"github.com/xraph/duostore/document"
)

func TestStore_MongoDB(t *testing.T) {
	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("start mongodb container: %v", err)
	}
	t.Cleanup(func() {
		if termErr := container.Terminate(ctx); termErr != nil {
			t.Logf("terminate container: %v", termErr)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	catalogtest.Run(t, func(t *testing.T) catalog.Store {
		cfg := document.DefaultConfig()
		cfg.URI = uri
		cfg.Database = strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())

		client := document.New(cfg)
		if err := client.Connect(ctx); err != nil {
			t.Fatalf("connect: %v", err)
		}
		t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

		s := mongostore.New(client)
		if err := s.Migrate(ctx); err != nil {
			t.Fatalf("Migrate: %v", err)
		}
		return s
	})
}
