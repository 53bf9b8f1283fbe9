//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/xraph/duostore/cache"
)

func setupRedis(t *testing.T) *cache.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	cfg := cache.DefaultConfig()
	cfg.URL = url
	cfg.Codec = cache.CodecNameMsgpack
	c, err := cache.New(ctx, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	if !c.Enabled() {
		t.Fatal("expected enabled cache")
	}
	return c
}

func TestIntegration_GetSet(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	var miss product
	if c.Get(ctx, "product:espresso", &miss) {
		t.Fatal("expected miss before Set")
	}
	if !c.Set(ctx, "product:espresso", product{Slug: "espresso", Price: 3.5}, time.Minute) {
		t.Fatal("Set failed")
	}
	var got product
	if !c.Get(ctx, "product:espresso", &got) {
		t.Fatal("expected hit after Set")
	}
	if got.Slug != "espresso" {
		t.Errorf("got %+v", got)
	}
	if !c.Delete(ctx, "product:espresso") {
		t.Error("Delete failed")
	}
	if c.Get(ctx, "product:espresso", &got) {
		t.Error("expected miss after Delete")
	}
}

func TestIntegration_SetIfAbsent(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	if !c.SetIfAbsent(ctx, "lock:reindex", "a", time.Minute) {
		t.Fatal("first SetIfAbsent should win")
	}
	if c.SetIfAbsent(ctx, "lock:reindex", "b", time.Minute) {
		t.Error("second SetIfAbsent should lose")
	}
	if !c.Enabled() {
		t.Error("a lost SetIfAbsent must not count as a failure")
	}
}
