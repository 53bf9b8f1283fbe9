package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	audithook "github.com/xraph/duostore/audit_hook"
	"github.com/xraph/duostore/cache"
	"github.com/xraph/duostore/catalog"
	"github.com/xraph/duostore/catalog/bunstore"
	"github.com/xraph/duostore/catalog/mongostore"
	"github.com/xraph/duostore/config"
	"github.com/xraph/duostore/document"
	"github.com/xraph/duostore/limit"
	"github.com/xraph/duostore/middleware"
	"github.com/xraph/duostore/observability"
	"github.com/xraph/duostore/relational"
	"github.com/xraph/duostore/selector"
	"github.com/xraph/duostore/stream"
)

// app holds the wired process components.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	selector *selector.Selector
	broker   *stream.Broker
}

// newApp loads configuration and wires the pool clients into a selector.
// Nothing is connected yet except the cache, which is best-effort.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(config.NewViper(), cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	var (
		relPool    selector.RelationalPool
		relCatalog catalog.Store
	)
	if cfg.Selector.UseRelational {
		rel := relational.New(cfg.Relational, relational.WithLogger(logger))
		relPool = rel
		relCatalog = bunstore.New(rel, bunstore.WithLogger(logger))
	}

	doc := document.New(cfg.Document, document.WithLogger(logger))
	docCatalog := mongostore.New(doc, mongostore.WithLogger(logger))

	c, err := cache.New(ctx, cfg.Cache, cache.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	broker := stream.NewBroker(stream.WithLogger(logger))

	sel, err := selector.New(cfg.Selector, relPool, doc,
		selector.WithLogger(logger),
		selector.WithCache(c),
		selector.WithCatalog(relCatalog, docCatalog),
		selector.WithExtension(observability.NewMetricsExtension()),
		selector.WithExtension(audithook.New(audithook.SlogRecorder(logger), audithook.WithLogger(logger))),
		selector.WithExtension(broker),
		selector.WithMiddleware(middleware.Logging(logger)),
		selector.WithMiddleware(middleware.Metrics()),
		selector.WithMiddleware(middleware.Tracing()),
		selector.WithMiddleware(middleware.Limit(limit.NewManager(cfg.Limits...))),
	)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, selector: sel, broker: broker}, nil
}
