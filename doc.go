// Package duostore is a client-side data-access resilience layer. It
// chooses between a relational (MySQL protocol) store and a document store
// at runtime, fails over from the first to the second at most once per
// process, and reports health for operational monitoring. An optional
// Redis cache sits beside the data path and is never required for
// correctness.
//
// The root package holds the shared vocabulary: backend modes, selector
// states, status and health shapes, lifecycle events and the error
// taxonomy. The moving parts live in subpackages:
//
//   - relational: bounded SQL pool client (bun over database/sql)
//   - document:   MongoDB client with driver-mirrored readiness
//   - cache:      best-effort Redis cache that degrades to a no-op
//   - selector:   the backend state machine (Initialize, Execute,
//     GetStatus, HealthCheck, Shutdown)
//   - bootstrap:  startup verification report
//
// # Quick Start
//
//	rel := relational.New(relCfg, relational.WithLogger(logger))
//	doc := document.New(docCfg, document.WithLogger(logger))
//	sel, err := selector.New(selCfg, rel, doc,
//	    selector.WithLogger(logger),
//	    selector.WithCatalog(bunstore.New(rel), mongostore.New(doc)),
//	)
//	if err := sel.Initialize(ctx); err != nil {
//	    // errors.Is(err, duostore.ErrFatalInit): refuse to serve traffic.
//	}
//	defer sel.Shutdown(context.Background())
//
// # Failover
//
// The selector starts in RELATIONAL or DOCUMENT mode from a boolean flag.
// A relational failure at startup or during an operation moves it to
// DOCUMENT mode. The transition is one-way for the lifetime of the
// process; a restart is required to try the relational store again.
package duostore
