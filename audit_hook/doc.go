// Package audithook is an extension that turns data-layer lifecycle
// events into audit records.
//
// Backend connects and disconnects, the fallback transition, failed
// operations, unhealthy probes and shutdown each produce a structured
// AuditEvent sent to a [Recorder]. Severity is info for normal lifecycle,
// warning for recoverable failures and critical for the fallback
// transition and failed operations.
//
//	sel, _ := selector.New(cfg, rel, doc,
//	    selector.WithExtension(audithook.New(audithook.SlogRecorder(logger))),
//	)
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionFallbackActivated,
//	        audithook.ActionOperationFailed,
//	    ),
//	)
package audithook
