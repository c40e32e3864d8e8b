// Package engine is the per-rank orchestrator. It builds every configured
// operation, lets each declare its arguments, sizes the shared registry from
// those declarations, and then serves three kinds of calls:
//
//   - Compute dispatches an operation by name.
//   - ImportData and ExportData move data between the host and the
//     registry, reconciling distributed node fields on the way.
//   - RunStage sequences Compute calls when no host drives the engine.
//
// An Engine is single-threaded. Calls that reconcile node fields are
// collective: every rank must make the same call in the same order.
package engine
