// Package services defines shared utilities consumed by the tracker pipeline
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, record keys, and list years for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that distinguish failures
//     worth retrying from failures that should abort a run.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform across components.
package services
