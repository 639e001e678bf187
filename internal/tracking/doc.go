// Package tracking owns the per-book datastore: record lifecycle, retry
// backoff, eligibility selection, and atomic persistence of the state file.
package tracking
