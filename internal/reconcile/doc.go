// Package reconcile drives the acquire workflow: it seeds datastore records
// from the local year lists and walks eligible records through the lookup
// service, persisting every state transition as it happens.
package reconcile
