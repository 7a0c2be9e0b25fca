// Package store persists the synced menu and the per-tenant sync state.
//
// LoadLocalCatalog produces the local snapshot the reconcile engine diffs
// against, and ApplyPlan executes the resulting merge plan inside one gorm
// transaction. Provider ids in the plan are resolved to internal ids from the
// rows linked to the plan's provider, plus the rows created earlier in the same
// plan. Rows are never deleted; removals set available to false.
//
// The store also owns tenant_integrations sync metadata (status, last error,
// last sync time) and the sync_runs history.
package store
