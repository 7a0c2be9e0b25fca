// Package possync ties POS adapters, the reconcile engine and the menu store
// into one sync workflow and exposes it over HTTP.
//
// Orchestrator.Sync is the single entry point for manual, webhook and
// scheduled syncs. Each run holds the tenant lock (pos-sync:<tenant>) for the
// whole authenticate, fetch, reconcile, apply sequence. A trigger arriving while
// the lock is held is coalesced: it is logged and returns ErrSyncInProgress
// instead of waiting. Every attempt that reaches the provider is recorded as a
// SyncRun exactly once, with status SUCCESS, PARTIAL (some pages failed) or
// FAILED.
//
// Service adds connect, disconnect, status and history on top of the
// orchestrator. Connect and disconnect take the same tenant lock so token
// writes never race a sync. Webhooks are verified synchronously and the sync
// they trigger runs on the worker dispatcher; Scheduler does the same on a cron
// schedule for every connected tenant.
//
// Routes:
//
//	POST   /integrations/:tenant/:provider/connect
//	DELETE /integrations/:tenant/:provider
//	GET    /integrations/:tenant/status
//	POST   /integrations/:tenant/sync
//	GET    /integrations/:tenant/runs?limit=
//	GET    /integrations/:tenant/square/authorize?state=
//	POST   /webhooks/:provider
package possync
