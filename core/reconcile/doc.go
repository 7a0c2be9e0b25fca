// Package reconcile computes how a tenant's stored menu must change to match a
// catalog pulled from a point-of-sale provider.
//
// The engine is pure: it takes the canonical remote Catalog and a snapshot of
// local rows and returns a MergePlan. Applying the plan is the store's job and
// happens inside a single transaction (see feature/pos/store).
//
// # Matching
//
// Local rows are joined to remote records by provider id, and only rows linked to
// the catalog's provider take part:
//   - categories by category id
//   - items by item id across all categories (an item may move between categories)
//   - modifiers by (item id, modifier id)
//   - options by (item id, modifier id, option id)
//
// Rows with a nil provider id were authored locally and are never touched. Rows
// linked to a different provider are ignored as well.
//
// # Rules
//
//   - New remote records are created. Categories, items, modifiers and options take
//     their sort order from their remote position at creation; later pulls never
//     overwrite it.
//   - Matched records are updated only when a synced field differs.
//   - Linked records missing from the pull are soft-removed (available=false) when
//     currently available. Nothing is ever deleted.
//   - Item availability is remote.Available && !ManualUnavailable: a staff override
//     is never flipped back by a sync.
//   - A remote item without an image keeps the locally uploaded one.
//   - Duplicate remote ids keep the first occurrence and add a warning.
//
// # Plan
//
// Actions are ordered so parents are created before children and soft removals
// run last, children first:
//
//	plan := reconcile.Reconcile(localSnapshot, catalog)
//	if !plan.HasChanges() {
//	    return
//	}
//	fmt.Println(plan.Summary.Items.Created, plan.Summary.Items.Synced())
package reconcile
