// Package lock provides the per-tenant exclusive lease used by the sync orchestrator.
//
// Two implementations share the Locker contract:
//
//   - MemoryLocker: an in-process map of tokens for single-instance deployments.
//   - RedisLocker: bsm/redislock over go-redis for horizontally scaled deployments.
//     The lease is refreshed in the background while held so long syncs do not
//     lose the lock when the TTL elapses.
//
// TryAcquire never blocks: a busy key returns ErrNotObtained and callers decide
// whether to skip or report.
//
//	lease, err := locker.TryAcquire(ctx, "pos-sync:"+tenantID)
//	if errors.Is(err, lock.ErrNotObtained) {
//	    return // coalesced
//	}
//	defer lease.Release(ctx)
package lock
