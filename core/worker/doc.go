// Package worker runs background jobs with a bounded queue and a fixed pool.
//
// Webhook handlers acknowledge the provider immediately and hand the sync to a
// Dispatcher. Submit never blocks: when the queue is full it returns
// ErrQueueFull and the caller logs and drops the job. Job failures and panics are
// logged and never take a worker down.
package worker
