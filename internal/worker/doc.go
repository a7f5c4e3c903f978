// Package worker implements the background processing pool: a registry
// mapping task types to handlers, worker loops that claim and dispatch
// tasks, and a manager supervising the pool's lifecycle.
//
// The worker boundary is also the failure boundary. Handler panics become
// retryable nacks, unknown task types are dead-lettered immediately, and
// store errors during resolution are retried and logged; nothing below
// this boundary crashes the process.
package worker
