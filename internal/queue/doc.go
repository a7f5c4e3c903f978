// Package queue defines the durable task queue contract used by the
// background worker subsystem: enqueue, atomic exclusive claim with
// visibility-deadline reclamation, idempotent ack, nack with exponential
// backoff, and dead-letter routing.
//
// Delivery is at-least-once. A slow worker can lose its claim to the
// visibility sweep and have the task redelivered elsewhere, so handlers
// must be idempotent.
//
// Two implementations exist: MemoryQueue in this package for tests and
// single-process use, and the Postgres-backed implementation in
// internal/platform/postgres for durable deployments.
package queue
