// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package, and a durable
// queue.Queue backed by row locks. It handles the details of query
// execution, error mapping, and data mapping between domain entities and
// database records. Schema migrations live in the migrations subdirectory
// and are applied with goose.
package postgres
