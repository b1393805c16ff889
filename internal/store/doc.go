// Package store provides SQLite-backed durable storage for contract event logs.
//
// The store is an append-only log with two tables:
//   - batches: one row per import, identified by a UUIDv7
//   - events: one row per event, in import order
//
// # Ordering
//
// Every read is ordered by seq, the autoincrement position assigned at insert
// time. Reads therefore return events exactly in the order they were
// appended; the store never sorts by effective date. Wall-clock time is not
// recorded anywhere.
//
// # Idempotency
//
// Event ids are content-addressed over (source, ordinal, event) using
// contract.EventID, and inserts use ON CONFLICT(id) DO NOTHING. Importing
// the same file twice appends nothing the second time, while two identical
// price changes at different positions of one file are both kept.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Materialized snapshots are never stored. Reports always refold the log.
package store
