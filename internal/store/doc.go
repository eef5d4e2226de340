// Package store provides SQLite-backed persistence for simulation runs.
//
// Two tables:
//   - runs: one row per run with its parameters, initial condition, day
//     budget and input fingerprint
//   - steps: the produced snapshots, keyed by (run_id, day)
//
// Ordering is logical. Runs get a monotonically increasing seq on insert
// and every listing is ORDER BY seq ASC, id ASC COLLATE BINARY; steps are
// ORDER BY day ASC. No wall-clock timestamps are stored.
//
// Writes are idempotent on the run ID. Because the engine is deterministic,
// FindByFingerprint can answer "has this exact run been stored already".
package store
