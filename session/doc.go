// Package session provides the relational session store: one row per login
// in the "session" table, with sliding renewal and bulk deletion of stale rows.
//
// # Concurrency
//
// The store holds no locks and no cache. Every operation is a single SQL
// statement, so correctness under concurrent requests rests on per-statement
// atomicity in the database. [Store.Renew] in particular is one UPDATE that
// also re-checks liveness, which closes the window between a fetch and a
// renewal.
//
// # Architecture boundaries
//
// This package owns the [Store] and the [Session] model. It does NOT decode
// tokens or decide what an expired session means for a request; that belongs
// to the engine.
//
// # What this package must NOT do
//
//   - Import the root package, jwt, or middleware (no upward imports).
//   - Retry failed statements.
package session
