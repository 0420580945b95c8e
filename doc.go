// Package authstate provides client-side session-state primitives (token
// decoding and validation, redundant key-value persistence, session
// resolution) plus diagnostics hooks for field troubleshooting.
//
// Storage:
//   - PrimaryStore wraps a single persistent Backend with a health check,
//     bounded retries, and an in-memory mirror so a flaky backend never makes
//     a freshly written token unreadable in the same process.
//   - AlternativeStore is an independent second path that discovers usable
//     backends at initialization and serves memory-first. A global failure of
//     the primary backend does not, by itself, lock every user out.
//
// Session resolution:
//   - SessionService owns the dual-store read/validate/delete decision tree.
//     Resolver (polling) and StableResolver (on-demand) are thin view
//     adapters over the same service, so the two surfaces cannot drift.
//
// Diagnostics:
//   - Reporter aggregates storage probes, token checks, environment flags,
//     and the tail of the log ring buffer into a point-in-time Snapshot that
//     can be exported as JSON from a misbehaving install.
package authstate
