// Package speccache caches the results of specification-driven reads.
//
// A value is computed at most once per key at a time: concurrent callers of
// GetOrCreate and GetOrCreateAsync for the same key share one flight, and
// callers for unrelated keys never block each other. Compute errors and
// panics reach every waiter and are never stored.
//
// Components:
//   - Provider: byte store with TTL (e.g. in-memory, Ristretto, BigCache, Redis).
//   - Codec[V]: (de)serializes V <-> []byte.
//   - GenStore: generation counters. Invalidate bumps the namespace generation,
//     Remove bumps the generation of a single key. Local by default, Redis for
//     multi-replica deployments.
//
// Keys:
//
//	entry:<ns>:<key>  - cached values
//	ns:<ns>           - namespace generation (in the GenStore)
//
// Entries carry an absolute expiry that is checked on read, so backends
// without per-entry TTL (BigCache) still honor the requested lifetime.
package speccache
