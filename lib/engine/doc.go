// Package engine defines a standardized interface for ordered key-value
// storage engines. It allows the document store to run against different
// backends while abstracting implementation details.
//
// The package focuses on:
//   - A unified interface for region-scoped key-value operations
//   - Ordered range iteration with half-open bounds and reverse support
//   - Atomic multi-key transactions via Region.Update
//
// Key Components:
//
//   - Engine Interface: The entry point all backends must satisfy. An
//     engine hosts named regions (independent ordered key spaces) and
//     supports opening and dropping them by name.
//
//   - Region Interface: An opened handle onto one region, providing point
//     operations (Get, Has, Put, Delete), ordered iteration (Iterate) and
//     transactional batches (Update). Iteration bounds follow the
//     half-open convention: the start bound is inclusive, the end bound
//     is exclusive.
//
//   - Implementation Identifiers: String constants for the available
//     backends ("pebble", "memory").
//
// Implementations live in the engines/ subdirectory:
//
//   - engines/pebble: A durable engine backed by cockroachdb/pebble.
//     All regions share one pebble database and are separated by key
//     prefixes.
//
//   - engines/memory: A non-durable in-memory engine backed by an
//     ordered btree, intended for tests and ephemeral serving.
//
// The testing/ subdirectory contains a conformance suite that every
// implementation must pass.
package engine
