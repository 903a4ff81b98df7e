// Package types defines the core types and interfaces shared across the
// ordsync library.
//
// This package is a leaf dependency: it imports nothing from the rest of the
// module, which allows internal packages to depend on it without creating
// import cycles with the root ordsync package. The root package re-exports
// the public subset via type aliases.
//
// Key contents:
//
//   - Record: the synchronized domain entity with base and derived fields
//   - ConnState: the connection lifecycle enum
//   - The change-event channel transport contract
//   - RecordService: the remote data service interface
//   - Logger, Hooks, MetricsCollector: optional dependency interfaces
//   - Sentinel errors used throughout the library
package types
