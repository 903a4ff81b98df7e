// Package service provides built-in RecordService implementations.
//
// The remote data service is the authoritative store the synchronized
// collection converges to. The package includes:
//
//   - Memory: in-process authoritative store, useful for tests and examples
//   - NATSClient: request-reply client for a backend reachable over NATS
//
// Custom services can be implemented by satisfying the types.RecordService
// interface.
package service
