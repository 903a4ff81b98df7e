// Package testing provides test utilities for the ordsync library.
//
// This package offers helpers for setting up test environments, particularly
// an embedded NATS server for integration testing. It follows Go's convention
// of providing testing utilities in a dedicated package (similar to
// net/http/httptest).
//
// Example usage:
//
//	import (
//	    "testing"
//	    ordtest "github.com/floradistro/ordsync/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := ordtest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
