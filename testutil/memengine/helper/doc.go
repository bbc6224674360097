// Package helper provides testing utilities for the in-memory event store.
//
// It contains spies for the dependency-free observability interfaces (slog handler, contextual logger,
// metrics and tracing collectors) and Given/Then style helpers to arrange stores and drain iterators.
package helper
