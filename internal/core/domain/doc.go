// Package domain defines the core business entities for nextfind.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types:
//
//   - DocumentTask: A unit of indexing work emitted by the scanner
//   - ChunkWithPosition: An offset-tracked slice of document text
//   - Point: The unit stored in the vector index (placeholder or chunk)
//   - SearchResult: A ranked, scored search hit
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import the Go
// standard library plus github.com/google/uuid for deterministic point
// identifiers. All other packages depend on domain, never the reverse.
package domain
