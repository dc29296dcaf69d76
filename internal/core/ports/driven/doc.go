// Package driven defines the outbound ports of the hexagon: the
// interfaces the core depends on and adapters implement. The vector
// store, document sources, embedding and sparse encoders, credential
// storage, and the metrics sink all live behind these contracts so the
// core can be exercised entirely against in-memory fakes.
package driven
