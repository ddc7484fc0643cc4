// Package mock provides test doubles for the ai interfaces.
//
// The Embedder double produces deterministic vectors without calling
// any external service. Behavior can be overridden per test through
// the exported function fields, and calls are recorded for assertions.
// The embedder is safe for concurrent use, matching the contract of
// the real implementation.
package mock
