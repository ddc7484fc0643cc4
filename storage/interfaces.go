package storage

import (
	"context"

	"github.com/scribelab/docvec/core"
)

// VectorStore persists chunks together with their embedding vectors.
type VectorStore interface {
	// Provision creates the backing table, index or collection if it
	// is absent, sized for vectors of the given width. It is
	// idempotent and safe to call every run. Returns
	// ErrDimensionMismatch when an existing schema was provisioned for
	// a different width.
	Provision(ctx context.Context, dimensions int) error

	// WriteBatch persists chunks as records keyed by chunk id. The
	// incoming batch may be arbitrarily large; implementations
	// sub-batch to fit backend limits. Returns the number of records
	// written; on error that count covers only the sub-batches
	// committed before the failure. No partial-commit guarantee is
	// made within a sub-batch.
	WriteBatch(ctx context.Context, chunks []*core.Chunk) (int, error)

	// Close releases connections and flushes buffered state.
	Close() error
}
