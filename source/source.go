package source

import (
	"context"
	"iter"

	"github.com/scribelab/docvec/core"
)

// Loader yields documents from one kind of configured origin.
type Loader interface {
	// Name identifies the loader in logs and run summaries.
	Name() string

	// Load yields documents one at a time. Item-level failures are
	// yielded as errors with a nil document and iteration continues.
	Load(ctx context.Context) iter.Seq2[*core.Document, error]
}
