// Package dryrun implements storage.VectorStore by printing a preview
// of the chunks instead of persisting them. No service is dialed and
// nothing is written to disk, which makes it useful for checking
// loading, chunking and metadata before committing to a real
// embedding run.
package dryrun

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/scribelab/docvec/core"
	"github.com/scribelab/docvec/storage"
)

// previewLimit is the number of chunks printed in full per run.
const previewLimit = 10

// contentPreview is the number of leading characters shown per chunk.
const contentPreview = 300

// Store implements storage.VectorStore by writing a human-readable
// preview to an io.Writer.
type Store struct {
	out    io.Writer
	logger *slog.Logger

	dim     int
	shown   int
	total   int
	started bool
}

var _ storage.VectorStore = (*Store)(nil)

// New returns a dry-run store printing to stdout.
func New() storage.VectorStore {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter returns a dry-run store printing to out.
func NewWithWriter(out io.Writer) storage.VectorStore {
	return &Store{
		out:    out,
		logger: slog.Default().With("component", "storage.dryrun"),
	}
}

// Provision records the vector width; there is no schema to create.
func (s *Store) Provision(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %d", storage.ErrProvision, dimensions)
	}
	s.dim = dimensions
	s.logger.Info("dry run: skipping provisioning", "dimensions", dimensions)
	return nil
}

// WriteBatch prints the first previewLimit chunks of the run and
// counts the rest.
func (s *Store) WriteBatch(ctx context.Context, chunks []*core.Chunk) (int, error) {
	if !s.started {
		fmt.Fprintf(s.out, "\n=== Dry Run Output ===\n")
		s.started = true
	}

	for _, chunk := range chunks {
		s.total++
		if s.shown >= previewLimit {
			continue
		}
		s.shown++
		fmt.Fprintf(s.out, "\n--- Chunk %d ---\n", s.shown)
		fmt.Fprintf(s.out, "Content:\n%s\n", truncate(chunk.Text, contentPreview))
		fmt.Fprintf(s.out, "Metadata: %v\n", chunk.Metadata)
	}

	return len(chunks), nil
}

// Close prints the closing summary for the run.
func (s *Store) Close() error {
	if !s.started {
		return nil
	}
	if s.total > s.shown {
		fmt.Fprintf(s.out, "\n...and %d more chunk(s) not shown.\n", s.total-s.shown)
	}
	fmt.Fprintf(s.out, "=== End Dry Run ===\n")
	return nil
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
