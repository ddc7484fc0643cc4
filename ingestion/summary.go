package ingestion

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// reportLimit caps the itemized failure list in the run report.
const reportLimit = 10

// ItemError records a per-item failure that skipped one document or
// chunk without aborting the run.
type ItemError struct {
	// Source names the failed item: a loader name, a document source,
	// or a document source with a chunk position suffix.
	Source string
	Err    error
}

// Summary describes one ingestion run.
type Summary struct {
	// RunID uniquely identifies the run in logs and reports.
	RunID string

	// State is the stage the run reached: StateDone on success,
	// StateFailed otherwise.
	State State

	// Documents is the number of documents loaded from all sources.
	Documents int

	// Chunks is the number of chunks that were successfully embedded.
	Chunks int

	// Written is the number of chunks committed to the store.
	Written int

	// Skipped lists the per-item failures encountered along the way.
	Skipped []ItemError

	// Elapsed is the total run duration.
	Elapsed time.Duration
}

func newSummary() *Summary {
	return &Summary{RunID: uuid.NewString()}
}

// WriteReport renders a human-readable run report.
func (s *Summary) WriteReport(w io.Writer) {
	fmt.Fprintf(w, "Run %s: %d document(s), %d chunk(s), %d written in %s\n",
		s.RunID, s.Documents, s.Chunks, s.Written, s.Elapsed.Round(time.Millisecond))

	if len(s.Skipped) == 0 {
		return
	}
	fmt.Fprintf(w, "%d item(s) skipped:\n", len(s.Skipped))
	for i, item := range s.Skipped {
		if i == reportLimit {
			fmt.Fprintf(w, "  ...and %d more\n", len(s.Skipped)-reportLimit)
			break
		}
		fmt.Fprintf(w, "  - %s: %v\n", item.Source, item.Err)
	}
}
