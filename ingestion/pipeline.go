package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/scribelab/docvec/ai"
	"github.com/scribelab/docvec/core"
	"github.com/scribelab/docvec/source"
	"github.com/scribelab/docvec/storage"
)

const (
	// writeBatch is how many chunks go to the store per write call.
	// Backends sub-batch further to their own limits.
	writeBatch = 200

	// maxWriteAttempts and writeRetryDelay bound the retry loop around
	// each write batch.
	maxWriteAttempts = 3
	writeRetryDelay  = 1 * time.Second

	// progressInterval is how many written chunks between progress
	// lines.
	progressInterval = 200
)

// Pipeline orchestrates a single ingestion run: load documents from
// the configured sources, chunk and embed them concurrently, and write
// the result to the vector store.
type Pipeline struct {
	store         storage.VectorStore
	embedder      ai.Embedder
	loaders       []source.Loader
	chunkSize     int
	chunkOverlap  int
	pool          *ants.Pool
	report        io.Writer
	writeAttempts int
	writeDelay    time.Duration
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithReportWriter sets where the run report and write progress go.
// Default is os.Stderr.
func WithReportWriter(w io.Writer) Option {
	return func(p *Pipeline) error {
		if w == nil {
			w = io.Discard
		}
		p.report = w
		return nil
	}
}

// WithWriteRetry overrides the write retry policy.
// Default is 3 attempts with a 1s base delay.
func WithWriteRetry(attempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if attempts < 1 {
			attempts = 1
		}
		if baseDelay < 0 {
			baseDelay = 0
		}
		p.writeAttempts = attempts
		p.writeDelay = baseDelay
		return nil
	}
}

// NewPipeline creates an ingestion pipeline over the given store,
// embedder and sources.
func NewPipeline(
	store storage.VectorStore,
	embedder ai.Embedder,
	loaders []source.Loader,
	chunkSize, chunkOverlap int,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if err := core.ValidateChunking(chunkSize, chunkOverlap); err != nil {
		return nil, err
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:         store,
		embedder:      embedder,
		loaders:       loaders,
		chunkSize:     chunkSize,
		chunkOverlap:  chunkOverlap,
		pool:          pool,
		report:        os.Stderr,
		writeAttempts: maxWriteAttempts,
		writeDelay:    writeRetryDelay,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Run executes one ingestion run end to end. The summary is returned
// and reported in both outcomes; a non-nil error means the run failed
// and the store may hold a partial write set (safe to re-run, ids are
// stable).
func (p *Pipeline) Run(ctx context.Context) (summary *Summary, err error) {
	started := time.Now()
	summary = newSummary()
	defer func() {
		summary.Elapsed = time.Since(started)
		if err != nil {
			summary.State = StateFailed
		}
		summary.WriteReport(p.report)
	}()

	logger := p.logger.With("run", summary.RunID)

	// Provision before fetching anything so a wrong backend or a
	// changed embedding model fails the run while it is still cheap.
	dimensions, err := ai.Dimension(ctx, p.embedder)
	if err != nil {
		return summary, err
	}
	if err := p.store.Provision(ctx, dimensions); err != nil {
		return summary, err
	}
	logger.Info("store provisioned", "dimensions", dimensions)

	summary.State = StateLoading
	docs := p.load(ctx, logger, summary)
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	if len(docs) == 0 {
		if len(summary.Skipped) > 0 {
			return summary, fmt.Errorf("%w: %d error(s)", core.ErrAllSourcesFailed, len(summary.Skipped))
		}
		logger.Info("no documents to ingest")
		summary.State = StateDone
		return summary, nil
	}
	summary.Documents = len(docs)

	summary.State = StateEmbedding
	loadSkips := len(summary.Skipped)
	chunks := p.chunkAndEmbed(ctx, docs, summary)
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	summary.Chunks = len(chunks)
	logger.Info("embedded", "documents", len(docs), "chunks", len(chunks))
	if len(chunks) == 0 && len(summary.Skipped) > loadSkips {
		return summary, fmt.Errorf("%w: every chunk failed", core.ErrEmbedding)
	}

	summary.State = StateWriting
	if err := p.write(ctx, logger, chunks, summary); err != nil {
		return summary, err
	}

	summary.State = StateDone
	logger.Info("run complete",
		"documents", summary.Documents,
		"chunks", summary.Chunks,
		"written", summary.Written,
		"skipped", len(summary.Skipped))
	return summary, nil
}

// load drains every configured loader. Item failures are recorded and
// skipped; how to treat an entirely empty result is the caller's call.
func (p *Pipeline) load(ctx context.Context, logger *slog.Logger, summary *Summary) []*core.Document {
	var docs []*core.Document
	for _, loader := range p.loaders {
		loaded := 0
		for doc, err := range loader.Load(ctx) {
			if err != nil {
				logger.Warn("skipping item", "loader", loader.Name(), "err", err)
				summary.Skipped = append(summary.Skipped, ItemError{Source: loader.Name(), Err: err})
				continue
			}
			if err := core.ValidateDocument(doc); err != nil {
				logger.Warn("skipping invalid document", "loader", loader.Name(), "err", err)
				summary.Skipped = append(summary.Skipped, ItemError{Source: loader.Name(), Err: err})
				continue
			}
			docs = append(docs, doc)
			loaded++
		}
		logger.Info("source loaded", "loader", loader.Name(), "documents", loaded)
	}
	return docs
}

// chunkAndEmbed fans documents out over the worker pool. Results land
// in per-document slots, so output order is stable regardless of
// worker scheduling.
func (p *Pipeline) chunkAndEmbed(ctx context.Context, docs []*core.Document, summary *Summary) []*core.Chunk {
	type result struct {
		chunks  []*core.Chunk
		skipped []ItemError
	}
	results := make([]result, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			kept, skipped := p.embedChunks(ctx, p.chunkDocument(doc))
			results[i] = result{chunks: kept, skipped: skipped}
		})
		if submitErr != nil {
			wg.Done()
			results[i] = result{skipped: []ItemError{{Source: doc.Source, Err: submitErr}}}
		}
	}
	wg.Wait()

	var chunks []*core.Chunk
	for _, r := range results {
		chunks = append(chunks, r.chunks...)
		summary.Skipped = append(summary.Skipped, r.skipped...)
	}
	return chunks
}

// write commits chunks in batches, each wrapped in a bounded retry.
// Re-sending a partially committed batch is safe: ids are stable so
// the second attempt overwrites what the first managed to write.
func (p *Pipeline) write(ctx context.Context, logger *slog.Logger, chunks []*core.Chunk, summary *Summary) error {
	if len(chunks) == 0 {
		return nil
	}

	tracker := newProgressTracker(p.report, len(chunks), progressInterval)
	tracker.start()

	for _, batch := range storage.SplitBatches(chunks, writeBatch) {
		var written int
		err := withRetry(ctx, logger, func() error {
			n, err := p.store.WriteBatch(ctx, batch)
			written = n
			return err
		}, p.writeAttempts, p.writeDelay)

		summary.Written += written
		if err != nil {
			tracker.abandon()
			return fmt.Errorf("write batch: %w", err)
		}
		tracker.increment(written)
	}

	tracker.finish()
	logger.Info("write complete",
		"written", summary.Written,
		"elapsed", tracker.elapsed().Round(time.Millisecond))
	return nil
}

// Release frees the worker pool. The pipeline must not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
