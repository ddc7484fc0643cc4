package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/scribelab/docvec/ai"
	"github.com/scribelab/docvec/chunker"
	"github.com/scribelab/docvec/core"
)

// chunkDocument splits one document into chunks. Each chunk gets its
// own copy of the document metadata with the title folded in, so
// chunks never share maps.
func (p *Pipeline) chunkDocument(doc *core.Document) []*core.Chunk {
	pieces := chunker.Split(doc.Content, p.chunkSize, p.chunkOverlap)

	chunks := make([]*core.Chunk, len(pieces))
	for i, text := range pieces {
		metadata := make(map[string]string, len(doc.Metadata)+1)
		for k, v := range doc.Metadata {
			metadata[k] = v
		}
		if doc.Title != "" {
			metadata["title"] = doc.Title
		}
		chunks[i] = core.NewChunk(doc.Source, i, text, metadata)
	}
	return chunks
}

// embedChunks embeds a document's chunks in one call, falling back to
// chunk-at-a-time when the batch fails so one bad chunk does not drop
// the whole document. Kept vectors are unit-normalized. Returns the
// embedded chunks and the failures.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []*core.Chunk) ([]*core.Chunk, []ItemError) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err == nil && len(vectors) == len(chunks) {
		for i := range chunks {
			chunks[i].Vector = ai.Normalize(vectors[i])
		}
		return chunks, nil
	}
	if err == nil {
		err = fmt.Errorf("%w: received %d vectors for %d chunks", core.ErrEmbedding, len(vectors), len(chunks))
	}
	p.logger.Warn("batch embedding failed, retrying chunk by chunk",
		"source", chunks[0].Source, "err", err)

	var kept []*core.Chunk
	var skipped []ItemError
	for _, chunk := range chunks {
		vector, err := p.embedder.EmbedText(ctx, chunk.Text)
		if err != nil {
			if !errors.Is(err, core.ErrEmbedding) {
				err = fmt.Errorf("%w: %v", core.ErrEmbedding, err)
			}
			skipped = append(skipped, ItemError{
				Source: fmt.Sprintf("%s#%d", chunk.Source, chunk.Seq),
				Err:    err,
			})
			continue
		}
		chunk.Vector = ai.Normalize(vector)
		kept = append(kept, chunk)
	}
	return kept, skipped
}
