package dryrun

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribelab/docvec/core"
	"github.com/scribelab/docvec/storage"
)

func chunkWithText(seq int, text string) *core.Chunk {
	return core.NewChunk("handbook/readme.md", seq, text, map[string]string{"title": "readme.md"})
}

func TestStore_PrintsPreview(t *testing.T) {
	var buf bytes.Buffer
	s := NewWithWriter(&buf)
	ctx := context.Background()

	require.NoError(t, s.Provision(ctx, 8))
	written, err := s.WriteBatch(ctx, []*core.Chunk{
		chunkWithText(0, "first chunk"),
		chunkWithText(1, "second chunk"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, written)
	require.NoError(t, s.Close())

	out := buf.String()
	assert.Contains(t, out, "=== Dry Run Output ===")
	assert.Contains(t, out, "--- Chunk 1 ---")
	assert.Contains(t, out, "first chunk")
	assert.Contains(t, out, "--- Chunk 2 ---")
	assert.Contains(t, out, "Metadata: map[title:readme.md]")
	assert.Contains(t, out, "=== End Dry Run ===")
	assert.NotContains(t, out, "more chunk(s) not shown")
}

func TestStore_CapsPreview(t *testing.T) {
	var buf bytes.Buffer
	s := NewWithWriter(&buf)
	ctx := context.Background()
	require.NoError(t, s.Provision(ctx, 8))

	// Two batches; the cap applies across the whole run.
	var first, second []*core.Chunk
	for i := 0; i < 7; i++ {
		first = append(first, chunkWithText(i, "batch one"))
	}
	for i := 7; i < 13; i++ {
		second = append(second, chunkWithText(i, "batch two"))
	}

	written, err := s.WriteBatch(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 7, written)
	written, err = s.WriteBatch(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 6, written)
	require.NoError(t, s.Close())

	out := buf.String()
	assert.Contains(t, out, "--- Chunk 10 ---")
	assert.NotContains(t, out, "--- Chunk 11 ---")
	assert.Contains(t, out, "...and 3 more chunk(s) not shown.")
}

func TestStore_TruncatesLongContent(t *testing.T) {
	var buf bytes.Buffer
	s := NewWithWriter(&buf)
	ctx := context.Background()
	require.NoError(t, s.Provision(ctx, 8))

	long := strings.Repeat("z", 400)
	chunk := core.NewChunk("handbook/readme.md", 0, long, nil)
	_, err := s.WriteBatch(ctx, []*core.Chunk{chunk})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Equal(t, 300, strings.Count(buf.String(), "z"))
}

func TestStore_CloseWithoutWrites(t *testing.T) {
	var buf bytes.Buffer
	s := NewWithWriter(&buf)

	require.NoError(t, s.Provision(context.Background(), 8))
	require.NoError(t, s.Close())
	assert.Empty(t, buf.String())
}

func TestStore_ProvisionInvalidDimensions(t *testing.T) {
	s := NewWithWriter(&bytes.Buffer{})
	err := s.Provision(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrProvision)
}
