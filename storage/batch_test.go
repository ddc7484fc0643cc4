package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribelab/docvec/core"
)

func makeChunks(n int) []*core.Chunk {
	chunks := make([]*core.Chunk, n)
	for i := range chunks {
		chunks[i] = core.NewChunk("handbook/readme.md", i, "text", nil)
	}
	return chunks
}

func TestSplitBatches(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		size     int
		wantLens []int
	}{
		{"empty input", 0, 10, nil},
		{"single short batch", 3, 10, []int{3}},
		{"exact multiple", 4, 2, []int{2, 2}},
		{"remainder batch", 5, 2, []int{2, 2, 1}},
		{"size one", 3, 1, []int{1, 1, 1}},
		{"non-positive size keeps one batch", 5, 0, []int{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := SplitBatches(makeChunks(tt.n), tt.size)
			require.Len(t, batches, len(tt.wantLens))

			total := 0
			for i, batch := range batches {
				assert.Len(t, batch, tt.wantLens[i])
				for _, c := range batch {
					assert.Equal(t, total, c.Seq, "batches must preserve order")
					total++
				}
			}
			assert.Equal(t, tt.n, total)
		})
	}
}

func TestVectorLiteral(t *testing.T) {
	tests := []struct {
		name string
		vec  []float32
		want string
	}{
		{"empty", nil, "[]"},
		{"single", []float32{1}, "[1]"},
		{"mixed signs", []float32{0.5, -0.25, 1}, "[0.5,-0.25,1]"},
		{"short decimal", []float32{0.1, 0.2}, "[0.1,0.2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VectorLiteral(tt.vec))
		})
	}
}

func TestVectorBytes(t *testing.T) {
	assert.Empty(t, VectorBytes(nil))

	// 1.0 is 0x3F800000, stored little-endian.
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3F}, VectorBytes([]float32{1.0}))

	buf := VectorBytes([]float32{0.25, -2, 3.5})
	assert.Len(t, buf, 12)
}

func TestMetadataJSON(t *testing.T) {
	data, err := MetadataJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	data, err = MetadataJSON(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	data, err = MetadataJSON(map[string]string{"title": "intro.md", "path": "docs/intro.md"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"intro.md","path":"docs/intro.md"}`, string(data))
}
