package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribelab/docvec/core"
	"github.com/scribelab/docvec/storage"
)

// newTestStore points a real client at a fake cluster. The product
// header is mandatory or the client rejects every response.
func newTestStore(t *testing.T, handle http.HandlerFunc) *Store {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handle(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{server.URL},
	})
	require.NoError(t, err)

	return newStore(client, "docs")
}

func testChunk(source string, seq int, vec []float32) *core.Chunk {
	chunk := core.NewChunk(source, seq, "content of "+source, map[string]string{"path": source})
	chunk.Vector = vec
	return chunk
}

func TestStoreProvisionCreatesIndex(t *testing.T) {
	var createBody []byte
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/docs":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && r.URL.Path == "/docs":
			createBody, _ = io.ReadAll(r.Body)
			fmt.Fprint(w, `{"acknowledged":true}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	err := store.Provision(context.Background(), 5)
	require.NoError(t, err)
	assert.Contains(t, string(createBody), `"dense_vector"`)
	assert.Contains(t, string(createBody), `"dims": 5`)
	assert.Contains(t, string(createBody), `"similarity": "cosine"`)
}

func TestStoreProvisionExistingIndex(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/docs":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet && r.URL.Path == "/docs/_mapping":
			fmt.Fprint(w, `{"docs":{"mappings":{"properties":{"embedding":{"type":"dense_vector","dims":5}}}}}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	err := store.Provision(context.Background(), 5)
	require.NoError(t, err)
}

func TestStoreProvisionDimensionMismatch(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet:
			fmt.Fprint(w, `{"docs":{"mappings":{"properties":{"embedding":{"type":"dense_vector","dims":512}}}}}`)
		}
	})

	err := store.Provision(context.Background(), 768)
	require.ErrorIs(t, err, storage.ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "512")
}

func TestStoreProvisionMissingEmbeddingMapping(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet:
			fmt.Fprint(w, `{"docs":{"mappings":{"properties":{"content":{"type":"text"}}}}}`)
		}
	})

	err := store.Provision(context.Background(), 8)
	require.ErrorIs(t, err, storage.ErrProvision)
}

func TestStoreProvisionInvalidDimensions(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	err := store.Provision(context.Background(), 0)
	require.ErrorIs(t, err, storage.ErrProvision)
}

func TestStoreWriteBatch(t *testing.T) {
	var bulkBody []byte
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/docs/_bulk", r.URL.Path)
		bulkBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"errors":false,"items":[{"index":{"status":201}},{"index":{"status":201}}]}`)
	})

	first := testChunk("handbook/readme.md", 0, []float32{0.5, -0.25})
	second := testChunk("handbook/readme.md", 1, []float32{1, 2})

	written, err := store.WriteBatch(context.Background(), []*core.Chunk{first, second})
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	lines := strings.Split(strings.TrimSpace(string(bulkBody)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, fmt.Sprintf(`{"index":{"_id":%q}}`, first.Id.Hex()), lines[0])

	var doc document
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	assert.Equal(t, first.Source, doc.Source)
	assert.Equal(t, first.Seq, doc.Seq)
	assert.Equal(t, first.Text, doc.Content)
	assert.Equal(t, first.Metadata, doc.Metadata)
	assert.Equal(t, first.Vector, doc.Embedding)
}

func TestStoreWriteBatchItemError(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":true,"items":[{"index":{"_id":"abc","status":400,"error":{"type":"mapper_parsing_exception","reason":"failed to parse"}}}]}`)
	})

	chunk := testChunk("handbook/readme.md", 0, []float32{1})

	written, err := store.WriteBatch(context.Background(), []*core.Chunk{chunk})
	require.ErrorIs(t, err, storage.ErrWrite)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
	assert.Zero(t, written)
}

func TestStoreWriteBatchServerError(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"boom"}`)
	})

	chunk := testChunk("handbook/readme.md", 0, []float32{1})

	written, err := store.WriteBatch(context.Background(), []*core.Chunk{chunk})
	require.ErrorIs(t, err, storage.ErrWrite)
	assert.Zero(t, written)
}

func TestStoreWriteBatchEmpty(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	written, err := store.WriteBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, written)
}
