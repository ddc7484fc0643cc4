package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribelab/docvec/core"
)

const guideHTML = `<!DOCTYPE html>
<html>
<head><title>Vector Search Guide</title></head>
<body>
<header><nav><a href="/">Home</a> <a href="/blog">Blog</a></nav></header>
<article>
<h1>Vector Search Guide</h1>
<p>Vector search retrieves documents by comparing embedding vectors
instead of matching keywords. Each document is mapped to a point in a
high dimensional space, and queries are answered by finding the nearest
points under a distance metric such as cosine similarity.</p>
<p>To build an index, the corpus is first split into chunks small enough
for the embedding model to represent faithfully. Each chunk is embedded
and stored together with its vector in a database that supports
approximate nearest neighbor lookups.</p>
<p>At query time the same embedding model encodes the query text, and
the database returns the chunks whose vectors lie closest to the query
vector. The quality of the results depends heavily on how the corpus
was chunked and which model produced the embeddings.</p>
</article>
<footer>Copyright notice and unrelated boilerplate text.</footer>
</body>
</html>`

func TestWebLoader_LoadHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(guideHTML))
	}))
	defer srv.Close()

	loader := NewWebLoader([]string{srv.URL + "/guide"}, t.TempDir(), nil)

	docs, errs := collect(t, context.Background(), loader)
	require.Empty(t, errs)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, srv.URL+"/guide", doc.Source)
	assert.Equal(t, "Vector Search Guide", doc.Title)
	assert.Contains(t, doc.Content, "approximate nearest neighbor")
	assert.NotContains(t, doc.Content, "<p>")
	assert.Equal(t, srv.URL+"/guide", doc.Metadata["url"])
}

func TestWebLoader_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	loader := NewWebLoader([]string{srv.URL + "/missing"}, t.TempDir(), nil)

	docs, errs := collect(t, context.Background(), loader)
	assert.Empty(t, docs)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], core.ErrFetch)
	assert.ErrorContains(t, errs[0], "status 404")
}

func TestWebLoader_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	loader := NewWebLoader([]string{url}, t.TempDir(), nil)

	docs, errs := collect(t, context.Background(), loader)
	assert.Empty(t, docs)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], core.ErrFetch)
}

func TestWebLoader_PartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(guideHTML))
	}))
	defer srv.Close()

	loader := NewWebLoader([]string{srv.URL + "/down", srv.URL + "/guide"}, t.TempDir(), nil)

	docs, errs := collect(t, context.Background(), loader)
	require.Len(t, docs, 1)
	assert.Equal(t, srv.URL+"/guide", docs[0].Source)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], core.ErrFetch)
}

// A .pdf URL is downloaded into the scratch directory even when the
// payload later fails to parse.
func TestWebLoader_PDFDownloadSaved(t *testing.T) {
	payload := []byte("%PDF-1.4 definitely not a real document")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	scratch := t.TempDir()
	loader := NewWebLoader([]string{srv.URL + "/paper.pdf"}, scratch, nil)

	docs, errs := collect(t, context.Background(), loader)
	assert.Empty(t, docs)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], core.ErrUnsupportedFormat)

	saved, err := os.ReadFile(filepath.Join(scratch, "web_pdfs", "paper.pdf"))
	require.NoError(t, err)
	assert.Equal(t, payload, saved)
}

func TestWebLoader_ContextCanceled(t *testing.T) {
	loader := NewWebLoader([]string{"http://localhost:1/never"}, t.TempDir(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docs, errs := collect(t, ctx, loader)
	assert.Empty(t, docs)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
}
