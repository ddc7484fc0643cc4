package source

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/scribelab/docvec/core"
	"github.com/scribelab/docvec/parser"
)

const userAgent = "docvec/1.0"

// WebLoader fetches configured URLs and yields one document per page.
// URLs ending in .pdf are downloaded into the scratch directory and
// parsed as PDF; everything else is treated as an HTML page.
type WebLoader struct {
	urls    []string
	scratch string
	client  *http.Client
	logger  *slog.Logger
}

// NewWebLoader returns a loader for the given URLs. PDF downloads are
// placed under scratch.
func NewWebLoader(urls []string, scratch string, logger *slog.Logger) *WebLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebLoader{
		urls:    urls,
		scratch: scratch,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger.With("component", "source.web"),
	}
}

// Name identifies the loader in logs and run summaries.
func (w *WebLoader) Name() string { return "web" }

// Load fetches each URL in order. A failed fetch or parse is yielded
// as an error and the remaining URLs are still attempted.
func (w *WebLoader) Load(ctx context.Context) iter.Seq2[*core.Document, error] {
	return func(yield func(*core.Document, error) bool) {
		for _, raw := range w.urls {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}

			w.logger.Info("fetching url", "url", raw)
			doc, err := w.fetchOne(ctx, raw)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if !yield(doc, nil) {
				return
			}
		}
	}
}

func (w *WebLoader) fetchOne(ctx context.Context, raw string) (*core.Document, error) {
	pageURL, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrFetch, raw, err)
	}

	data, err := w.get(ctx, raw)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(strings.ToLower(raw), ".pdf") {
		return w.pdfDocument(raw, pageURL, data)
	}

	title, text, err := parser.Article(data, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", core.ErrUnsupportedFormat, raw, err)
	}

	return &core.Document{
		Source:   raw,
		Title:    title,
		Content:  text,
		Metadata: map[string]string{"url": raw},
	}, nil
}

func (w *WebLoader) get(ctx context.Context, raw string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrFetch, raw, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", core.ErrFetch, raw, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: get %s: status %d", core.ErrFetch, raw, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", core.ErrFetch, raw, err)
	}
	return data, nil
}

// pdfDocument keeps a copy of the downloaded file in the scratch
// directory and extracts its text.
func (w *WebLoader) pdfDocument(raw string, pageURL *url.URL, data []byte) (*core.Document, error) {
	dir := filepath.Join(w.scratch, "web_pdfs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: save %s: %v", core.ErrFetch, raw, err)
	}

	name := path.Base(pageURL.Path)
	if name == "" || name == "." || name == "/" {
		name = "document.pdf"
	}
	file := filepath.Join(dir, name)
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: save %s: %v", core.ErrFetch, raw, err)
	}
	w.logger.Debug("saved pdf", "file", file)

	text, err := parser.PDF{}.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", core.ErrUnsupportedFormat, raw, err)
	}

	return &core.Document{
		Source:   raw,
		Title:    name,
		Content:  text,
		Metadata: map[string]string{"url": raw, "file": name},
	}, nil
}
