package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

var _ Parser = (*HTML)(nil)

// HTML extracts the readable article text from an HTML page, stripping
// navigation, boilerplate and markup.
type HTML struct {
	// PageURL resolves relative references during extraction.
	// Optional; a placeholder is used when unset.
	PageURL *url.URL
}

func (h *HTML) Parse(data []byte) (string, error) {
	_, text, err := Article(data, h.PageURL)
	return text, err
}

// Article runs readability extraction and returns both the page title
// and the article text.
func Article(data []byte, pageURL *url.URL) (title, text string, err error) {
	if pageURL == nil {
		pageURL = &url.URL{Scheme: "http", Host: "localhost"}
	}

	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return "", "", fmt.Errorf("readability extraction: %w", err)
	}
	return article.Title, strings.TrimSpace(article.TextContent), nil
}
