package parser

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

var _ Parser = PDF{}

// PDF extracts the plain text stream from a PDF document.
type PDF struct{}

func (PDF) Parse(data []byte) (text string, err error) {
	// The reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf extraction: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf extraction: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf extraction: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("pdf extraction: %w", err)
	}
	return buf.String(), nil
}
