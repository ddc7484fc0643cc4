// Copyright 2025 Scribelab
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package parser extracts plain text from raw document bytes.
//
// Each supported format has one Parser implementation. ForPath selects
// the implementation by file extension; formats without a parser
// surface core.ErrUnsupportedFormat so callers can skip the file and
// continue.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/scribelab/docvec/core"
)

// Parser converts raw document bytes into plain text.
type Parser interface {
	Parse(data []byte) (string, error)
}

// ForPath selects a parser by the path's extension.
// Returns core.ErrUnsupportedFormat when no parser handles the extension.
func ForPath(path string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return PDF{}, nil
	case ".md", ".markdown", ".mdx":
		return Markdown{}, nil
	case ".html", ".htm":
		return &HTML{}, nil
	case ".txt", ".text", ".rst", ".adoc", ".asciidoc":
		return Plain{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, path)
	}
}
