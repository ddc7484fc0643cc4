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


// Package chunker splits document content into bounded, overlapping
// text segments for embedding.
package chunker

import "unicode"

// Split divides content into chunks of at most size runes. Each chunk
// after the first starts exactly overlap runes before the end of the
// previous chunk, so concatenating the chunks minus their overlapped
// prefixes reproduces the original content.
//
// Cut points prefer natural boundaries inside the window: a paragraph
// break, then a sentence end, then any whitespace. A natural cut is
// only taken when it still lands past the overlapped prefix; otherwise
// the window is cut hard at the full size.
//
// Empty content yields nil. Content no longer than size yields a
// single chunk. Callers validate size and overlap up front with
// core.ValidateChunking.
func Split(content string, size, overlap int) []string {
	runes := []rune(content)
	total := len(runes)
	if total == 0 {
		return nil
	}
	if total <= size {
		return []string{content}
	}

	var chunks []string
	start := 0
	for {
		end := start + size
		if end >= total {
			chunks = append(chunks, string(runes[start:total]))
			return chunks
		}

		cut := naturalCut(runes, start, end, overlap)
		if cut < 0 {
			cut = end
		}
		chunks = append(chunks, string(runes[start:cut]))
		start = cut - overlap
	}
}

// naturalCut finds the rightmost preferred boundary in runes[start:end].
// A cut at position c ends the chunk before runes[c]. Candidates below
// start+overlap+1 would stall the splitter and are never returned.
// Returns -1 when no acceptable boundary exists.
func naturalCut(runes []rune, start, end, overlap int) int {
	low := start + overlap + 1

	// Paragraph break: cut after a blank line.
	for c := end; c >= low; c-- {
		if c >= 2 && runes[c-1] == '\n' && runes[c-2] == '\n' {
			return c
		}
	}

	// Sentence end: cut after terminal punctuation followed by space,
	// or after a line break.
	for c := end; c >= low; c-- {
		prev := runes[c-1]
		if prev == '\n' {
			return c
		}
		if (prev == '.' || prev == '!' || prev == '?') && unicode.IsSpace(runes[c]) {
			return c
		}
	}

	// Any whitespace.
	for c := end; c >= low; c-- {
		if unicode.IsSpace(runes[c-1]) {
			return c
		}
	}

	return -1
}
