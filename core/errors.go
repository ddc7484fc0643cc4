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


package core

import "errors"

// Domain errors. Fatal ones abort a run before or during startup; the
// rest are recorded per item and the run continues.
var (
	// ErrInvalidChunkConfig indicates an unusable chunk size/overlap pair.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

	// ErrUnknownBackend indicates the configured store type matches no backend.
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptySource indicates the Source field is empty.
	ErrEmptySource = errors.New("source cannot be empty")

	// ErrFetch indicates a configured source item could not be retrieved.
	ErrFetch = errors.New("fetch failed")

	// ErrUnsupportedFormat indicates a file format no parser handles.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmbedding indicates embedding generation failed for a chunk.
	ErrEmbedding = errors.New("embedding failed")

	// ErrAllSourcesFailed indicates every configured source failed to load.
	ErrAllSourcesFailed = errors.New("all configured sources failed")
)
