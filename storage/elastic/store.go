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

// Package elastic implements storage.VectorStore on an Elasticsearch
// index with a dense_vector field. Chunks are indexed with the bulk
// API, keyed by chunk id so re-runs overwrite.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/scribelab/docvec/core"
	"github.com/scribelab/docvec/storage"
)

// writeSubBatch caps documents per bulk request.
const writeSubBatch = 500

// Config carries the connection parameters for an Elasticsearch store.
type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

// Store implements storage.VectorStore on Elasticsearch.
type Store struct {
	client *elasticsearch.Client
	index  string
	logger *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

// document is the indexed shape of a chunk.
type document struct {
	Source    string            `json:"source"`
	Seq       int               `json:"seq"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Embedding []float32         `json:"embedding"`
}

// New builds a client for the given cluster. The cluster is not dialed
// until Provision.
//
// Returns storage.VectorStore interface to enforce abstraction.
func New(cfg Config) (storage.VectorStore, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, err
	}
	return newStore(client, cfg.Index), nil
}

func newStore(client *elasticsearch.Client, index string) *Store {
	return &Store{
		client: client,
		index:  index,
		logger: slog.Default().With("component", "storage.elastic"),
	}
}

// Provision creates the index with a dense_vector mapping when it is
// missing, and otherwise verifies the mapped dims.
func (s *Store) Provision(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %d", storage.ErrProvision, dimensions)
	}

	exists, err := s.indexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return s.checkDimensions(ctx, dimensions)
	}
	return s.createIndex(ctx, dimensions)
}

func (s *Store) indexExists(ctx context.Context) (bool, error) {
	res, err := s.client.Indices.Exists([]string{s.index},
		s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("%w: check index: %v", storage.ErrProvision, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: check index: status %d", storage.ErrProvision, res.StatusCode)
	}
}

func (s *Store) createIndex(ctx context.Context, dimensions int) error {
	mapping := fmt.Sprintf(`{
  "mappings": {
    "properties": {
      "source":    {"type": "keyword"},
      "seq":       {"type": "integer"},
      "content":   {"type": "text"},
      "embedding": {"type": "dense_vector", "dims": %d, "index": true, "similarity": "cosine"}
    }
  }
}`, dimensions)

	res, err := s.client.Indices.Create(s.index,
		s.client.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
		s.client.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: create index: %v", storage.ErrProvision, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: create index %s: status %d", storage.ErrProvision, s.index, res.StatusCode)
	}
	s.logger.Info("created index", "index", s.index, "dimensions", dimensions)
	return nil
}

func (s *Store) checkDimensions(ctx context.Context, dimensions int) error {
	res, err := s.client.Indices.GetMapping(
		s.client.Indices.GetMapping.WithIndex(s.index),
		s.client.Indices.GetMapping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: get mapping: %v", storage.ErrProvision, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: get mapping for %s: status %d", storage.ErrProvision, s.index, res.StatusCode)
	}

	// Keyed by concrete index name, which may differ from s.index when
	// an alias is configured.
	var payload map[string]struct {
		Mappings struct {
			Properties map[string]struct {
				Type string `json:"type"`
				Dims int    `json:"dims"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return fmt.Errorf("%w: decode mapping: %v", storage.ErrProvision, err)
	}

	for _, index := range payload {
		embedding, ok := index.Mappings.Properties["embedding"]
		if !ok || embedding.Type != "dense_vector" {
			return fmt.Errorf("%w: index %s has no dense_vector embedding mapping", storage.ErrProvision, s.index)
		}
		if embedding.Dims != dimensions {
			return fmt.Errorf("%w: index %s holds %d-dimensional vectors, model produces %d",
				storage.ErrDimensionMismatch, s.index, embedding.Dims, dimensions)
		}
		return nil
	}
	return fmt.Errorf("%w: no mapping returned for index %s", storage.ErrProvision, s.index)
}

// WriteBatch bulk-indexes chunks keyed by id.
func (s *Store) WriteBatch(ctx context.Context, chunks []*core.Chunk) (int, error) {
	written := 0
	for _, batch := range storage.SplitBatches(chunks, writeSubBatch) {
		if err := s.bulkIndex(ctx, batch); err != nil {
			return written, err
		}
		written += len(batch)
	}
	return written, nil
}

func (s *Store) bulkIndex(ctx context.Context, batch []*core.Chunk) error {
	var buf bytes.Buffer
	for _, chunk := range batch {
		action := fmt.Sprintf(`{"index":{"_id":%q}}`, chunk.Id.Hex())
		buf.WriteString(action)
		buf.WriteByte('\n')

		doc, err := json.Marshal(document{
			Source:    chunk.Source,
			Seq:       chunk.Seq,
			Content:   chunk.Text,
			Metadata:  chunk.Metadata,
			Embedding: chunk.Vector,
		})
		if err != nil {
			return fmt.Errorf("%w: encode chunk %s: %v", storage.ErrSerializationFailed, chunk.Id.Hex(), err)
		}
		buf.Write(doc)
		buf.WriteByte('\n')
	}

	res, err := s.client.Bulk(bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithIndex(s.index),
		s.client.Bulk.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: bulk: %v", storage.ErrWrite, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: bulk: status %d", storage.ErrWrite, res.StatusCode)
	}
	return decodeBulkResponse(res.Body)
}

// decodeBulkResponse surfaces the first per-item failure. The bulk API
// answers 200 even when individual actions are rejected.
func decodeBulkResponse(body io.Reader) error {
	var payload struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return fmt.Errorf("%w: decode bulk response: %v", storage.ErrWrite, err)
	}
	if !payload.Errors {
		return nil
	}

	for _, item := range payload.Items {
		for _, result := range item {
			if result.Error != nil {
				return fmt.Errorf("%w: index chunk %s: %s: %s",
					storage.ErrWrite, result.ID, result.Error.Type, result.Error.Reason)
			}
		}
	}
	return fmt.Errorf("%w: bulk reported errors", storage.ErrWrite)
}

// Close is a no-op. The client holds no resources beyond pooled HTTP
// connections.
func (s *Store) Close() error {
	return nil
}
