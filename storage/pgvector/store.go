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

// Package pgvector implements storage.VectorStore on PostgreSQL with
// the pgvector extension. One table per collection holds the chunks;
// the embedding column is typed vector(n) with n fixed at provisioning
// time.
package pgvector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"github.com/scribelab/docvec/core"
	"github.com/scribelab/docvec/storage"
)

// writeSubBatch caps rows per transaction.
const writeSubBatch = 500

// Store implements storage.VectorStore on Postgres/pgvector.
type Store struct {
	db     *sql.DB
	table  string
	logger *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

// New opens a connection pool for the given Postgres URL. The server
// is not dialed until Provision.
//
// Returns storage.VectorStore interface to enforce abstraction.
func New(url, table string) (storage.VectorStore, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	return newStore(db, table), nil
}

func newStore(db *sql.DB, table string) *Store {
	return &Store{
		db:     db,
		table:  table,
		logger: slog.Default().With("component", "storage.pgvector"),
	}
}

// Provision installs the extension, creates the table if absent and
// verifies the embedding column width.
func (s *Store) Provision(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %d", storage.ErrProvision, dimensions)
	}

	if _, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("%w: create extension: %v", storage.ErrProvision, err)
	}

	create := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id        TEXT PRIMARY KEY,
  source    TEXT NOT NULL,
  seq       INTEGER NOT NULL,
  content   TEXT NOT NULL,
  metadata  JSONB,
  embedding vector(%d)
)`, pq.QuoteIdentifier(s.table), dimensions)
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("%w: create table: %v", storage.ErrProvision, err)
	}

	return s.checkDimensions(ctx, dimensions)
}

// checkDimensions compares the embedding column's declared width with
// the model's. For pgvector columns atttypmod carries the dimension
// directly.
func (s *Store) checkDimensions(ctx context.Context, dimensions int) error {
	var existing int
	err := s.db.QueryRowContext(ctx, `
SELECT a.atttypmod
FROM pg_attribute a
JOIN pg_class c ON c.oid = a.attrelid
WHERE c.relname = $1 AND a.attname = 'embedding'
`, s.table).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: table %s has no embedding column", storage.ErrProvision, s.table)
	}
	if err != nil {
		return fmt.Errorf("%w: inspect table: %v", storage.ErrProvision, err)
	}

	if existing != dimensions {
		return fmt.Errorf("%w: table %s holds %d-dimensional vectors, model produces %d",
			storage.ErrDimensionMismatch, s.table, existing, dimensions)
	}
	return nil
}

// WriteBatch upserts chunks keyed by id, one transaction per
// sub-batch.
func (s *Store) WriteBatch(ctx context.Context, chunks []*core.Chunk) (int, error) {
	upsert := fmt.Sprintf(`
INSERT INTO %s (id, source, seq, content, metadata, embedding)
VALUES ($1,$2,$3,$4,$5,$6::vector)
ON CONFLICT (id) DO UPDATE SET
  source    = EXCLUDED.source,
  seq       = EXCLUDED.seq,
  content   = EXCLUDED.content,
  metadata  = EXCLUDED.metadata,
  embedding = EXCLUDED.embedding
`, pq.QuoteIdentifier(s.table))

	written := 0
	for _, batch := range storage.SplitBatches(chunks, writeSubBatch) {
		if err := s.writeSubBatch(ctx, upsert, batch); err != nil {
			return written, err
		}
		written += len(batch)
	}
	return written, nil
}

func (s *Store) writeSubBatch(ctx context.Context, upsert string, batch []*core.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", storage.ErrWrite, err)
	}

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: prepare: %v", storage.ErrWrite, err)
	}

	for _, chunk := range batch {
		meta, err := storage.MetadataJSON(chunk.Metadata)
		if err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("%w: encode metadata for chunk %s: %v", storage.ErrWrite, chunk.Id.Hex(), err)
		}

		_, err = stmt.ExecContext(ctx,
			chunk.Id.Hex(),
			chunk.Source,
			chunk.Seq,
			sanitize(chunk.Text),
			meta,
			storage.VectorLiteral(chunk.Vector),
		)
		if err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("%w: upsert chunk %s: %v", storage.ErrWrite, chunk.Id.Hex(), err)
		}
	}

	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %v", storage.ErrWrite, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", storage.ErrWrite, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// sanitize removes NUL bytes, which Postgres TEXT columns reject.
func sanitize(text string) string {
	return strings.ReplaceAll(text, "\x00", "")
}
