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

// Package badger implements storage.VectorStore on an embedded
// BadgerDB. It needs no external service, which makes it useful for
// local corpora and offline runs. Chunks are stored under id-derived
// keys in the MUS wire format; the provisioned vector width lives
// under a meta key so re-runs can detect a model change.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/scribelab/docvec/core"
	"github.com/scribelab/docvec/storage"
)

// writeSubBatch caps records per transaction, keeping well under
// Badger's transaction size limit.
const writeSubBatch = 1000

// Store implements storage.VectorStore on BadgerDB.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	dim    int
}

var _ storage.VectorStore = (*Store)(nil)

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// New opens a Badger-backed vector store at the given directory,
// creating it if absent.
//
// Returns storage.VectorStore interface to enforce abstraction.
func New(path string) (storage.VectorStore, error) {
	return open(path, false)
}

// NewMemory opens an in-memory store. Nothing is persisted; intended
// for tests.
func NewMemory() (storage.VectorStore, error) {
	return open("", true)
}

func open(path string, inMemory bool) (*Store, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			if err := os.MkdirAll(path, 0o755); err != nil {
				return nil, err
			}
		} else if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", path)
		}
		opts = badger.DefaultOptions(path)
	}

	logger := slog.Default().With("component", "storage.badger")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// Provision records the vector width on first use and verifies it on
// every later run.
func (s *Store) Provision(ctx context.Context, dimensions int) error {
	if s.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %d", storage.ErrProvision, dimensions)
	}

	err := s.db.Update(func(tx *badger.Txn) error {
		item, err := tx.Get(dimensionKey())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return tx.Set(dimensionKey(), []byte(strconv.Itoa(dimensions)))
		}
		if err != nil {
			return fmt.Errorf("%w: %v", storage.ErrProvision, err)
		}

		return item.Value(func(val []byte) error {
			existing, err := strconv.Atoi(string(val))
			if err != nil {
				return fmt.Errorf("%w: corrupt dimension marker %q", storage.ErrProvision, val)
			}
			if existing != dimensions {
				return fmt.Errorf("%w: store holds %d-dimensional vectors, model produces %d",
					storage.ErrDimensionMismatch, existing, dimensions)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.dim = dimensions
	s.logger.Debug("provisioned store", "dimensions", dimensions)
	return nil
}

// WriteBatch upserts chunks under their id-derived keys, one
// transaction per sub-batch.
func (s *Store) WriteBatch(ctx context.Context, chunks []*core.Chunk) (int, error) {
	if s.db.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	if s.dim == 0 {
		return 0, storage.ErrNotProvisioned
	}

	for _, chunk := range chunks {
		if len(chunk.Vector) != s.dim {
			return 0, fmt.Errorf("%w: chunk %s has %d dimensions, store holds %d",
				storage.ErrDimensionMismatch, chunk.Id.Hex(), len(chunk.Vector), s.dim)
		}
	}

	written := 0
	for _, batch := range storage.SplitBatches(chunks, writeSubBatch) {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		err := s.db.Update(func(tx *badger.Txn) error {
			for _, chunk := range batch {
				if err := tx.Set(chunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return written, fmt.Errorf("%w: %v", storage.ErrWrite, err)
		}
		written += len(batch)
	}

	return written, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
