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

// Package docvec wires configuration, document sources, the embedding
// client and a vector store into a ready-to-run ingestion pipeline.
package docvec

import (
	"fmt"
	"log/slog"

	"github.com/scribelab/docvec/ai"
	"github.com/scribelab/docvec/ai/openai"
	"github.com/scribelab/docvec/config"
	"github.com/scribelab/docvec/core"
	"github.com/scribelab/docvec/ingestion"
	"github.com/scribelab/docvec/source"
	"github.com/scribelab/docvec/storage"
	"github.com/scribelab/docvec/storage/badger"
	"github.com/scribelab/docvec/storage/dryrun"
	"github.com/scribelab/docvec/storage/elastic"
	"github.com/scribelab/docvec/storage/pgvector"
	"github.com/scribelab/docvec/storage/qdrant"
	"github.com/scribelab/docvec/storage/redis"
	"github.com/scribelab/docvec/storage/sqlserver"
)

// Ingester bundles the vector store, the embedding client and the
// configured document sources for one run.
type Ingester struct {
	store        storage.VectorStore
	embedder     ai.Embedder
	loaders      []source.Loader
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// IngesterOption configures an Ingester.
type IngesterOption func(*ingesterOptions)

type ingesterOptions struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

// WithEmbedder substitutes the embedding client. The default client
// talks to the OpenAI-compatible service named by the EMBEDDING_*
// settings.
func WithEmbedder(e ai.Embedder) IngesterOption {
	return func(o *ingesterOptions) {
		o.embedder = e
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) IngesterOption {
	return func(o *ingesterOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewIngester assembles an Ingester from the run configuration.
// Scratch is a working directory for source downloads; the caller
// owns its lifetime.
func NewIngester(cfg *config.Config, scratch string, opts ...IngesterOption) (*Ingester, error) {
	options := &ingesterOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(ai.NewConfig(
			ai.WithHost(cfg.EmbeddingHost),
			ai.WithModel(cfg.EmbeddingModel),
			ai.WithAPIKey(cfg.EmbeddingAPIKey),
		))
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	return &Ingester{
		store:        store,
		embedder:     embedder,
		loaders:      Loaders(cfg, scratch, options.logger),
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
		logger:       options.logger,
	}, nil
}

// OpenStore creates the vector store that cfg.DBType selects. The
// backend is not contacted yet; first contact happens when the
// pipeline provisions the store.
func OpenStore(cfg *config.Config) (storage.VectorStore, error) {
	switch cfg.DBType {
	case config.BackendPGVector:
		return pgvector.New(cfg.PGVector.URL, cfg.PGVector.Collection)
	case config.BackendSQLServer:
		return sqlserver.New(sqlserver.Config{
			Host:     cfg.SQLServer.Host,
			Port:     cfg.SQLServer.Port,
			User:     cfg.SQLServer.User,
			Password: cfg.SQLServer.Password,
			Database: cfg.SQLServer.Database,
			Table:    cfg.SQLServer.Table,
		})
	case config.BackendElastic:
		return elastic.New(elastic.Config{
			URL:      cfg.Elastic.URL,
			User:     cfg.Elastic.User,
			Password: cfg.Elastic.Password,
			Index:    cfg.Elastic.Index,
		})
	case config.BackendRedis:
		return redis.New(redis.Config{
			URL:   cfg.Redis.URL,
			Index: cfg.Redis.Index,
		})
	case config.BackendQdrant:
		return qdrant.New(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			Collection: cfg.Qdrant.Collection,
		})
	case config.BackendBadger:
		return badger.New(cfg.Badger.Path)
	case config.BackendDryRun:
		return dryrun.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownBackend, cfg.DBType)
	}
}

// Loaders builds one loader per configured source kind, repositories
// first.
func Loaders(cfg *config.Config, scratch string, logger *slog.Logger) []source.Loader {
	var loaders []source.Loader
	if len(cfg.RepoSources) > 0 {
		loaders = append(loaders, source.NewGitLoader(cfg.RepoSources, scratch, logger))
	}
	if len(cfg.WebSources) > 0 {
		loaders = append(loaders, source.NewWebLoader(cfg.WebSources, scratch, logger))
	}
	return loaders
}

// Store exposes the underlying vector store.
func (ing *Ingester) Store() storage.VectorStore {
	return ing.store
}

// NewPipeline creates an ingestion pipeline over the Ingester's store,
// embedder and sources.
func (ing *Ingester) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{ingestion.WithLogger(ing.logger)}
	return ingestion.NewPipeline(
		ing.store,
		ing.embedder,
		ing.loaders,
		ing.chunkSize,
		ing.chunkOverlap,
		append(base, opts...)...,
	)
}

// Close releases the vector store connection.
func (ing *Ingester) Close() error {
	if err := ing.store.Close(); err != nil {
		ing.logger.Error("error closing vector store", "err", err)
		return err
	}
	return nil
}
