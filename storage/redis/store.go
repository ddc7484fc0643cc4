// Package redis implements storage.VectorStore on Redis Stack. Chunks
// live in hashes under a per-index key prefix; a RediSearch FLAT
// vector index over that prefix serves similarity search. The vector
// width is recorded under a plain schema key so re-runs with a
// different model are caught at provisioning.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/scribelab/docvec/core"
	"github.com/scribelab/docvec/storage"
)

// writeSubBatch caps hashes per pipeline flush.
const writeSubBatch = 200

// Config carries the connection parameters for a Redis store.
type Config struct {
	URL   string
	Index string
}

// Store implements storage.VectorStore on Redis Stack.
type Store struct {
	client *redis.Client
	index  string
	dim    int
	logger *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

// New builds a client from a redis:// URL. The server is not dialed
// until Provision.
//
// Returns storage.VectorStore interface to enforce abstraction.
func New(cfg Config) (storage.VectorStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	return newStore(redis.NewClient(opts), cfg.Index), nil
}

func newStore(client *redis.Client, index string) *Store {
	return &Store{
		client: client,
		index:  index,
		logger: slog.Default().With("component", "storage.redis"),
	}
}

// Provision creates the search index when the schema key is absent and
// otherwise verifies the recorded vector width.
func (s *Store) Provision(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %d", storage.ErrProvision, dimensions)
	}

	recorded, err := s.client.Get(ctx, s.schemaKey()).Result()
	switch {
	case err == redis.Nil:
		if err := s.createIndex(ctx, dimensions); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("%w: read schema key: %v", storage.ErrProvision, err)
	default:
		existing, err := strconv.Atoi(recorded)
		if err != nil {
			return fmt.Errorf("%w: schema key %s holds %q", storage.ErrProvision, s.schemaKey(), recorded)
		}
		if existing != dimensions {
			return fmt.Errorf("%w: index %s holds %d-dimensional vectors, model produces %d",
				storage.ErrDimensionMismatch, s.index, existing, dimensions)
		}
	}

	s.dim = dimensions
	return nil
}

func (s *Store) createIndex(ctx context.Context, dimensions int) error {
	options := &redis.FTCreateOptions{
		OnHash: true,
		Prefix: []interface{}{s.keyPrefix()},
	}
	schema := []*redis.FieldSchema{
		{FieldName: "content", FieldType: redis.SearchFieldTypeText},
		{FieldName: "source", FieldType: redis.SearchFieldTypeTag},
		{FieldName: "embedding", FieldType: redis.SearchFieldTypeVector,
			VectorArgs: &redis.FTVectorArgs{
				FlatOptions: &redis.FTFlatOptions{
					Type:           "FLOAT32",
					Dim:            dimensions,
					DistanceMetric: "COSINE",
				},
			}},
	}

	err := s.client.FTCreate(ctx, s.index, options, schema...).Err()
	// A crash between FT.CREATE and the schema key write leaves the
	// index behind with no recorded width. Recreate is then expected
	// to collide.
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return fmt.Errorf("%w: create index %s: %v", storage.ErrProvision, s.index, err)
	}

	if err := s.client.Set(ctx, s.schemaKey(), strconv.Itoa(dimensions), 0).Err(); err != nil {
		return fmt.Errorf("%w: write schema key: %v", storage.ErrProvision, err)
	}
	s.logger.Info("created index", "index", s.index, "dimensions", dimensions)
	return nil
}

// WriteBatch upserts chunk hashes, one pipeline per sub-batch.
// RediSearch silently skips vectors whose byte length disagrees with
// the index, so widths are checked up front.
func (s *Store) WriteBatch(ctx context.Context, chunks []*core.Chunk) (int, error) {
	if s.dim == 0 {
		return 0, fmt.Errorf("%w: provision the index before writing", storage.ErrNotProvisioned)
	}
	for _, chunk := range chunks {
		if len(chunk.Vector) != s.dim {
			return 0, fmt.Errorf("%w: chunk %s carries a %d-dimensional vector, index holds %d",
				storage.ErrDimensionMismatch, chunk.Id.Hex(), len(chunk.Vector), s.dim)
		}
	}

	written := 0
	for _, batch := range storage.SplitBatches(chunks, writeSubBatch) {
		_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, chunk := range batch {
				fields, err := hashFields(chunk)
				if err != nil {
					return err
				}
				pipe.HSet(ctx, s.chunkKey(chunk.Id), fields)
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

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) schemaKey() string {
	return s.index + ":schema"
}

func (s *Store) keyPrefix() string {
	return s.index + ":chunk:"
}

func (s *Store) chunkKey(id core.ID) string {
	return s.keyPrefix() + id.Hex()
}

func hashFields(chunk *core.Chunk) (map[string]any, error) {
	meta, err := storage.MetadataJSON(chunk.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: encode metadata for chunk %s: %v",
			storage.ErrSerializationFailed, chunk.Id.Hex(), err)
	}
	return map[string]any{
		"content":   chunk.Text,
		"source":    chunk.Source,
		"seq":       strconv.Itoa(chunk.Seq),
		"metadata":  string(meta),
		"embedding": storage.VectorBytes(chunk.Vector),
	}, nil
}
