// Package qdrant implements storage.VectorStore on a Qdrant
// collection with cosine distance. Point ids reuse the numeric chunk
// id, so upserts from re-runs land on the same points.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/scribelab/docvec/core"
	"github.com/scribelab/docvec/storage"
)

// writeSubBatch caps points per upsert request.
const writeSubBatch = 256

// defaultPort is Qdrant's gRPC port.
const defaultPort = 6334

// Config carries the connection parameters for a Qdrant store.
type Config struct {
	URL        string
	Collection string
}

// Store implements storage.VectorStore on Qdrant.
type Store struct {
	client     *qdrant.Client
	collection string
	logger     *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

// New builds a client for the given Qdrant URL. The server is not
// dialed until Provision.
//
// Returns storage.VectorStore interface to enforce abstraction.
func New(cfg Config) (storage.VectorStore, error) {
	host, port, tls, err := parseAddr(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		UseTLS: tls,
	})
	if err != nil {
		return nil, err
	}
	return newStore(client, cfg.Collection), nil
}

func newStore(client *qdrant.Client, collection string) *Store {
	return &Store{
		client:     client,
		collection: collection,
		logger:     slog.Default().With("component", "storage.qdrant"),
	}
}

// Provision creates the collection when it is missing and otherwise
// verifies the configured vector size.
func (s *Store) Provision(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %d", storage.ErrProvision, dimensions)
	}

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("%w: check collection: %v", storage.ErrProvision, err)
	}

	if !exists {
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("%w: create collection %s: %v", storage.ErrProvision, s.collection, err)
		}
		s.logger.Info("created collection", "collection", s.collection, "dimensions", dimensions)
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("%w: inspect collection: %v", storage.ErrProvision, err)
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return fmt.Errorf("%w: collection %s uses named vectors", storage.ErrProvision, s.collection)
	}

	if existing := int(params.GetSize()); existing != dimensions {
		return fmt.Errorf("%w: collection %s holds %d-dimensional vectors, model produces %d",
			storage.ErrDimensionMismatch, s.collection, existing, dimensions)
	}
	return nil
}

// WriteBatch upserts points keyed by numeric chunk id. Wait is set so
// write failures surface here instead of later.
func (s *Store) WriteBatch(ctx context.Context, chunks []*core.Chunk) (int, error) {
	written := 0
	for _, batch := range storage.SplitBatches(chunks, writeSubBatch) {
		points := make([]*qdrant.PointStruct, len(batch))
		for i, chunk := range batch {
			points[i] = pointFromChunk(chunk)
		}

		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return written, fmt.Errorf("%w: upsert: %v", storage.ErrWrite, err)
		}
		written += len(batch)
	}
	return written, nil
}

// Close closes the underlying gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func pointFromChunk(chunk *core.Chunk) *qdrant.PointStruct {
	payload := map[string]any{
		"content": chunk.Text,
		"source":  chunk.Source,
		"seq":     chunk.Seq,
	}
	if len(chunk.Metadata) > 0 {
		meta := make(map[string]any, len(chunk.Metadata))
		for k, v := range chunk.Metadata {
			meta[k] = v
		}
		payload["metadata"] = meta
	}

	return &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(uint64(chunk.Id)),
		Vectors: qdrant.NewVectors(chunk.Vector...),
		Payload: qdrant.NewValueMap(payload),
	}
}

// parseAddr splits a Qdrant URL into gRPC dial parameters. The port
// defaults to 6334 for both schemes; Qdrant serves gRPC there even
// behind TLS.
func parseAddr(raw string) (host string, port int, tls bool, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("parse qdrant url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", 0, false, fmt.Errorf("parse qdrant url %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Hostname() == "" {
		return "", 0, false, fmt.Errorf("parse qdrant url %q: missing host", raw)
	}

	port = defaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("parse qdrant url %q: bad port: %w", raw, err)
		}
	}
	return u.Hostname(), port, u.Scheme == "https", nil
}
