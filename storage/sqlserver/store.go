// Package sqlserver implements storage.VectorStore on SQL Server's
// native VECTOR type. Provisioning creates the target database when it
// is missing, which needs a short-lived connection to master.
package sqlserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/scribelab/docvec/core"
	"github.com/scribelab/docvec/storage"
)

// writeSubBatch caps rows per transaction. MERGE statements are slow
// enough that large transactions stall the whole run.
const writeSubBatch = 50

// VECTOR(n) columns occupy 8 + 4n bytes, which sys.columns reports as
// max_length.
const vectorHeaderBytes = 8

// Config carries the connection parameters for a SQL Server store.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Table    string
}

// Store implements storage.VectorStore on SQL Server.
type Store struct {
	db       *sql.DB
	table    string
	database string
	dim      int
	logger   *slog.Logger

	// connectMaster opens a connection to the master database for
	// bootstrap. nil skips database creation.
	connectMaster func() (*sql.DB, error)
}

var _ storage.VectorStore = (*Store)(nil)

// New opens a connection pool for the configured database. The server
// is not dialed until Provision.
//
// Returns storage.VectorStore interface to enforce abstraction.
func New(cfg Config) (storage.VectorStore, error) {
	db, err := sql.Open("sqlserver", dsn(cfg, cfg.Database))
	if err != nil {
		return nil, err
	}

	s := newStore(db, cfg.Table)
	s.database = cfg.Database
	s.connectMaster = func() (*sql.DB, error) {
		return sql.Open("sqlserver", dsn(cfg, "master"))
	}
	return s, nil
}

func newStore(db *sql.DB, table string) *Store {
	return &Store{
		db:     db,
		table:  table,
		logger: slog.Default().With("component", "storage.sqlserver"),
	}
}

// Provision creates the database and table if absent and verifies the
// embedding column width.
func (s *Store) Provision(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %d", storage.ErrProvision, dimensions)
	}

	if s.connectMaster != nil {
		if err := s.ensureDatabase(ctx); err != nil {
			return err
		}
	}

	create := fmt.Sprintf(`
IF OBJECT_ID(N%s, N'U') IS NULL
CREATE TABLE %s (
  id        NVARCHAR(32) NOT NULL PRIMARY KEY,
  source    NVARCHAR(1024) NOT NULL,
  seq       INT NOT NULL,
  content   NVARCHAR(MAX) NOT NULL,
  metadata  NVARCHAR(MAX) NULL,
  embedding VECTOR(%d) NOT NULL
)`, quoteLiteral(s.table), quoteIdent(s.table), dimensions)
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("%w: create table: %v", storage.ErrProvision, err)
	}

	if err := s.checkDimensions(ctx, dimensions); err != nil {
		return err
	}

	s.dim = dimensions
	return nil
}

// ensureDatabase creates the target database when DB_ID reports it
// missing. CREATE DATABASE cannot run inside the pool's own database,
// hence the dedicated master connection.
func (s *Store) ensureDatabase(ctx context.Context) error {
	master, err := s.connectMaster()
	if err != nil {
		return fmt.Errorf("%w: connect master: %v", storage.ErrProvision, err)
	}
	defer master.Close()

	stmt := fmt.Sprintf("IF DB_ID(N%s) IS NULL CREATE DATABASE %s",
		quoteLiteral(s.database), quoteIdent(s.database))
	if _, err := master.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%w: create database %s: %v", storage.ErrProvision, s.database, err)
	}
	return nil
}

func (s *Store) checkDimensions(ctx context.Context, dimensions int) error {
	var maxLength int
	err := s.db.QueryRowContext(ctx, `
SELECT c.max_length
FROM sys.columns c
WHERE c.object_id = OBJECT_ID(@Table) AND c.name = 'embedding'
`, sql.Named("Table", s.table)).Scan(&maxLength)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: table %s has no embedding column", storage.ErrProvision, s.table)
	}
	if err != nil {
		return fmt.Errorf("%w: inspect table: %v", storage.ErrProvision, err)
	}

	existing := (maxLength - vectorHeaderBytes) / 4
	if existing != dimensions {
		return fmt.Errorf("%w: table %s holds %d-dimensional vectors, model produces %d",
			storage.ErrDimensionMismatch, s.table, existing, dimensions)
	}
	return nil
}

// WriteBatch upserts chunks keyed by id via MERGE, one transaction per
// sub-batch. Provision must run first so the vector width for the CAST
// is known.
func (s *Store) WriteBatch(ctx context.Context, chunks []*core.Chunk) (int, error) {
	if s.dim == 0 {
		return 0, fmt.Errorf("%w: provision the table before writing", storage.ErrNotProvisioned)
	}

	merge := fmt.Sprintf(`
MERGE %s AS t
USING (SELECT @ID AS id) AS src
ON t.id = src.id
WHEN MATCHED THEN UPDATE SET
  t.source    = @Source,
  t.seq       = @Seq,
  t.content   = @Content,
  t.metadata  = @Metadata,
  t.embedding = CAST(@Embedding AS VECTOR(%d))
WHEN NOT MATCHED THEN INSERT (id, source, seq, content, metadata, embedding)
VALUES (@ID, @Source, @Seq, @Content, @Metadata, CAST(@Embedding AS VECTOR(%d)));
`, quoteIdent(s.table), s.dim, s.dim)

	written := 0
	for _, batch := range storage.SplitBatches(chunks, writeSubBatch) {
		if err := s.writeSubBatch(ctx, merge, batch); err != nil {
			return written, err
		}
		written += len(batch)
	}
	return written, nil
}

func (s *Store) writeSubBatch(ctx context.Context, merge string, batch []*core.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", storage.ErrWrite, err)
	}

	stmt, err := tx.PrepareContext(ctx, merge)
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
			sql.Named("ID", chunk.Id.Hex()),
			sql.Named("Source", chunk.Source),
			sql.Named("Seq", chunk.Seq),
			sql.Named("Content", chunk.Text),
			sql.Named("Metadata", string(meta)),
			sql.Named("Embedding", storage.VectorLiteral(chunk.Vector)),
		)
		if err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("%w: merge chunk %s: %v", storage.ErrWrite, chunk.Id.Hex(), err)
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

func dsn(cfg Config, database string) string {
	query := url.Values{}
	query.Set("database", database)
	query.Set("TrustServerCertificate", "true")
	query.Set("encrypt", "disable")

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// quoteIdent bracket-quotes a T-SQL identifier.
func quoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// quoteLiteral single-quotes a T-SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
