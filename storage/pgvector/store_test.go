package pgvector

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribelab/docvec/core"
	"github.com/scribelab/docvec/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return newStore(db, "docs"), mock
}

func testChunk(source string, seq int, vec []float32) *core.Chunk {
	chunk := core.NewChunk(source, seq, "content of "+source, map[string]string{"path": source})
	chunk.Vector = vec
	return chunk
}

func TestStoreProvision(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE EXTENSION IF NOT EXISTS vector`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "docs"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT a.atttypmod`)).
		WithArgs("docs").
		WillReturnRows(sqlmock.NewRows([]string{"atttypmod"}).AddRow(8))

	err := store.Provision(context.Background(), 8)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreProvisionDimensionMismatch(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE EXTENSION IF NOT EXISTS vector`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "docs"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT a.atttypmod`)).
		WithArgs("docs").
		WillReturnRows(sqlmock.NewRows([]string{"atttypmod"}).AddRow(512))

	err := store.Provision(context.Background(), 768)
	require.ErrorIs(t, err, storage.ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "512")
	assert.Contains(t, err.Error(), "768")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreProvisionInvalidDimensions(t *testing.T) {
	store, _ := newMockStore(t)

	err := store.Provision(context.Background(), 0)
	require.ErrorIs(t, err, storage.ErrProvision)
}

func TestStoreProvisionExtensionError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE EXTENSION IF NOT EXISTS vector`)).
		WillReturnError(errors.New("permission denied"))

	err := store.Provision(context.Background(), 8)
	require.ErrorIs(t, err, storage.ErrProvision)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreWriteBatch(t *testing.T) {
	store, mock := newMockStore(t)

	first := testChunk("handbook/readme.md", 0, []float32{0.5, -0.25})
	second := testChunk("handbook/readme.md", 1, []float32{1, 2})

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "docs"`))
	prep.ExpectExec().
		WithArgs(first.Id.Hex(), first.Source, first.Seq, first.Text,
			[]byte(`{"path":"handbook/readme.md"}`), "[0.5,-0.25]").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs(second.Id.Hex(), second.Source, second.Seq, second.Text,
			[]byte(`{"path":"handbook/readme.md"}`), "[1,2]").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	written, err := store.WriteBatch(context.Background(), []*core.Chunk{first, second})
	require.NoError(t, err)
	assert.Equal(t, 2, written)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreWriteBatchStripsNUL(t *testing.T) {
	store, mock := newMockStore(t)

	chunk := core.NewChunk("handbook/readme.md", 0, "ab\x00c", nil)
	chunk.Vector = []float32{1}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "docs"`))
	prep.ExpectExec().
		WithArgs(chunk.Id.Hex(), chunk.Source, chunk.Seq, "abc", []byte(`{}`), "[1]").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	written, err := store.WriteBatch(context.Background(), []*core.Chunk{chunk})
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreWriteBatchExecError(t *testing.T) {
	store, mock := newMockStore(t)

	chunk := testChunk("handbook/readme.md", 0, []float32{1})

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "docs"`))
	prep.ExpectExec().
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	written, err := store.WriteBatch(context.Background(), []*core.Chunk{chunk})
	require.ErrorIs(t, err, storage.ErrWrite)
	assert.Zero(t, written)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreWriteBatchEmpty(t *testing.T) {
	store, mock := newMockStore(t)

	written, err := store.WriteBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, written)
	require.NoError(t, mock.ExpectationsWereMet())
}
