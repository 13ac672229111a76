package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/assistant/memory_manager/providers/storer"
)

func newMockStorer(t *testing.T) (*postgresStorer, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return newStorer(conn, storer.NewOptions(storer.WithCollection("memory"))), mock
}

func TestCollections(t *testing.T) {
	s, mock := newMockStorer(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name FROM memory_collections ORDER BY name`)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("memory").AddRow("other"))

	names, err := s.Collections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"memory", "other"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCollection(t *testing.T) {
	s, mock := newMockStorer(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO memory_collections (name) VALUES ($1)`)).
		WithArgs("memory").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.CreateCollection(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert(t *testing.T) {
	s, mock := newMockStorer(t)

	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO memories`).
		WithArgs("memory", "user_1", "hello", []byte(`{"role":"user"}`), sqlmock.AnyArg(), createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Upsert(context.Background(), storer.Record{
		Id:        "user_1",
		Content:   "hello",
		Metadata:  map[string]string{"role": "user"},
		Embedding: []float32{1, 0},
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery(t *testing.T) {
	s, mock := newMockStorer(t)

	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "content", "metadata", "embedding", "distance", "created_at"}).
		AddRow("user_1", "hello", []byte(`{"role":"user"}`), []byte("[1,0]"), 0.0, createdAt).
		AddRow("model_1", "hi", []byte(`{"role":"model"}`), []byte("[0.6,0.8]"), 0.4, createdAt)

	mock.ExpectQuery(`SELECT(.|\n)+FROM memories`).
		WithArgs("memory", sqlmock.AnyArg(), `{"role":"user"}`, 5).
		WillReturnRows(rows)

	got, err := s.Query(context.Background(), []float32{1, 0}, 5, map[string]string{"role": "user"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "user_1", got[0].Id)
	assert.Equal(t, []float32{1, 0}, got[0].Embedding)
	assert.Equal(t, "user", got[0].Metadata["role"])
	assert.InDelta(t, 0.4, got[1].Distance, 1e-6)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryZeroLimit(t *testing.T) {
	s, mock := newMockStorer(t)

	got, err := s.Query(context.Background(), []float32{1}, 0, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIds(t *testing.T) {
	s, mock := newMockStorer(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM memories WHERE collection = $1 ORDER BY created_at, id`)).
		WithArgs("memory").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a").AddRow("b"))

	ids, err := s.Ids(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}
