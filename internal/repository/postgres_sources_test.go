package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"cmc-padron/internal/filter"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func TestQuoteTable(t *testing.T) {
	q, err := quoteTable("medicos")
	require.NoError(t, err)
	assert.Equal(t, `"medicos"`, q)

	q, err = quoteTable("padron.medicos_v")
	require.NoError(t, err)
	assert.Equal(t, `"padron"."medicos_v"`, q)

	_, err = quoteTable("medicos; DROP TABLE x")
	assert.Error(t, err)
}

func TestPostgresRecordSource_FetchRecords(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	src, err := NewPostgresRecordSource(db, "medicos", zap.NewNop())
	require.NoError(t, err)

	ingreso := time.Date(2010, 3, 4, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("nro_socio").OfType("INT4", int64(0)),
		sqlmock.NewColumn("nombre").OfType("TEXT", ""),
		sqlmock.NewColumn("fecha_ingreso").OfType("DATE", time.Time{}),
		sqlmock.NewColumn("especialidades").OfType("JSONB", []byte(nil)),
	).
		AddRow(int64(101), []byte("Gómez, Ana"), ingreso, []byte(`[{"nombre":"Pediatría"}]`)).
		AddRow(int64(102), []byte("Pérez, Juan"), nil, nil)

	mock.ExpectQuery(`SELECT \* FROM "medicos"`).WillReturnRows(rows)

	records, err := src.FetchRecords(context.Background(), filter.Selection{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, int64(101), records[0]["nro_socio"])
	assert.Equal(t, "Gómez, Ana", records[0]["nombre"])
	assert.Equal(t, ingreso, records[0]["fecha_ingreso"])
	assert.Equal(t, []any{map[string]any{"nombre": "Pediatría"}}, records[0]["especialidades"])
	assert.Nil(t, records[1]["fecha_ingreso"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecordSource_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	src, err := NewPostgresRecordSource(db, "medicos", zap.NewNop())
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("connection refused"))

	_, err = src.FetchRecords(context.Background(), filter.Selection{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query records")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresRecordSource_InvalidTable(t *testing.T) {
	_, err := NewPostgresRecordSource(nil, "1medicos", zap.NewNop())
	assert.Error(t, err)
}

func TestPostgresSpecialtySource_FetchSpecialties(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	src, err := NewPostgresSpecialtySource(db, "especialidades", zap.NewNop())
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"nro_especialidad", "descripcion"}).
		AddRow(int64(3), []byte("Pediatría")).
		AddRow(int64(7), []byte("Cardiología")).
		AddRow(nil, []byte("Sin código"))

	mock.ExpectQuery(`SELECT \* FROM "especialidades"`).WillReturnRows(rows)

	entries, err := src.FetchSpecialties(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "3", entries[0].ID)
	assert.Equal(t, "Pediatría", entries[0].Name)
	assert.Equal(t, "7", entries[1].ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractItems(t *testing.T) {
	items, err := extractItems([]any{map[string]any{"a": 1.0}, "skip"})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = extractItems(map[string]any{"data": map[string]any{"items": []any{map[string]any{"a": 1.0}}}})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = extractItems(map[string]any{"code": 2000})
	assert.Error(t, err)

	_, err = extractItems("text")
	assert.Error(t, err)
}
