package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cmc-padron/internal/filter"
	"cmc-padron/internal/record"
	"cmc-padron/internal/specialty"

	"go.uber.org/zap"
)

// PostgresRecordSource 从表或视图读取全部医生记录（列名即字段名，由别名表解析）
type PostgresRecordSource struct {
	db     *sql.DB
	table  string
	logger *zap.Logger
}

// NewPostgresRecordSource table 支持 "schema.table"
func NewPostgresRecordSource(db *sql.DB, table string, logger *zap.Logger) (*PostgresRecordSource, error) {
	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}
	return &PostgresRecordSource{db: db, table: quoted, logger: logger}, nil
}

// FetchRecords 全量读取；筛选在本地进行
func (s *PostgresRecordSource) FetchRecords(ctx context.Context, _ filter.Selection) ([]record.Record, error) {
	query := fmt.Sprintf(`SELECT * FROM %s`, s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	maps, err := scanMaps(rows)
	if err != nil {
		return nil, err
	}
	out := make([]record.Record, len(maps))
	for i, m := range maps {
		out[i] = record.Record(m)
	}
	s.logger.Debug("Records loaded from postgres", zap.String("table", s.table), zap.Int("count", len(out)))
	return out, nil
}

// PostgresSpecialtySource 专科目录表
type PostgresSpecialtySource struct {
	db     *sql.DB
	table  string
	logger *zap.Logger
}

func NewPostgresSpecialtySource(db *sql.DB, table string, logger *zap.Logger) (*PostgresSpecialtySource, error) {
	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}
	return &PostgresSpecialtySource{db: db, table: quoted, logger: logger}, nil
}

// FetchSpecialties 列名宽松：id/identifier/nro_especialidad + nombre/displayName/...
func (s *PostgresSpecialtySource) FetchSpecialties(ctx context.Context) ([]specialty.Entry, error) {
	query := fmt.Sprintf(`SELECT * FROM %s`, s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query specialties: %w", err)
	}
	defer rows.Close()

	maps, err := scanMaps(rows)
	if err != nil {
		return nil, err
	}
	entries := make([]specialty.Entry, 0, len(maps))
	skipped := 0
	for _, m := range maps {
		if e, ok := specialty.EntryFromMap(m); ok {
			entries = append(entries, e)
		} else {
			skipped++
		}
	}
	if skipped > 0 {
		s.logger.Warn("Specialty rows without id or name skipped", zap.Int("skipped", skipped))
	}
	return entries, nil
}
