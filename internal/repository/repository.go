package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"cmc-padron/internal/filter"
	"cmc-padron/internal/record"

	"github.com/bytedance/sonic"
	"github.com/lib/pq"
)

// RecordSource 医生记录来源
// sel 仅作为下推提示：调用方仍会在本地用 filter.Evaluator 重新求值
type RecordSource interface {
	FetchRecords(ctx context.Context, sel filter.Selection) ([]record.Record, error)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// quoteTable 校验并引用 "schema.table" 形式的表名
func quoteTable(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("invalid table name: %q", name)
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, "."), nil
}

// scanMaps 把任意结果集扫描为 列名 -> 值 的 map
// 文本列 ([]byte) 转为 string；json/jsonb 列解码为 any
func scanMaps(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	jsonCols := make([]bool, len(cols))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, t := range types {
			switch strings.ToUpper(t.DatabaseTypeName()) {
			case "JSON", "JSONB":
				jsonCols[i] = true
			}
		}
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		m := make(map[string]any, len(cols))
		for i, c := range cols {
			m[c] = columnValue(values[i], jsonCols[i])
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return out, nil
}

func columnValue(v any, isJSON bool) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	if isJSON && len(b) > 0 {
		var decoded any
		if err := sonic.Unmarshal(b, &decoded); err == nil {
			return decoded
		}
	}
	return string(b)
}

// envelopeKeys 数据服务常见的列表包装字段
var envelopeKeys = []string{"data", "items", "results", "result", "medicos", "especialidades"}

// extractItems 接受裸数组，或 {"data": [...]} 之类的包装（可嵌套一层 {"data": {"items": [...]}}）
func extractItems(payload any) ([]map[string]any, error) {
	switch v := payload.(type) {
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out, nil
	case map[string]any:
		for _, k := range envelopeKeys {
			if inner, ok := v[k]; ok && inner != nil {
				return extractItems(inner)
			}
		}
		return nil, fmt.Errorf("unexpected response object without list field")
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected response type %T", payload)
}
