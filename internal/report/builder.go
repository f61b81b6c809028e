package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cmc-padron/internal/record"

	"go.uber.org/zap"
)

// Format 导出格式
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	ErrNoColumns     = errors.New("no export columns selected")
	ErrUnknownFormat = errors.New("unknown export format")
)

// ParseFormat 大小写不敏感；"excel" 视为 xlsx
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType MIME 类型
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return ContentTypeXLSX
	}
	return ContentTypeCSV
}

// FileName padron_<yyyymmdd_hhmm>.<ext>
func (f Format) FileName(at time.Time) string {
	return fmt.Sprintf("padron_%s.%s", at.Format("20060102_1504"), string(f))
}

// Options 报表页眉（仅 XLSX 使用）
type Options struct {
	Title       string
	Subtitle    string
	Logo        []byte
	GeneratedAt time.Time
	SheetName   string
}

// Output 生成结果
type Output struct {
	Data        []byte
	ContentType string
	FileName    string
	Rows        int
	Warnings    []string
}

// Builder CSV / XLSX 报表生成器（无状态，可并发使用）
type Builder struct {
	formatter *CellFormatter
	logger    *zap.Logger
	now       func() time.Time
}

func NewBuilder(formatter *CellFormatter, logger *zap.Logger) *Builder {
	if formatter == nil {
		formatter = NewCellFormatter(nil, nil, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{formatter: formatter, logger: logger, now: time.Now}
}

// Build 生成文件内容；columns 为空时返回 ErrNoColumns（最先检查）
func (b *Builder) Build(format Format, columns []Column, rows []record.Record, opts Options) ([]byte, error) {
	out, err := b.BuildReport(format, columns, rows, opts)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// BuildReport 同 Build，另外返回文件名、MIME 和非致命警告
func (b *Builder) BuildReport(format Format, columns []Column, rows []record.Record, opts Options) (*Output, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = b.now()
	}

	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = b.formatter.Row(r, columns)
	}

	out := &Output{
		ContentType: format.ContentType(),
		FileName:    format.FileName(opts.GeneratedAt),
		Rows:        len(rows),
	}
	switch format {
	case FormatCSV:
		out.Data = b.buildCSV(columns, cells)
	case FormatXLSX:
		data, warnings, err := b.buildXLSX(columns, cells, opts)
		if err != nil {
			return nil, err
		}
		out.Data = data
		out.Warnings = warnings
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}

	b.logger.Debug("Report built",
		zap.String("format", string(format)),
		zap.Int("columns", len(columns)),
		zap.Int("rows", len(rows)),
		zap.Int("bytes", len(out.Data)),
	)
	return out, nil
}
