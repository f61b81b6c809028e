package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cmc-padron/internal/filter"
	"cmc-padron/internal/record"
	"cmc-padron/internal/report"
	"cmc-padron/internal/repository"
	"cmc-padron/internal/specialty"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// ErrInvalidRequest 请求参数错误（HTTP 400）
var ErrInvalidRequest = errors.New("invalid request")

// LogoSource 下载页眉 logo
type LogoSource interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ExportRequest 导出请求
type ExportRequest struct {
	Format       string           `json:"format"`
	Selection    filter.Selection `json:"selection"`
	Title        string           `json:"title"`
	Subtitle     string           `json:"subtitle"`
	LogoURL      string           `json:"logo_url"`
	AwaitCatalog bool             `json:"await_catalog"`
}

// ExportResult 导出结果
type ExportResult struct {
	ID          string
	FileName    string
	ContentType string
	Data        []byte
	Rows        int
	Warnings    []string
}

// ListResult 分页后的筛选结果
type ListResult struct {
	Items []record.Record `json:"items"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

// ExportOptions 默认页眉与目录等待上限
type ExportOptions struct {
	Title        string
	Subtitle     string
	LogoURL      string
	AwaitTimeout time.Duration
	Location     *time.Location
}

// ExportService 校验 -> 等待目录 -> 读取 -> 筛选 -> logo -> 生成
type ExportService struct {
	records   repository.RecordSource
	evaluator *filter.Evaluator
	builder   *report.Builder
	catalog   *specialty.Catalog
	logos     LogoSource
	opts      ExportOptions
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService catalog 与 logos 可以为 nil
func NewExportService(
	records repository.RecordSource,
	evaluator *filter.Evaluator,
	builder *report.Builder,
	catalog *specialty.Catalog,
	logos LogoSource,
	opts ExportOptions,
	logger *zap.Logger,
) *ExportService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &ExportService{
		records:   records,
		evaluator: evaluator,
		builder:   builder,
		catalog:   catalog,
		logos:     logos,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// List 筛选并分页（page 从 1 开始）
func (s *ExportService) List(ctx context.Context, sel filter.Selection, page, size int) (*ListResult, error) {
	listRequests.Inc()
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	matched, err := s.fetchAndFilter(ctx, sel)
	if err != nil {
		return nil, err
	}

	res := &ListResult{Total: len(matched), Page: page, Size: size, Items: []record.Record{}}
	start := (page - 1) * size
	if start < len(matched) {
		end := start + size
		if end > len(matched) {
			end = len(matched)
		}
		res.Items = matched[start:end]
	}
	return res, nil
}

// Export 生成 CSV / XLSX；列为空时在读取数据之前返回 report.ErrNoColumns
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	started := time.Now()
	exportID := uuid.New().String()

	formatName := req.Format
	if strings.TrimSpace(formatName) == "" {
		formatName = string(report.FormatCSV)
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		exportsTotal.WithLabelValues("unknown", "invalid").Inc()
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	columns, err := report.Columns(req.Selection.Columns)
	if err != nil {
		exportsTotal.WithLabelValues(string(format), "invalid").Inc()
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	var warnings []string
	if req.AwaitCatalog {
		if w := s.awaitCatalog(ctx); w != "" {
			warnings = append(warnings, w)
		}
	}

	matched, err := s.fetchAndFilter(ctx, req.Selection)
	if err != nil {
		exportsTotal.WithLabelValues(string(format), "error").Inc()
		return nil, err
	}

	opts := report.Options{
		Title:       firstNonEmpty(req.Title, s.opts.Title),
		Subtitle:    firstNonEmpty(req.Subtitle, s.opts.Subtitle),
		GeneratedAt: s.now().In(s.opts.Location),
	}
	if format == report.FormatXLSX {
		logo, w := s.fetchLogo(ctx, firstNonEmpty(req.LogoURL, s.opts.LogoURL))
		opts.Logo = logo
		if w != "" {
			warnings = append(warnings, w)
		}
	}

	out, err := s.builder.BuildReport(format, columns, matched, opts)
	if err != nil {
		exportsTotal.WithLabelValues(string(format), "error").Inc()
		return nil, fmt.Errorf("failed to build report: %w", err)
	}
	warnings = append(warnings, out.Warnings...)

	exportsTotal.WithLabelValues(string(format), "ok").Inc()
	exportDuration.WithLabelValues(string(format)).Observe(time.Since(started).Seconds())
	exportRows.Observe(float64(out.Rows))

	s.logger.Info("Export generated",
		zap.String("export_id", exportID),
		zap.String("format", string(format)),
		zap.Int("rows", out.Rows),
		zap.Int("columns", len(columns)),
		zap.Strings("warnings", warnings),
	)

	return &ExportResult{
		ID:          exportID,
		FileName:    out.FileName,
		ContentType: out.ContentType,
		Data:        out.Data,
		Rows:        out.Rows,
		Warnings:    warnings,
	}, nil
}

// QueryString Selection 的扁平查询字符串（供外部服务端筛选）
func (s *ExportService) QueryString(sel filter.Selection) (string, error) {
	values, err := filter.Encode(sel)
	if err != nil {
		return "", err
	}
	return values.Encode(), nil
}

func (s *ExportService) fetchAndFilter(ctx context.Context, sel filter.Selection) ([]record.Record, error) {
	records, err := s.records.FetchRecords(ctx, sel)
	if err != nil {
		s.logger.Error("Failed to fetch records", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}
	matched := s.evaluator.Apply(records, sel)
	s.logger.Debug("Records filtered", zap.Int("fetched", len(records)), zap.Int("matched", len(matched)))
	return matched, nil
}

// awaitCatalog 等待目录就绪，超时后继续（专科以原始编号显示）
func (s *ExportService) awaitCatalog(ctx context.Context) string {
	if s.catalog == nil || s.catalog.Ready() || s.opts.AwaitTimeout <= 0 {
		return ""
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.opts.AwaitTimeout)
	defer cancel()
	if err := s.catalog.Wait(waitCtx); err != nil {
		catalogWaitTimeouts.Inc()
		s.logger.Warn("Specialty catalog not ready, exporting raw ids", zap.Duration("waited", s.opts.AwaitTimeout))
		return "catálogo de especialidades no disponible: se muestran los códigos"
	}
	return ""
}

func (s *ExportService) fetchLogo(ctx context.Context, url string) ([]byte, string) {
	if url == "" || s.logos == nil {
		return nil, ""
	}
	logo, err := s.logos.Fetch(ctx, url)
	if err != nil {
		s.logger.Warn("Report logo unavailable", zap.String("url", url), zap.Error(err))
		return nil, fmt.Sprintf("logo omitido: %v", err)
	}
	return logo, ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
