package repository

import (
	"context"
	"fmt"
	"time"

	"cmc-padron/internal/filter"
	"cmc-padron/internal/record"
	"cmc-padron/internal/specialty"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// NewRESTClient 数据服务客户端（sonic 作为 JSON 编解码器）
func NewRESTClient(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetHeader("Accept", "application/json")
}

// getList GET path 并取出对象列表
func getList(ctx context.Context, client *resty.Client, path string, params map[string][]string) ([]map[string]any, error) {
	req := client.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParamsFromValues(params)
	}
	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s returned status %d", path, resp.StatusCode())
	}
	var payload any
	if err := sonic.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	items, err := extractItems(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", path, err)
	}
	return items, nil
}

// RESTRecordSource 通过数据服务读取记录；Selection 编码为查询参数供服务端预筛
type RESTRecordSource struct {
	client *resty.Client
	path   string
	logger *zap.Logger
}

func NewRESTRecordSource(client *resty.Client, path string, logger *zap.Logger) *RESTRecordSource {
	return &RESTRecordSource{client: client, path: path, logger: logger}
}

func (s *RESTRecordSource) FetchRecords(ctx context.Context, sel filter.Selection) ([]record.Record, error) {
	params, err := filter.Encode(sel)
	if err != nil {
		return nil, err
	}
	items, err := getList(ctx, s.client, s.path, params)
	if err != nil {
		s.logger.Error("Record service call failed", zap.String("path", s.path), zap.Error(err))
		return nil, err
	}
	out := make([]record.Record, len(items))
	for i, m := range items {
		out[i] = record.Record(m)
	}
	s.logger.Debug("Records loaded from data service", zap.String("path", s.path), zap.Int("count", len(out)))
	return out, nil
}

// RESTSpecialtySource 专科目录接口：[{id, nombre}]，也接受 identifier/displayName
type RESTSpecialtySource struct {
	client *resty.Client
	path   string
	logger *zap.Logger
}

func NewRESTSpecialtySource(client *resty.Client, path string, logger *zap.Logger) *RESTSpecialtySource {
	return &RESTSpecialtySource{client: client, path: path, logger: logger}
}

func (s *RESTSpecialtySource) FetchSpecialties(ctx context.Context) ([]specialty.Entry, error) {
	items, err := getList(ctx, s.client, s.path, nil)
	if err != nil {
		s.logger.Warn("Specialty service call failed", zap.String("path", s.path), zap.Error(err))
		return nil, err
	}
	entries := make([]specialty.Entry, 0, len(items))
	for _, m := range items {
		if e, ok := specialty.EntryFromMap(m); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
