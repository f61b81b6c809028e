package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// maxLogoBytes 超过该大小的 logo 被拒绝
const maxLogoBytes = 2 << 20

// LogoFetcher 下载报表页眉 logo
type LogoFetcher struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewLogoFetcher timeout 为单次请求超时；失败重试 2 次
func NewLogoFetcher(timeout time.Duration, logger *zap.Logger) *LogoFetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(1 * time.Second).
		SetHeader("Accept", "image/png, image/jpeg, image/gif")
	return &LogoFetcher{httpClient: client, logger: logger}
}

// Fetch 返回图片字节；url 为空时返回 nil, nil
func (l *LogoFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, nil
	}
	resp, err := l.httpClient.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		l.logger.Warn("Logo download failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("failed to download logo: %w", err)
	}
	if resp.IsError() {
		l.logger.Warn("Logo download returned error status",
			zap.String("url", url),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("failed to download logo: status %d", resp.StatusCode())
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("failed to download logo: empty body")
	}
	if len(body) > maxLogoBytes {
		return nil, fmt.Errorf("logo too large: %d bytes", len(body))
	}
	return body, nil
}
