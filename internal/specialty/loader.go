package specialty

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cmc-padron/internal/store"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Source 外部专科目录来源（数据库或 REST 服务）
type Source interface {
	FetchSpecialties(ctx context.Context) ([]Entry, error)
}

// LoaderOptions 目录加载配置
type LoaderOptions struct {
	SnapshotKey string        // Redis 快照键
	SnapshotTTL time.Duration // 快照 TTL（0 = 不过期）
	Interval    time.Duration // 定时刷新间隔（0 = 只加载一次）
}

// Loader 从 Source 加载目录；来源失败时回退到 KV 中的快照
type Loader struct {
	catalog *Catalog
	source  Source
	kv      store.KV
	opts    LoaderOptions
	logger  *zap.Logger

	mu sync.Mutex // 串行化 Refresh（HTTP 与 MQTT 可能同时触发）
}

// NewLoader kv 可以为 nil（不使用快照）
func NewLoader(catalog *Catalog, source Source, kv store.KV, opts LoaderOptions, logger *zap.Logger) *Loader {
	if opts.SnapshotKey == "" {
		opts.SnapshotKey = "padron:especialidades"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		catalog: catalog,
		source:  source,
		kv:      kv,
		opts:    opts,
		logger:  logger,
	}
}

func (l *Loader) Catalog() *Catalog { return l.catalog }

// Refresh 重新加载目录，返回加载的条目数
func (l *Loader) Refresh(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.fetch(ctx)
	if err != nil {
		l.logger.Warn("Failed to fetch specialty catalog, trying snapshot", zap.Error(err))
		cached, cerr := l.loadSnapshot(ctx)
		if cerr != nil || len(cached) == 0 {
			return 0, fmt.Errorf("failed to load specialty catalog: %w", err)
		}
		l.catalog.Replace(cached)
		l.logger.Info("Specialty catalog loaded from snapshot", zap.Int("count", l.catalog.Len()))
		return l.catalog.Len(), nil
	}

	l.catalog.Replace(entries)
	if err := l.saveSnapshot(ctx, entries); err != nil {
		l.logger.Warn("Failed to save specialty catalog snapshot", zap.Error(err))
	}
	l.logger.Info("Specialty catalog loaded", zap.Int("count", l.catalog.Len()))
	return l.catalog.Len(), nil
}

// Start 后台异步加载；opts.Interval > 0 时定时刷新直到 ctx 结束
func (l *Loader) Start(ctx context.Context) {
	go func() {
		if _, err := l.Refresh(ctx); err != nil {
			l.logger.Error("Initial specialty catalog load failed", zap.Error(err))
		}
		if l.opts.Interval <= 0 {
			return
		}
		ticker := time.NewTicker(l.opts.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := l.Refresh(ctx); err != nil {
					l.logger.Warn("Periodic specialty catalog refresh failed", zap.Error(err))
				}
			}
		}
	}()
}

func (l *Loader) fetch(ctx context.Context) ([]Entry, error) {
	if l.source == nil {
		return nil, errors.New("no specialty source configured")
	}
	entries, err := l.source.FetchSpecialties(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.New("specialty source returned no entries")
	}
	return entries, nil
}

func (l *Loader) loadSnapshot(ctx context.Context) ([]Entry, error) {
	if l.kv == nil {
		return nil, store.ErrMiss
	}
	val, err := l.kv.Get(ctx, l.opts.SnapshotKey)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := sonic.UnmarshalString(val, &entries); err != nil {
		// 损坏的快照删除，避免下次继续回退到它
		if derr := l.kv.Delete(ctx, l.opts.SnapshotKey); derr != nil {
			l.logger.Warn("Failed to delete corrupt specialty snapshot", zap.Error(derr))
		}
		return nil, fmt.Errorf("failed to unmarshal specialty snapshot: %w", err)
	}
	return entries, nil
}

func (l *Loader) saveSnapshot(ctx context.Context, entries []Entry) error {
	if l.kv == nil {
		return nil
	}
	data, err := sonic.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal specialty snapshot: %w", err)
	}
	return l.kv.Set(ctx, l.opts.SnapshotKey, string(data), l.opts.SnapshotTTL)
}
