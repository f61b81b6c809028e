package specialty

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"cmc-padron/internal/record"
)

// Entry 专科目录条目
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"nombre"`
}

// Provider 专科编号 -> 显示名称
// 目录尚未加载时 Lookup 返回 false，调用方回退为原始编号
type Provider interface {
	Lookup(id string) (string, bool)
}

type snapshot struct {
	byID    map[string]string
	entries []Entry
}

// Catalog 进程内专科目录
// 写一次、读多次；每次重新加载整体替换，读取无锁
type Catalog struct {
	snap  atomic.Pointer[snapshot]
	ready chan struct{}
	once  sync.Once
}

func NewCatalog() *Catalog {
	return &Catalog{ready: make(chan struct{})}
}

var _ Provider = (*Catalog)(nil)

// Replace 用 entries 整体替换目录（空编号、空名称的条目被忽略）
func (c *Catalog) Replace(entries []Entry) {
	s := &snapshot{
		byID:    make(map[string]string, len(entries)),
		entries: make([]Entry, 0, len(entries)),
	}
	for _, e := range entries {
		id := canonicalID(e.ID)
		name := strings.TrimSpace(e.Name)
		if id == "" || name == "" {
			continue
		}
		if _, dup := s.byID[id]; dup {
			continue
		}
		s.byID[id] = name
		s.entries = append(s.entries, Entry{ID: id, Name: name})
	}
	c.snap.Store(s)
	c.once.Do(func() { close(c.ready) })
}

// Lookup 按编号查询显示名称
func (c *Catalog) Lookup(id string) (string, bool) {
	s := c.snap.Load()
	if s == nil {
		return "", false
	}
	name, ok := s.byID[canonicalID(id)]
	return name, ok
}

// Entries 当前目录的副本（按加载顺序）
func (c *Catalog) Entries() []Entry {
	s := c.snap.Load()
	if s == nil {
		return nil
	}
	return append([]Entry(nil), s.entries...)
}

func (c *Catalog) Len() int {
	s := c.snap.Load()
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Ready 是否至少加载过一次
func (c *Catalog) Ready() bool {
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

// Wait 等待首次加载完成或 ctx 结束
func (c *Catalog) Wait(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var (
	entryIDKeys   = []string{"id", "identifier", "nro_especialidad", "codigo", "id_especialidad"}
	entryNameKeys = []string{"nombre", "displayName", "display_name", "name", "especialidad", "descripcion"}
)

// EntryFromMap 从松散的 JSON 对象中提取条目
func EntryFromMap(m map[string]any) (Entry, bool) {
	r := record.Record(m)
	e := Entry{
		ID:   record.ToString(record.Resolve(r, entryIDKeys)),
		Name: record.ToString(record.Resolve(r, entryNameKeys)),
	}
	if e.ID == "" || e.Name == "" {
		return Entry{}, false
	}
	return e, true
}

// canonicalID 数字编号去掉前导零（"03" 与 "3" 视为同一专科）
func canonicalID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return id
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return id
		}
	}
	trimmed := strings.TrimLeft(id, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
