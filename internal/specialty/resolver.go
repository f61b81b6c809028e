package specialty

import (
	"strconv"
	"strings"

	"cmc-padron/internal/record"
)

const (
	// GeneralPractitioner 无具名专科时显示的名称
	GeneralPractitioner = "médico"
	// NoSpecialty 数据源中表示"无专科"的哨兵值
	NoSpecialty = "sin especialidad"
)

var (
	generalKey     = record.NormalizeText(GeneralPractitioner)
	noSpecialtyKey = record.NormalizeText(NoSpecialty)
)

// Resolver 把记录中的专科编号解析为显示名称
type Resolver struct {
	catalog Provider
	aliases record.AliasTable
}

// NewResolver catalog 可以为 nil（所有编号按原样显示）
func NewResolver(catalog Provider, aliases record.AliasTable) *Resolver {
	if aliases == nil {
		aliases = record.DefaultAliases
	}
	return &Resolver{catalog: catalog, aliases: aliases}
}

// Tokens 记录的专科显示名称列表
//  1. 读取 6 个编号槽位，跳过空值和 0
//  2. 经目录翻译，目录中没有的保留原始编号
//  3. 合并旧的组合专科字段（分隔字符串或对象数组）
//  4. 大小写/重音不敏感去重，保持首次出现顺序
//  5. 含有 "sin especialidad" 或结果为空 -> ["médico"]
//  6. 多于一个且包含 "médico" -> 去掉 "médico"
func (r *Resolver) Tokens(rec record.Record) []string {
	tokens := r.RawTokens(rec)

	if len(tokens) == 0 {
		return []string{GeneralPractitioner}
	}
	for _, t := range tokens {
		if record.NormalizeText(t) == noSpecialtyKey {
			return []string{GeneralPractitioner}
		}
	}

	if len(tokens) > 1 {
		named := make([]string, 0, len(tokens))
		for _, t := range tokens {
			if record.NormalizeText(t) != generalKey {
				named = append(named, t)
			}
		}
		if len(named) > 0 {
			tokens = named
		}
	}
	return tokens
}

// RawTokens 仅执行步骤 1-4（不做 "médico" 回退与抑制）
func (r *Resolver) RawTokens(rec record.Record) []string {
	var tokens []string
	seen := make(map[string]struct{})
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		key := record.NormalizeText(t)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		tokens = append(tokens, t)
	}

	for _, slot := range record.SpecialtySlots {
		id := record.ToString(r.aliases.Value(rec, slot))
		if isZeroID(id) {
			continue
		}
		add(r.displayName(id))
	}

	for _, t := range legacyTokens(r.aliases.Value(rec, record.FieldEspecialidadesLegacy)) {
		add(t)
	}
	return tokens
}

// IsMissing 记录是否没有任何专科信息（只有哨兵值也算缺失）
func (r *Resolver) IsMissing(rec record.Record) bool {
	for _, t := range r.RawTokens(rec) {
		if record.NormalizeText(t) != noSpecialtyKey {
			return false
		}
	}
	return true
}

// Matches 专科过滤谓词
// selected 为空时恒为真；否则任一专科与选择值相等、包含或被包含即匹配。
// selected 若是目录中的编号，同时按其名称比较。
func (r *Resolver) Matches(rec record.Record, selected string) bool {
	want := record.NormalizeText(selected)
	if want == "" {
		return true
	}
	candidates := []string{want}
	if r.catalog != nil {
		if name, ok := r.catalog.Lookup(strings.TrimSpace(selected)); ok {
			if n := record.NormalizeText(name); n != "" && n != want {
				candidates = append(candidates, n)
			}
		}
	}

	for _, t := range r.Tokens(rec) {
		tok := record.NormalizeText(t)
		if tok == "" {
			continue
		}
		for _, c := range candidates {
			if tok == c || strings.Contains(tok, c) || strings.Contains(c, tok) {
				return true
			}
		}
	}
	return false
}

// Join 导出用：专科以 ", " 连接
func (r *Resolver) Join(rec record.Record) string {
	return strings.Join(r.Tokens(rec), ", ")
}

func (r *Resolver) displayName(id string) string {
	if r.catalog == nil {
		return id
	}
	if name, ok := r.catalog.Lookup(id); ok && strings.TrimSpace(name) != "" {
		return name
	}
	return id
}

func isZeroID(id string) bool {
	if id == "" {
		return true
	}
	if f, err := strconv.ParseFloat(id, 64); err == nil && f == 0 {
		return true
	}
	return false
}

func splitLegacy(r rune) bool {
	return r == ',' || r == ';' || r == '|'
}

// legacyTokens 旧组合字段：分隔字符串、字符串数组或带名称键的对象数组
func legacyTokens(v any) []string {
	switch val := v.(type) {
	case string:
		return strings.FieldsFunc(val, splitLegacy)
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := record.ItemName(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []map[string]any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := record.ItemName(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case map[string]any:
		if s := record.ItemName(val); s != "" {
			return []string{s}
		}
	}
	return nil
}
