package filter

import (
	"strings"
	"time"

	"cmc-padron/internal/record"
	"cmc-padron/internal/specialty"
)

// specialtyFields 按专科列表判断"缺失"的字段键
var specialtyFields = map[string]struct{}{
	"especialidad":   {},
	"especialidades": {},
}

// searchFields 自由文本搜索覆盖的字段
var searchFields = []string{
	record.FieldNombre,
	record.FieldDocumento,
	record.FieldMatriculaProv,
	record.FieldMatriculaNac,
	record.FieldNroSocio,
	record.FieldEmail,
	record.FieldCUIT,
}

// Evaluator 组合所有子筛选为一个记录谓词（无状态）
type Evaluator struct {
	aliases     record.AliasTable
	specialties *specialty.Resolver
	loc         *time.Location
	now         func() time.Time
}

type Option func(*Evaluator)

// WithClock 注入"今天"的来源（测试用）
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// WithLocation 计算"今天"以及解析 epoch 日期所用的时区
func WithLocation(loc *time.Location) Option {
	return func(e *Evaluator) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func NewEvaluator(aliases record.AliasTable, specialties *specialty.Resolver, opts ...Option) *Evaluator {
	if aliases == nil {
		aliases = record.DefaultAliases
	}
	if specialties == nil {
		specialties = specialty.NewResolver(nil, aliases)
	}
	e := &Evaluator{
		aliases:     aliases,
		specialties: specialties,
		loc:         time.UTC,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today 当前日期（日粒度）
func (e *Evaluator) Today() time.Time {
	return record.Today(e.now(), e.loc)
}

// Evaluate 记录是否满足所有启用的子筛选
func (e *Evaluator) Evaluate(r record.Record, sel Selection) bool {
	return e.Compile(sel).Match(r)
}

// Apply 过滤记录列表（保持原顺序）
func (e *Evaluator) Apply(records []record.Record, sel Selection) []record.Record {
	p := e.Compile(sel)
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if p.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Predicate 预先解析过的筛选（日期、模式、规范化文本只计算一次）
type Predicate struct {
	e   *Evaluator
	sel Selection

	missingField string
	wantMissing  bool

	searchTerms []string

	sexo                string
	provincia           string
	categoria           string
	condicionImpositiva string

	estado    *bool
	adherente *bool

	ingreso    Window
	hasIngreso bool

	expiry ExpiryMode
}

// Compile 解析 Selection
func (e *Evaluator) Compile(sel Selection) *Predicate {
	p := &Predicate{
		e:                   e,
		sel:                 sel,
		searchTerms:         strings.Fields(record.NormalizeText(sel.Search)),
		sexo:                record.NormalizeText(sel.Other.Sexo),
		provincia:           record.NormalizeText(sel.Other.Provincia),
		categoria:           record.NormalizeText(sel.Other.Categoria),
		condicionImpositiva: record.NormalizeText(sel.Other.CondicionImpositiva),
		estado:              triStateFilter(sel.Other.Estado),
		adherente:           triStateFilter(sel.Other.Adherente),
		expiry:              ResolveExpiryMode(sel.Expiry, e.Today()),
	}

	if sel.Missing.Enabled {
		p.missingField = strings.TrimSpace(sel.Missing.Field)
		p.wantMissing = !strings.EqualFold(strings.TrimSpace(sel.Missing.Mode), MissingModePresent)
	}

	if d, ok := record.ParseDate(sel.Other.FechaIngresoDesde); ok {
		p.ingreso.From = d
		p.hasIngreso = true
	}
	if d, ok := record.ParseDate(sel.Other.FechaIngresoHasta); ok {
		p.ingreso.To = d
		p.hasIngreso = true
	}
	return p
}

// ExpiryMode 解析得到的到期筛选策略
func (p *Predicate) ExpiryMode() ExpiryMode {
	return p.expiry
}

// Match 依次检查各组筛选，任一失败立即返回
func (p *Predicate) Match(r record.Record) bool {
	return p.matchMissing(r) &&
		p.matchConMalapraxis(r) &&
		p.matchSearch(r) &&
		p.matchAttributes(r) &&
		p.matchStatus(r) &&
		p.matchIngreso(r) &&
		p.expiry.Matches(p.expiryLookup(r))
}

func (p *Predicate) matchMissing(r record.Record) bool {
	if p.missingField == "" {
		return true
	}
	var missing bool
	if _, ok := specialtyFields[p.missingField]; ok {
		missing = p.e.specialties.IsMissing(r)
	} else {
		missing = record.IsBlank(p.e.aliases.Value(r, p.missingField))
	}
	return missing == p.wantMissing
}

func (p *Predicate) matchConMalapraxis(r record.Record) bool {
	if !p.sel.Other.ConMalapraxis {
		return true
	}
	return !record.IsBlank(p.e.aliases.Value(r, record.FieldMalapraxis))
}

// matchSearch 每个搜索词都必须出现在身份字段中（任意字段）
func (p *Predicate) matchSearch(r record.Record) bool {
	if len(p.searchTerms) == 0 {
		return true
	}
	values := make([]string, 0, len(searchFields))
	for _, f := range searchFields {
		if v := record.NormalizeText(p.e.aliases.Value(r, f)); v != "" {
			values = append(values, v)
		}
	}
	haystack := strings.Join(values, " ")
	for _, term := range p.searchTerms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

func (p *Predicate) matchAttributes(r record.Record) bool {
	if p.sexo != "" && !sexMatches(record.NormalizeText(p.e.aliases.Value(r, record.FieldSexo)), p.sexo) {
		return false
	}
	if p.provincia != "" && !strings.Contains(record.NormalizeText(p.e.aliases.Value(r, record.FieldProvincia)), p.provincia) {
		return false
	}
	if p.categoria != "" && record.NormalizeText(p.e.aliases.Value(r, record.FieldCategoria)) != p.categoria {
		return false
	}
	if p.condicionImpositiva != "" && record.NormalizeText(p.e.aliases.Value(r, record.FieldCondicionImpositiva)) != p.condicionImpositiva {
		return false
	}
	return p.e.specialties.Matches(r, p.sel.Other.Especialidad)
}

func (p *Predicate) matchStatus(r record.Record) bool {
	if p.estado != nil && p.e.IsActive(r) != *p.estado {
		return false
	}
	if p.adherente != nil && p.e.IsAdherent(r) != *p.adherente {
		return false
	}
	return true
}

// matchIngreso 给了边界时，没有可解析的入会日期的记录不通过
func (p *Predicate) matchIngreso(r record.Record) bool {
	if !p.hasIngreso {
		return true
	}
	d, ok := record.ParseDateIn(p.e.aliases.Value(r, record.FieldFechaIngreso), p.e.loc)
	if !ok {
		return false
	}
	return p.ingreso.Contains(d)
}

func (p *Predicate) expiryLookup(r record.Record) ExpiryLookup {
	return func(c Credential) (time.Time, bool) {
		return record.ParseDateIn(p.e.aliases.Value(r, c.ExpiryField()), p.e.loc)
	}
}

// IsActive 活动标志，缺失时回退到旧的状态字段；都无法识别时视为非活动
func (e *Evaluator) IsActive(r record.Record) bool {
	if v, known := record.ParseTriState(e.aliases.Value(r, record.FieldActivo)); known {
		return v
	}
	v, _ := record.ParseTriState(e.aliases.Value(r, record.FieldEstadoLegacy))
	return v
}

// IsAdherent 无法识别的值按"非会员"处理，避免过度匹配
func (e *Evaluator) IsAdherent(r record.Record) bool {
	v, _ := record.ParseTriState(e.aliases.Value(r, record.FieldAdherente))
	return v
}

// triStateFilter 过滤值 "activo"/"si" -> true，"inactivo"/"no" -> false，其它 -> 不过滤
func triStateFilter(v string) *bool {
	b, known := record.ParseTriState(v)
	if !known {
		return nil
	}
	return &b
}

// sexSynonyms 单字母与完整写法的对应
var sexSynonyms = map[string]string{
	"f":         "f",
	"femenino":  "f",
	"m":         "m",
	"masculino": "m",
}

// sexMatches 归一化后精确比较；只有同义词表中的写法才互相等价
func sexMatches(have, want string) bool {
	if have == want {
		return true
	}
	h, ok1 := sexSynonyms[have]
	w, ok2 := sexSynonyms[want]
	return ok1 && ok2 && h == w
}
