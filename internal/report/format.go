package report

import (
	"time"

	"cmc-padron/internal/record"
	"cmc-padron/internal/specialty"
)

const (
	yes = "Sí"
	no  = "No"
)

// CellFormatter 把记录字段转换为单元格文本
type CellFormatter struct {
	aliases     record.AliasTable
	specialties *specialty.Resolver
	loc         *time.Location
}

// NewCellFormatter loc 为 nil 时使用 UTC
func NewCellFormatter(aliases record.AliasTable, specialties *specialty.Resolver, loc *time.Location) *CellFormatter {
	if aliases == nil {
		aliases = record.DefaultAliases
	}
	if specialties == nil {
		specialties = specialty.NewResolver(nil, aliases)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CellFormatter{aliases: aliases, specialties: specialties, loc: loc}
}

// Value 单元格文本；未登记的列按字面字段名解析
func (f *CellFormatter) Value(r record.Record, key string) string {
	c, ok := LookupColumn(key)
	if !ok {
		c = Column{Key: key}
	}
	return f.Cell(r, c)
}

// Cell 按列类型格式化
func (f *CellFormatter) Cell(r record.Record, c Column) string {
	switch c.Kind {
	case KindSpecialties:
		return f.specialties.Join(r)
	case KindDate:
		v := f.aliases.Value(r, c.Key)
		if d, ok := record.ParseDateIn(v, f.loc); ok {
			return record.FormatDate(d)
		}
		// 无法解析的日期原样输出，便于人工核对
		return record.ToString(v)
	case KindTriState:
		return f.triState(r, c.Key)
	}
	return record.ToString(f.aliases.Value(r, c.Key))
}

func (f *CellFormatter) triState(r record.Record, key string) string {
	v := f.aliases.Value(r, key)
	b, known := record.ParseTriState(v)
	if !known && key == record.FieldActivo {
		v = f.aliases.Value(r, record.FieldEstadoLegacy)
		b, known = record.ParseTriState(v)
	}
	if known {
		if b {
			return yes
		}
		return no
	}
	return record.ToString(v)
}

// Row 一条记录对应的所有单元格
func (f *CellFormatter) Row(r record.Record, columns []Column) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = f.Cell(r, c)
	}
	return out
}
