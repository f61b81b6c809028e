package report

import (
	"errors"
	"fmt"
	"strings"

	"cmc-padron/internal/record"
)

// ColumnKind 决定单元格的格式化方式和对齐
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindDate
	KindTriState
	KindSpecialties
	KindNumber
)

// ColumnSpecialties 专科列（不对应单一字段，由专科解析器生成）
const ColumnSpecialties = "especialidades"

// Column 导出列
type Column struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Kind  ColumnKind `json:"-"`
	Wide  bool       `json:"-"` // 自由文本列：左对齐、更宽
}

var ErrUnknownColumn = errors.New("unknown export column")

// catalog 可导出列（界面展示顺序）
var catalog = []Column{
	{Key: record.FieldNroSocio, Label: "N° Socio", Kind: KindNumber},
	{Key: record.FieldNombre, Label: "Apellido y Nombre", Wide: true},
	{Key: record.FieldDocumento, Label: "DNI", Kind: KindNumber},
	{Key: record.FieldCUIT, Label: "CUIT"},
	{Key: record.FieldMatriculaProv, Label: "Matrícula Provincial"},
	{Key: record.FieldMatriculaNac, Label: "Matrícula Nacional"},
	{Key: record.FieldSexo, Label: "Sexo"},
	{Key: record.FieldFechaNacimiento, Label: "Fecha de Nacimiento", Kind: KindDate},
	{Key: ColumnSpecialties, Label: "Especialidades", Kind: KindSpecialties, Wide: true},
	{Key: record.FieldProvincia, Label: "Provincia"},
	{Key: record.FieldLocalidad, Label: "Localidad", Wide: true},
	{Key: record.FieldDomicilio, Label: "Domicilio", Wide: true},
	{Key: record.FieldTelefono, Label: "Teléfono"},
	{Key: record.FieldEmail, Label: "Email", Wide: true},
	{Key: record.FieldCategoria, Label: "Categoría"},
	{Key: record.FieldCondicionImpositiva, Label: "Condición Impositiva"},
	{Key: record.FieldFechaIngreso, Label: "Fecha de Ingreso", Kind: KindDate},
	{Key: record.FieldActivo, Label: "Activo", Kind: KindTriState},
	{Key: record.FieldAdherente, Label: "Adherente", Kind: KindTriState},
	{Key: record.FieldMalapraxis, Label: "Malapraxis", Wide: true},
	{Key: record.FieldMalapraxisVenc, Label: "Vto. Malapraxis", Kind: KindDate},
	{Key: record.FieldAnssal, Label: "ANSSAL"},
	{Key: record.FieldAnssalVenc, Label: "Vto. ANSSAL", Kind: KindDate},
	{Key: record.FieldCobertura, Label: "Cobertura"},
	{Key: record.FieldCoberturaVenc, Label: "Vto. Cobertura", Kind: KindDate},
}

var catalogByKey = func() map[string]Column {
	m := make(map[string]Column, len(catalog))
	for _, c := range catalog {
		m[c.Key] = c
	}
	return m
}()

// AvailableColumns 返回可导出列的副本
func AvailableColumns() []Column {
	return append([]Column(nil), catalog...)
}

// LookupColumn 按 key 查找列定义
func LookupColumn(key string) (Column, bool) {
	c, ok := catalogByKey[key]
	return c, ok
}

// Columns 把列 key 映射为列定义（保持顺序、去重）
// 未知 key 返回 ErrUnknownColumn；空输入返回 ErrNoColumns
func Columns(keys []string) ([]Column, error) {
	out := make([]Column, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	var unknown []string
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		c, ok := catalogByKey[k]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		out = append(out, c)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, strings.Join(unknown, ", "))
	}
	if len(out) == 0 {
		return nil, ErrNoColumns
	}
	return out, nil
}
