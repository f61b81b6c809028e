package filter

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"cmc-padron/internal/record"

	"github.com/gorilla/schema"
)

// QueryParams Selection 的扁平查询参数形式（服务端批量导出时使用）
// 布尔值编码为 "1"（false 省略），日期为 YYYY-MM-DD，空值省略
type QueryParams struct {
	Columnas []string `schema:"columnas,omitempty"`
	Buscar   string   `schema:"buscar,omitempty"`

	MalapraxisVencida   bool   `schema:"malapraxis_vencida,omitempty"`
	MalapraxisPorVencer bool   `schema:"malapraxis_por_vencer,omitempty"`
	AnssalVencida       bool   `schema:"anssal_vencida,omitempty"`
	AnssalPorVencer     bool   `schema:"anssal_por_vencer,omitempty"`
	CoberturaVencida    bool   `schema:"cobertura_vencida,omitempty"`
	CoberturaPorVencer  bool   `schema:"cobertura_por_vencer,omitempty"`
	VencDesde           string `schema:"venc_desde,omitempty"`
	VencHasta           string `schema:"venc_hasta,omitempty"`
	Dias                int    `schema:"dias,omitempty"`

	Sexo                string `schema:"sexo,omitempty"`
	Provincia           string `schema:"provincia,omitempty"`
	Categoria           string `schema:"categoria,omitempty"`
	CondicionImpositiva string `schema:"condicion_impositiva,omitempty"`
	Especialidad        string `schema:"especialidad,omitempty"`
	IngresoDesde        string `schema:"ingreso_desde,omitempty"`
	IngresoHasta        string `schema:"ingreso_hasta,omitempty"`
	Estado              string `schema:"estado,omitempty"`
	Adherente           string `schema:"adherente,omitempty"`
	ConMalapraxis       bool   `schema:"con_malapraxis,omitempty"`

	Faltante      bool   `schema:"faltante,omitempty"`
	FaltanteCampo string `schema:"faltante_campo,omitempty"`
	FaltanteModo  string `schema:"faltante_modo,omitempty"`
}

var (
	encoder = schema.NewEncoder()
	decoder = schema.NewDecoder()
)

func init() {
	encoder.RegisterEncoder(false, func(v reflect.Value) string {
		if v.Bool() {
			return "1"
		}
		return ""
	})
	decoder.IgnoreUnknownKeys(true)
}

// ToQueryParams 展开 Selection；空白字符串被省略，日期统一为 YYYY-MM-DD
func ToQueryParams(sel Selection) QueryParams {
	dias := sel.Expiry.Dias
	if dias < 0 {
		dias = 0
	}
	return QueryParams{
		Columnas: sel.NormalizedColumns(),
		Buscar:   strings.TrimSpace(sel.Search),

		MalapraxisVencida:   sel.Expiry.MalapraxisVencida,
		MalapraxisPorVencer: sel.Expiry.MalapraxisPorVencer,
		AnssalVencida:       sel.Expiry.AnssalVencida,
		AnssalPorVencer:     sel.Expiry.AnssalPorVencer,
		CoberturaVencida:    sel.Expiry.CoberturaVencida,
		CoberturaPorVencer:  sel.Expiry.CoberturaPorVencer,
		VencDesde:           isoDate(sel.Expiry.Desde),
		VencHasta:           isoDate(sel.Expiry.Hasta),
		Dias:                dias,

		Sexo:                strings.TrimSpace(sel.Other.Sexo),
		Provincia:           strings.TrimSpace(sel.Other.Provincia),
		Categoria:           strings.TrimSpace(sel.Other.Categoria),
		CondicionImpositiva: strings.TrimSpace(sel.Other.CondicionImpositiva),
		Especialidad:        strings.TrimSpace(sel.Other.Especialidad),
		IngresoDesde:        isoDate(sel.Other.FechaIngresoDesde),
		IngresoHasta:        isoDate(sel.Other.FechaIngresoHasta),
		Estado:              strings.TrimSpace(sel.Other.Estado),
		Adherente:           strings.TrimSpace(sel.Other.Adherente),
		ConMalapraxis:       sel.Other.ConMalapraxis,

		Faltante:      sel.Missing.Enabled,
		FaltanteCampo: missingValue(sel.Missing.Enabled, sel.Missing.Field),
		FaltanteModo:  missingValue(sel.Missing.Enabled, sel.Missing.Mode),
	}
}

// Selection 逆向转换
func (q QueryParams) Selection() Selection {
	return Selection{
		Columns: q.Columnas,
		Search:  q.Buscar,
		Expiry: ExpiryFilter{
			MalapraxisVencida:   q.MalapraxisVencida,
			MalapraxisPorVencer: q.MalapraxisPorVencer,
			AnssalVencida:       q.AnssalVencida,
			AnssalPorVencer:     q.AnssalPorVencer,
			CoberturaVencida:    q.CoberturaVencida,
			CoberturaPorVencer:  q.CoberturaPorVencer,
			Desde:               q.VencDesde,
			Hasta:               q.VencHasta,
			Dias:                q.Dias,
		},
		Other: OtherFilter{
			Sexo:                q.Sexo,
			Provincia:           q.Provincia,
			Categoria:           q.Categoria,
			CondicionImpositiva: q.CondicionImpositiva,
			Especialidad:        q.Especialidad,
			FechaIngresoDesde:   q.IngresoDesde,
			FechaIngresoHasta:   q.IngresoHasta,
			Estado:              q.Estado,
			Adherente:           q.Adherente,
			ConMalapraxis:       q.ConMalapraxis,
		},
		Missing: MissingFilter{
			Enabled: q.Faltante,
			Field:   q.FaltanteCampo,
			Mode:    q.FaltanteModo,
		},
	}
}

// Encode Selection -> url.Values
func Encode(sel Selection) (url.Values, error) {
	values := url.Values{}
	if err := encoder.Encode(ToQueryParams(sel), values); err != nil {
		return nil, fmt.Errorf("failed to encode selection: %w", err)
	}
	for k, v := range values {
		if len(v) == 0 || (len(v) == 1 && v[0] == "") {
			delete(values, k)
		}
	}
	return values, nil
}

// Decode url.Values -> Selection（未知参数被忽略）
func Decode(values url.Values) (Selection, error) {
	var q QueryParams
	if err := decoder.Decode(&q, values); err != nil {
		return Selection{}, fmt.Errorf("failed to decode selection: %w", err)
	}
	return q.Selection(), nil
}

// isoDate 把界面输入的日期（任意可解析格式）统一为 YYYY-MM-DD；无法解析的原样保留
func isoDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if d, ok := record.ParseDate(s); ok {
		return record.FormatISODate(d)
	}
	return s
}

func missingValue(enabled bool, v string) string {
	if !enabled {
		return ""
	}
	return strings.TrimSpace(v)
}
