package filter

import (
	"strings"
)

// Selection 用户在界面上编辑的筛选配置（每次调用传入，核心不保存）
type Selection struct {
	Columns []string      `json:"columnas"`
	Search  string        `json:"buscar"`
	Expiry  ExpiryFilter  `json:"vencimientos"`
	Other   OtherFilter   `json:"otros"`
	Missing MissingFilter `json:"faltantes"`
}

// ExpiryFilter 证照到期筛选
// 三种证照：malapraxis（医疗责任险）、ANSSAL 登记、cobertura（保险）
type ExpiryFilter struct {
	MalapraxisVencida   bool `json:"malapraxisVencida"`
	MalapraxisPorVencer bool `json:"malapraxisPorVencer"`
	AnssalVencida       bool `json:"anssalVencida"`
	AnssalPorVencer     bool `json:"anssalPorVencer"`
	CoberturaVencida    bool `json:"coberturaVencida"`
	CoberturaPorVencer  bool `json:"coberturaPorVencer"`

	Desde string `json:"desde"` // YYYY-MM-DD
	Hasta string `json:"hasta"` // YYYY-MM-DD
	Dias  int    `json:"dias"`
}

// AnyFlag 六个复选框中是否有任何一个被选中
func (f ExpiryFilter) AnyFlag() bool {
	return f.MalapraxisVencida || f.MalapraxisPorVencer ||
		f.AnssalVencida || f.AnssalPorVencer ||
		f.CoberturaVencida || f.CoberturaPorVencer
}

// 状态筛选取值
const (
	EstadoActivo   = "activo"
	EstadoInactivo = "inactivo"
	AdherenteSi    = "si"
	AdherenteNo    = "no"
)

// OtherFilter 其它属性筛选
type OtherFilter struct {
	Sexo                string `json:"sexo"`
	Provincia           string `json:"provincia"`
	Categoria           string `json:"categoria"`
	CondicionImpositiva string `json:"condicionImpositiva"`
	Especialidad        string `json:"especialidad"`
	FechaIngresoDesde   string `json:"fechaIngresoDesde"`
	FechaIngresoHasta   string `json:"fechaIngresoHasta"`
	Estado              string `json:"estado"`    // "" | activo | inactivo
	Adherente           string `json:"adherente"` // "" | si | no
	ConMalapraxis       bool   `json:"conMalapraxis"`
}

// 缺失字段筛选模式
const (
	MissingModeMissing = "missing"
	MissingModePresent = "present"
)

// MissingFilter "缺失字段"筛选
type MissingFilter struct {
	Enabled bool   `json:"enabled"`
	Field   string `json:"campo"`
	Mode    string `json:"modo"`
}

// NormalizedColumns 去空白、去重，保持顺序
func (s Selection) NormalizedColumns() []string {
	out := make([]string, 0, len(s.Columns))
	seen := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
