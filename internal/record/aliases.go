package record

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// 逻辑字段名（同时也是导出列的 key）
const (
	FieldNroSocio             = "nro_socio"
	FieldNombre               = "nombre"
	FieldDocumento            = "documento"
	FieldCUIT                 = "cuit"
	FieldMatriculaProv        = "matricula_prov"
	FieldMatriculaNac         = "matricula_nac"
	FieldSexo                 = "sexo"
	FieldFechaNacimiento      = "fecha_nacimiento"
	FieldProvincia            = "provincia"
	FieldLocalidad            = "localidad"
	FieldDomicilio            = "domicilio"
	FieldTelefono             = "telefono"
	FieldEmail                = "email"
	FieldCategoria            = "categoria"
	FieldCondicionImpositiva  = "condicion_impositiva"
	FieldFechaIngreso         = "fecha_ingreso"
	FieldActivo               = "activo"
	FieldEstadoLegacy         = "estado_legacy"
	FieldAdherente            = "adherente"
	FieldMalapraxis           = "malapraxis"
	FieldMalapraxisVenc       = "malapraxis_vencimiento"
	FieldAnssal               = "anssal"
	FieldAnssalVenc           = "anssal_vencimiento"
	FieldCobertura            = "cobertura"
	FieldCoberturaVenc        = "cobertura_vencimiento"
	FieldEspecialidadesLegacy = "especialidades_legacy"
)

// SpecialtySlots 6 个专科编号槽位（有序）
var SpecialtySlots = []string{
	"especialidad_1",
	"especialidad_2",
	"especialidad_3",
	"especialidad_4",
	"especialidad_5",
	"especialidad_6",
}

// AliasTable 逻辑字段 -> 具体键名列表（按优先级探测）
type AliasTable map[string][]string

// DefaultAliases 数据源各版本累积下来的字段拼写
var DefaultAliases = AliasTable{
	FieldNroSocio:             {"nro_socio", "NRO_SOCIO", "socio", "nro_afiliado", "id_socio"},
	FieldNombre:               {"nombre_completo", "apellido_nombre", "ape_nom", "NOMBRE", "nombre"},
	FieldDocumento:            {"documento", "DOCUMENTO", "dni", "DNI", "nro_documento"},
	FieldCUIT:                 {"cuit", "CUIT", "cuil", "CUIL"},
	FieldMatriculaProv:        {"matricula_prov", "MATRICULA_PROV", "mat_prov", "matricula"},
	FieldMatriculaNac:         {"matricula_nac", "MATRICULA_NAC", "mat_nac"},
	FieldSexo:                 {"sexo", "SEXO", "genero"},
	FieldFechaNacimiento:      {"fecha_nac", "fecha_nacimiento", "FECHA_NAC", "nacimiento"},
	FieldProvincia:            {"provincia", "PROVINCIA", "prov"},
	FieldLocalidad:            {"localidad", "LOCALIDAD", "ciudad"},
	FieldDomicilio:            {"domicilio", "DOMICILIO", "domicilio_particular", "direccion"},
	FieldTelefono:             {"telefono", "TELEFONO", "celular", "tel_particular", "telefono_consulta"},
	FieldEmail:                {"email", "EMAIL", "mail", "MAIL_PARTICULAR", "mail_particular"},
	FieldCategoria:            {"categoria", "CATEGORIA", "cat"},
	FieldCondicionImpositiva:  {"condicion_impositiva", "CONDICION_IMPOSITIVA", "cond_impositiva", "iva"},
	FieldFechaIngreso:         {"fecha_ingreso", "FECHA_INGRESO", "ingreso", "fecha_alta"},
	FieldActivo:               {"activo", "ACTIVO", "is_active"},
	FieldEstadoLegacy:         {"existe", "EXISTE", "estado", "ESTADO"},
	FieldAdherente:            {"adherente", "ADHERENTE", "socio_adherente", "es_adherente"},
	FieldMalapraxis:           {"malapraxis", "MALAPRAXIS", "aseguradora_malapraxis", "malapraxis_empresa"},
	FieldMalapraxisVenc:       {"malapraxis_vencimiento", "vencimiento_malapraxis", "MALAPRAXIS_VENCIMIENTO", "venc_malapraxis", "fecha_venc_malapraxis"},
	FieldAnssal:               {"anssal", "ANSSAL", "nro_anssal"},
	FieldAnssalVenc:           {"anssal_vencimiento", "vencimiento_anssal", "ANSSAL_VENCIMIENTO", "venc_anssal", "fecha_venc_anssal"},
	FieldCobertura:            {"cobertura", "COBERTURA", "cobertura_nombre"},
	FieldCoberturaVenc:        {"cobertura_vencimiento", "vencimiento_cobertura", "COBERTURA_VENCIMIENTO", "venc_cobertura", "fecha_venc_cobertura"},
	FieldEspecialidadesLegacy: {"especialidades", "ESPECIALIDADES", "especialidad", "ESPECIALIDAD"},

	"especialidad_1": {"nro_especialidad", "NRO_ESPECIALIDAD", "nro_especialidad1", "id_especialidad"},
	"especialidad_2": {"nro_especialidad2", "NRO_ESPECIALIDAD2", "nro_especialidad_2"},
	"especialidad_3": {"nro_especialidad3", "NRO_ESPECIALIDAD3", "nro_especialidad_3"},
	"especialidad_4": {"nro_especialidad4", "NRO_ESPECIALIDAD4", "nro_especialidad_4"},
	"especialidad_5": {"nro_especialidad5", "NRO_ESPECIALIDAD5", "nro_especialidad_5"},
	"especialidad_6": {"nro_especialidad6", "NRO_ESPECIALIDAD6", "nro_especialidad_6"},
}

// Aliases 返回逻辑字段的别名列表；未登记的字段按字面键名处理
func (t AliasTable) Aliases(field string) []string {
	if aliases, ok := t[field]; ok && len(aliases) > 0 {
		return aliases
	}
	return []string{field}
}

// Value 解析逻辑字段的原始值
func (t AliasTable) Value(r Record, field string) any {
	return Resolve(r, t.Aliases(field))
}

// String 解析逻辑字段并转换为字符串
func (t AliasTable) String(r Record, field string) string {
	return ToString(t.Value(r, field))
}

// Clone 深拷贝
func (t AliasTable) Clone() AliasTable {
	out := make(AliasTable, len(t))
	for field, aliases := range t {
		out[field] = append([]string(nil), aliases...)
	}
	return out
}

// Merge 用 overrides 覆盖同名字段，返回新表
func (t AliasTable) Merge(overrides AliasTable) AliasTable {
	out := t.Clone()
	for field, aliases := range overrides {
		if len(aliases) == 0 {
			continue
		}
		out[field] = append([]string(nil), aliases...)
	}
	return out
}

// ParseAliasTable 解析 YAML 格式的别名表并合并到默认表之上
//
//	malapraxis_vencimiento:
//	  - venc_mp
//	  - malapraxis_vencimiento
func ParseAliasTable(data []byte) (AliasTable, error) {
	var overrides map[string][]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse alias table: %w", err)
	}
	return DefaultAliases.Merge(overrides), nil
}

// LoadAliasTable 从文件加载别名表；path 为空时返回默认表的副本
func LoadAliasTable(path string) (AliasTable, error) {
	if path == "" {
		return DefaultAliases.Clone(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias table %s: %w", path, err)
	}
	return ParseAliasTable(data)
}
