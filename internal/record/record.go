package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record 一条专业人员记录（来源于外部数据服务，字段不固定）
// 同一个逻辑字段可能以多个不同的键名出现（大小写、缩写、旧字段名）
type Record map[string]any

// Resolve 按别名顺序返回第一个非空值，全部为空时返回 ""
func Resolve(r Record, aliases []string) any {
	for _, key := range aliases {
		v, ok := r[key]
		if !ok {
			continue
		}
		if !IsBlank(v) {
			return v
		}
	}
	return ""
}

// IsBlank 判断值是否为空（nil / 空白字符串 / 空数组 / 空对象）
func IsBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case []map[string]any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	case *time.Time:
		return val == nil || val.IsZero()
	case time.Time:
		return val.IsZero()
	}
	return false
}

// ToString 把任意原始值转换为展示用字符串
func ToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []byte:
		return strings.TrimSpace(string(val))
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return formatFloat(float64(val))
	case float64:
		return formatFloat(val)
	case json.Number:
		return val.String()
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return FormatISODate(val)
	case *time.Time:
		if val == nil || val.IsZero() {
			return ""
		}
		return FormatISODate(*val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := ItemName(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case []string:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := strings.TrimSpace(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		return ItemName(val)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// NameKeys 多值字段中对象元素的名称键（按优先级）
var NameKeys = []string{"nombre", "name", "especialidad", "descripcion", "display_name", "displayName"}

// ItemName 提取数组元素的名称：对象取名称键，其它直接转字符串
func ItemName(item any) string {
	if m, ok := item.(map[string]any); ok {
		return ToString(Resolve(Record(m), NameKeys))
	}
	return ToString(item)
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
