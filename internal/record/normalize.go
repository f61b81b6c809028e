package record

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText 小写、去除重音符号、去首尾空白并折叠内部空白
// 用于所有大小写/重音不敏感的比较
func NormalizeText(v any) string {
	s := strings.ToLower(ToString(v))
	if s == "" {
		return s
	}
	s = stripDiacritics(s)
	return strings.Join(strings.Fields(s), " ")
}

// stripDiacritics NFD 分解后删除组合符号（unicode.Mn）
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var (
	truthyValues = map[string]struct{}{
		"1": {}, "true": {}, "t": {}, "si": {}, "s": {}, "yes": {}, "y": {}, "x": {},
		"activo": {}, "activa": {}, "a": {}, "alta": {}, "habilitado": {},
	}
	falsyValues = map[string]struct{}{
		"0": {}, "false": {}, "f": {}, "no": {}, "n": {},
		"inactivo": {}, "inactiva": {}, "baja": {}, "b": {}, "i": {}, "deshabilitado": {},
	}
)

// ParseTriState 解析三态布尔字段
// known=false 表示值缺失或无法识别，调用方应按"否"处理
func ParseTriState(v any) (value bool, known bool) {
	switch val := v.(type) {
	case nil:
		return false, false
	case bool:
		return val, true
	case int, int32, int64, float32, float64:
		switch ToString(val) {
		case "1":
			return true, true
		case "0":
			return false, true
		}
		return false, false
	}
	s := NormalizeText(v)
	if _, ok := truthyValues[s]; ok {
		return true, true
	}
	if _, ok := falsyValues[s]; ok {
		return false, true
	}
	return false, false
}
