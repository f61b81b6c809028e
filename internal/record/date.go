package record

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// epochMillisThreshold 小于该值的数字按秒解析，否则按毫秒
const epochMillisThreshold = 10_000_000_000

var (
	isoPrefixRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	dmyRe       = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	// 字符串只有 9 位以上数字才视为 epoch，"2024" 之类的年份不算
	epochRe     = regexp.MustCompile(`^-?\d{9,}(\.\d+)?$`)
	compactRe   = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
)

// genericLayouts ISO 前缀与 DD/MM/YYYY 都不匹配时依次尝试
var genericLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
	"2006/01/02",
	"2006/1/2",
	"02.01.2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon Jan 2 2006",
}

// ParseDate 以 UTC 解析日期，见 ParseDateIn
func ParseDate(v any) (time.Time, bool) {
	return ParseDateIn(v, time.UTC)
}

// ParseDateIn 把各种日期表示解析为"民用日"（UTC 零点）
// 支持 time.Time、epoch 数字（秒/毫秒）、YYYY-MM-DD 前缀、DD/MM/YYYY 以及常见通用格式。
// 带绝对时间的值（time.Time、epoch）先转换到 loc 再取日期。
// 无法解析时返回 ok=false，调用方必须当作"日期缺失"处理。
func ParseDateIn(v any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return StartOfDay(val.In(loc)), true
	case *time.Time:
		if val == nil || val.IsZero() {
			return time.Time{}, false
		}
		return StartOfDay(val.In(loc)), true
	case int:
		return fromEpoch(float64(val), loc)
	case int32:
		return fromEpoch(float64(val), loc)
	case int64:
		return fromEpoch(float64(val), loc)
	case float32:
		return fromEpoch(float64(val), loc)
	case float64:
		return fromEpoch(val, loc)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(f, loc)
	case string:
		return parseDateString(strings.TrimSpace(val), loc)
	case []byte:
		return parseDateString(strings.TrimSpace(string(val)), loc)
	}
	return time.Time{}, false
}

// fromEpoch 0 视为旧数据中的"无日期"
func fromEpoch(n float64, loc *time.Location) (time.Time, bool) {
	if n == 0 {
		return time.Time{}, false
	}
	var t time.Time
	if n < epochMillisThreshold && n > -epochMillisThreshold {
		t = time.Unix(int64(n), 0)
	} else {
		t = time.UnixMilli(int64(n))
	}
	return StartOfDay(t.In(loc)), true
}

func parseDateString(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if epochRe.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(f, loc)
	}
	if m := compactRe.FindStringSubmatch(s); m != nil {
		return civilDate(m[1], m[2], m[3])
	}
	if m := isoPrefixRe.FindStringSubmatch(s); m != nil {
		return civilDate(m[1], m[2], m[3])
	}
	if m := dmyRe.FindStringSubmatch(s); m != nil {
		return civilDate(m[3], m[2], m[1])
	}
	for _, layout := range genericLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return StartOfDay(t), true
		}
	}
	return time.Time{}, false
}

// civilDate 校验年月日组合（拒绝 2024-02-30、0000-00-00 等）
func civilDate(ys, ms, ds string) (time.Time, bool) {
	y, err1 := strconv.Atoi(ys)
	m, err2 := strconv.Atoi(ms)
	d, err3 := strconv.Atoi(ds)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if m < 1 || m > 12 || d < 1 || y < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// StartOfDay 取 t 在其自身时区下的日历日，返回该日的 UTC 零点
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today 当前日期（在 loc 时区下）
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return StartOfDay(now.In(loc))
}

// AddDays 按日历日加减
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// InRange 日粒度比较，from/to 为闭区间，零值表示不限
func InRange(d, from, to time.Time) bool {
	day := StartOfDay(d)
	if !from.IsZero() && day.Before(StartOfDay(from)) {
		return false
	}
	if !to.IsZero() && day.After(StartOfDay(to)) {
		return false
	}
	return true
}

// FormatDate 展示格式 DD/MM/YYYY
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// FormatISODate 查询参数格式 YYYY-MM-DD
func FormatISODate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
