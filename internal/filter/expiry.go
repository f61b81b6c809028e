package filter

import (
	"time"

	"cmc-padron/internal/record"
)

// Credential 带到期日的证照种类
type Credential int

const (
	CredentialMalapraxis Credential = iota
	CredentialAnssal
	CredentialCobertura
)

// Credentials 全部证照（求值顺序）
var Credentials = []Credential{CredentialMalapraxis, CredentialAnssal, CredentialCobertura}

// ExpiryField 证照到期日对应的逻辑字段
func (c Credential) ExpiryField() string {
	switch c {
	case CredentialMalapraxis:
		return record.FieldMalapraxisVenc
	case CredentialAnssal:
		return record.FieldAnssalVenc
	case CredentialCobertura:
		return record.FieldCoberturaVenc
	}
	return ""
}

func (c Credential) String() string {
	switch c {
	case CredentialMalapraxis:
		return "malapraxis"
	case CredentialAnssal:
		return "anssal"
	case CredentialCobertura:
		return "cobertura"
	}
	return "unknown"
}

// Window 日期窗口（闭区间，零值表示不限）
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(d time.Time) bool {
	return record.InRange(d, w.From, w.To)
}

func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// CredentialFlags 单个证照的两个复选框
type CredentialFlags struct {
	Expired      bool
	ExpiringSoon bool
}

// ExpiryLookup 返回记录中某证照的到期日；ok=false 表示缺失或无法解析
type ExpiryLookup func(c Credential) (time.Time, bool)

// ExpiryMode 到期筛选的求值策略，只有以下三种实现：
// CheckboxMode、WindowMode、InactiveMode
type ExpiryMode interface {
	Matches(expiry ExpiryLookup) bool
	expiryMode()
}

// InactiveMode 未配置复选框也未配置窗口：恒为真
type InactiveMode struct{}

func (InactiveMode) Matches(ExpiryLookup) bool { return true }
func (InactiveMode) expiryMode()               {}

// CheckboxMode 至少一个复选框被选中
type CheckboxMode struct {
	Today    time.Time
	Flags    map[Credential]CredentialFlags
	Explicit Window // 显式日期范围，同时约束"已过期"
	Soon     Window // "即将到期"的有效窗口
}

// Matches 任一证照满足其复选框即匹配
func (m CheckboxMode) Matches(expiry ExpiryLookup) bool {
	for _, c := range Credentials {
		flags := m.Flags[c]
		if !flags.Expired && !flags.ExpiringSoon {
			continue
		}
		d, ok := expiry(c)
		if !ok {
			continue
		}
		if flags.Expired && d.Before(m.Today) && (m.Explicit.IsZero() || m.Explicit.Contains(d)) {
			return true
		}
		if flags.ExpiringSoon && !d.Before(m.Today) && m.Soon.Contains(d) {
			return true
		}
	}
	return false
}

func (CheckboxMode) expiryMode() {}

// WindowMode 无复选框但给了日期范围或天数：任一到期日落在窗口内即匹配（不区分过去或将来）
type WindowMode struct {
	Window Window
}

func (m WindowMode) Matches(expiry ExpiryLookup) bool {
	for _, c := range Credentials {
		if d, ok := expiry(c); ok && m.Window.Contains(d) {
			return true
		}
	}
	return false
}

func (WindowMode) expiryMode() {}

// ResolveExpiryMode 根据输入确定求值策略：有复选框时总是 CheckboxMode
// 显式范围优先于天数；无法解析的边界被忽略
func ResolveExpiryMode(f ExpiryFilter, today time.Time) ExpiryMode {
	today = record.StartOfDay(today)

	var explicit Window
	if d, ok := record.ParseDate(f.Desde); ok {
		explicit.From = d
	}
	if d, ok := record.ParseDate(f.Hasta); ok {
		explicit.To = d
	}

	var days Window
	if f.Dias > 0 {
		days = Window{From: today, To: record.AddDays(today, f.Dias)}
	}

	if f.AnyFlag() {
		soon := Window{From: today}
		switch {
		case !explicit.IsZero():
			soon = explicit
		case !days.IsZero():
			soon = days
		}
		return CheckboxMode{
			Today: today,
			Flags: map[Credential]CredentialFlags{
				CredentialMalapraxis: {Expired: f.MalapraxisVencida, ExpiringSoon: f.MalapraxisPorVencer},
				CredentialAnssal:     {Expired: f.AnssalVencida, ExpiringSoon: f.AnssalPorVencer},
				CredentialCobertura:  {Expired: f.CoberturaVencida, ExpiringSoon: f.CoberturaPorVencer},
			},
			Explicit: explicit,
			Soon:     soon,
		}
	}

	switch {
	case !explicit.IsZero():
		return WindowMode{Window: explicit}
	case !days.IsZero():
		return WindowMode{Window: days}
	}
	return InactiveMode{}
}
