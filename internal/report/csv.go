package report

import (
	"strings"
)

// csvSpecial 出现任一字符即需要加引号（包含 ';'，以兼容按分号切列的表格软件）
const csvSpecial = ",\";\n\r"

// escapeCSV 需要时加引号，内部引号加倍
func escapeCSV(s string) string {
	if !strings.ContainsAny(s, csvSpecial) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func writeCSVLine(b *strings.Builder, cells []string) {
	for i, c := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeCSV(c))
	}
}

// buildCSV 表头 + 每条记录一行，行之间以 "\n" 分隔
func (b *Builder) buildCSV(columns []Column, rows [][]string) []byte {
	var sb strings.Builder
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Label
	}
	writeCSVLine(&sb, header)
	for _, row := range rows {
		sb.WriteByte('\n')
		writeCSVLine(&sb, row)
	}
	return []byte(sb.String())
}
