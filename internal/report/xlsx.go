package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"unicode/utf8"

	"cmc-padron/internal/record"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	DefaultTitle     = "Padrón de Médicos"
	defaultSheetName = "Padron"

	logoHeightPx   = 56
	titleRowHeight = 30
	logoRowHeight  = 44
	headerHeight   = 22

	minColWidth     = 8
	maxColWidth     = 28
	maxWideColWidth = 60
	widthSampleRows = 1000
)

// xlsxStyles 样式 ID；body 下标为 [斑马行][左对齐]
type xlsxStyles struct {
	title    int
	subtitle int
	stamp    int
	header   int
	body     [2][2]int
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "BFBFBF", Style: 1},
	{Type: "top", Color: "BFBFBF", Style: 1},
	{Type: "bottom", Color: "BFBFBF", Style: 1},
	{Type: "right", Color: "BFBFBF", Style: 1},
}

func newXLSXStyles(f *excelize.File) (*xlsxStyles, error) {
	var s xlsxStyles
	var err error

	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16, Color: "1F3864"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return nil, fmt.Errorf("failed to create title style: %w", err)
	}
	if s.subtitle, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 12, Color: "404040"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return nil, fmt.Errorf("failed to create subtitle style: %w", err)
	}
	if s.stamp, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Italic: true, Size: 9, Color: "7F7F7F"},
		Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
	}); err != nil {
		return nil, fmt.Errorf("failed to create timestamp style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#1F4E78"},
			Pattern: 1,
		},
		Border: thinBorder,
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	fills := [2]string{"#FFFFFF", "#EAF1FB"}
	aligns := [2]string{"center", "left"}
	for z, fill := range fills {
		for a, align := range aligns {
			id, err := f.NewStyle(&excelize.Style{
				Fill:      excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
				Border:    thinBorder,
				Alignment: &excelize.Alignment{Horizontal: align, Vertical: "center"},
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create body style: %w", err)
			}
			s.body[z][a] = id
		}
	}
	return &s, nil
}

// buildXLSX 页眉（logo、标题、副标题、生成时间）+ 表头 + 斑马纹数据行
// logo 无法解码时跳过并返回警告
func (b *Builder) buildXLSX(columns []Column, rows [][]string, opts Options) ([]byte, []string, error) {
	f := excelize.NewFile()
	// WriteTo 需要文件保持打开，因此不使用 defer Close

	sheet := opts.SheetName
	if sheet == "" {
		sheet = defaultSheetName
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := newXLSXStyles(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to convert column number: %w", err)
	}

	var warnings []string
	hasLogo := false
	if len(opts.Logo) > 0 {
		if err := addLogo(f, sheet, opts.Logo); err != nil {
			b.logger.Warn("Skipping report logo", zap.Error(err))
			warnings = append(warnings, fmt.Sprintf("logo omitido: %v", err))
		} else {
			hasLogo = true
		}
	}

	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	row := 1
	height := float64(titleRowHeight)
	if hasLogo {
		height = logoRowHeight
	}
	if err := writeBanner(f, sheet, lastCol, row, title, styles.title, height); err != nil {
		f.Close()
		return nil, nil, err
	}
	if opts.Subtitle != "" {
		row++
		if err := writeBanner(f, sheet, lastCol, row, opts.Subtitle, styles.subtitle, 20); err != nil {
			f.Close()
			return nil, nil, err
		}
	}
	row++
	stamp := "Generado el " + record.FormatDate(opts.GeneratedAt) + " " + opts.GeneratedAt.Format("15:04")
	if err := writeBanner(f, sheet, lastCol, row, stamp, styles.stamp, 16); err != nil {
		f.Close()
		return nil, nil, err
	}

	// 空一行后写表头
	headerRow := row + 2
	labels := make([]string, len(columns))
	for i, c := range columns {
		labels[i] = c.Label
	}
	headerCell := fmt.Sprintf("A%d", headerRow)
	if err := f.SetSheetRow(sheet, headerCell, &labels); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to write header row: %w", err)
	}
	if err := f.SetCellStyle(sheet, headerCell, fmt.Sprintf("%s%d", lastCol, headerRow), styles.header); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to set header style: %w", err)
	}
	if err := f.SetRowHeight(sheet, headerRow, headerHeight); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to set header height: %w", err)
	}

	for i := range rows {
		r := headerRow + 1 + i
		first := fmt.Sprintf("A%d", r)
		if err := f.SetSheetRow(sheet, first, &rows[i]); err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("failed to write row %d: %w", r, err)
		}
		zebra := i % 2
		if err := f.SetCellStyle(sheet, first, fmt.Sprintf("%s%d", lastCol, r), styles.body[zebra][0]); err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("failed to set row style: %w", err)
		}
		for col, c := range columns {
			if !c.Wide {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, r)
			if err != nil {
				f.Close()
				return nil, nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellStyle(sheet, cell, cell, styles.body[zebra][1]); err != nil {
				f.Close()
				return nil, nil, fmt.Errorf("failed to set cell style: %w", err)
			}
		}
	}

	for i, width := range columnWidths(columns, rows) {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	lastRow := headerRow + len(rows)
	if err := f.AutoFilter(sheet, fmt.Sprintf("A%d:%s%d", headerRow, lastCol, lastRow), nil); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to set auto filter: %w", err)
	}

	// 冻结表头
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), warnings, nil
}

// writeBanner 写入跨所有列合并的单行文本
func writeBanner(f *excelize.File, sheet, lastCol string, row int, text string, style int, height float64) error {
	first := fmt.Sprintf("A%d", row)
	last := fmt.Sprintf("%s%d", lastCol, row)
	if first != last {
		if err := f.MergeCell(sheet, first, last); err != nil {
			return fmt.Errorf("failed to merge %s:%s: %w", first, last, err)
		}
	}
	if err := f.SetCellValue(sheet, first, text); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", first, err)
	}
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return fmt.Errorf("failed to set style %s: %w", first, err)
	}
	if err := f.SetRowHeight(sheet, row, height); err != nil {
		return fmt.Errorf("failed to set row height %d: %w", row, err)
	}
	return nil
}

// addLogo 左上角插入 logo，按高度等比缩放
func addLogo(f *excelize.File, sheet string, data []byte) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode logo: %w", err)
	}
	ext := "." + format
	if format == "jpeg" {
		ext = ".jpg"
	}
	scale := 1.0
	if cfg.Height > logoHeightPx {
		scale = float64(logoHeightPx) / float64(cfg.Height)
	}
	if err := f.AddPictureFromBytes(sheet, "A1", &excelize.Picture{
		Extension: ext,
		File:      data,
		Format: &excelize.GraphicOptions{
			AltText:         "logo",
			OffsetX:         4,
			OffsetY:         4,
			ScaleX:          scale,
			ScaleY:          scale,
			LockAspectRatio: true,
			Positioning:     "oneCell",
		},
	}); err != nil {
		return fmt.Errorf("failed to add logo: %w", err)
	}
	return nil
}

// columnWidths 依据表头和前若干行内容的最大字符数估算列宽
func columnWidths(columns []Column, rows [][]string) []float64 {
	widths := make([]float64, len(columns))
	for i, c := range columns {
		longest := utf8.RuneCountInString(c.Label)
		for j, row := range rows {
			if j >= widthSampleRows {
				break
			}
			if n := utf8.RuneCountInString(row[i]); n > longest {
				longest = n
			}
		}
		limit := maxColWidth
		if c.Wide {
			limit = maxWideColWidth
		}
		w := longest + 2
		if w < minColWidth {
			w = minColWidth
		}
		if w > limit {
			w = limit
		}
		widths[i] = float64(w)
	}
	return widths
}
