package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/KaramelBytes/propdash-cli/internal/analysis"
	"github.com/xuri/excelize/v2"
)

type xlsxParser struct{}

func (xlsxParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

// Parse reads one sheet. The first non-empty row is the header.
func (xlsxParser) Parse(name string, content []byte, opt Options) (*analysis.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in workbook '%s'", name)
	}
	sheet := ""
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				opt.SheetName, name, strings.Join(sheets, ", "))
		}
	} else {
		idx := opt.SheetIndex
		if idx <= 0 {
			idx = 1
		}
		if idx > len(sheets) {
			return nil, fmt.Errorf("sheet index %d out of range; workbook '%s' has %d sheets", idx, name, len(sheets))
		}
		sheet = sheets[idx-1]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	for len(rows) > 0 && emptyRow(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return analysis.NewTable(name, nil, nil), nil
	}
	label := name
	if len(sheets) > 1 {
		label = fmt.Sprintf("%s (sheet: %s)", name, sheet)
	}
	return analysis.NewTable(label, rows[0], rows[1:]), nil
}

func emptyRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
