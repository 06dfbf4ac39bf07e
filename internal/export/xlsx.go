package export

import (
	"bytes"
	"fmt"

	"github.com/KaramelBytes/propdash-cli/internal/analysis"
	"github.com/KaramelBytes/propdash-cli/internal/utils"
	"github.com/xuri/excelize/v2"
)

const (
	recordsSheet = "Records"
	qualitySheet = "Quality"
)

// WriteXLSX writes the records sheet and, when q is set, a quality sheet.
func WriteXLSX(path string, s Rows, q *analysis.QualityReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	headers := s.Headers()
	if err := writeRow(f, recordsSheet, 1, toAny(headers)); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(recordsSheet, "A1", last, headerStyle)
	for i := 0; i < s.Len(); i++ {
		if err := writeRow(f, recordsSheet, i+2, s.Values(i)); err != nil {
			return err
		}
	}
	for i := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(recordsSheet, col, col, 15)
	}
	if err := f.SetPanes(recordsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if q != nil {
		if _, err := f.NewSheet(qualitySheet); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
		qh := []any{"column", "valid_before", "valid_after", "unparseable", "out_of_range", "missing", "missing_rate", "outliers"}
		if err := writeRow(f, qualitySheet, 1, qh); err != nil {
			return err
		}
		last, _ := excelize.CoordinatesToCellName(len(qh), 1)
		_ = f.SetCellStyle(qualitySheet, "A1", last, headerStyle)
		for i, st := range q.Numeric {
			row := []any{st.Column, st.ValidBefore, st.ValidAfter, st.Unparseable, st.OutOfRange, st.Missing, st.MissingRate, st.Outliers}
			if err := writeRow(f, qualitySheet, i+2, row); err != nil {
				return err
			}
		}
		next := len(q.Numeric) + 3
		for i, is := range q.Issues {
			cell, _ := excelize.CoordinatesToCellName(1, next+i)
			_ = f.SetCellValue(qualitySheet, cell, is)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to encode Excel file: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

func writeRow(f *excelize.File, sheet string, row int, vals []any) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
