// Package export writes cleaned records to CSV, XLSX or SQLite.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/propdash-cli/internal/analysis"
)

// Format is an output file format.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("unsupported export format %q (use csv, xlsx or sqlite)", s)
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// column is one exported column: a canonical field or a derived label.
type column struct {
	key     string
	header  string
	field   analysis.Field
	numeric bool
	// derived is set for columns computed per record rather than stored.
	derived func(*analysis.Record) string
}

// Rows is a header plus data rows as consumed by the file writers.
type Rows interface {
	Headers() []string
	Len() int
	// Text renders row i as display strings.
	Text(i int) []string
	// Values renders row i as typed cells; nil leaves a cell empty.
	Values(i int) []any
}

// Sheet is the flattened record table shared by every writer.
type Sheet struct {
	cols []column
	recs []*analysis.Record
}

// NewSheet lays out the records of ds: id and row, every present field,
// then room class, floor class, area band and price tier.
func NewSheet(ds *analysis.Dataset) *Sheet {
	cols := []column{
		{key: "id", header: "id", derived: func(r *analysis.Record) string { return r.ID }},
		{key: "row", header: "row", numeric: true, derived: func(r *analysis.Record) string { return fmt.Sprint(r.Row) }},
	}
	for _, f := range ds.Fields.Fields() {
		cols = append(cols, column{key: f.Key(), header: f.Header(), field: f, numeric: f.Numeric()})
	}
	cols = append(cols,
		column{key: "room_class", header: "room_class", derived: analysis.RoomClass},
		column{key: "floor_class", header: "floor_class", derived: analysis.FloorClass},
	)
	if ds.Fields.HasAll(analysis.FieldTotalPrice, analysis.FieldArea) {
		seg := analysis.Segment(ds, analysis.FieldTotalPrice, analysis.FieldArea)
		band := map[*analysis.Record]string{}
		tier := map[*analysis.Record]string{}
		for _, s := range seg.Rows {
			band[s.Record] = s.AreaBand
			tier[s.Record] = s.PriceTier
		}
		cols = append(cols,
			column{key: "area_band", header: "area_band", derived: func(r *analysis.Record) string { return band[r] }},
			column{key: "price_tier", header: "price_tier", derived: func(r *analysis.Record) string { return tier[r] }},
		)
	}
	return &Sheet{cols: cols, recs: ds.Records}
}

// Headers returns display headers in column order.
func (s *Sheet) Headers() []string {
	out := make([]string, len(s.cols))
	for i, c := range s.cols {
		out[i] = c.header
	}
	return out
}

// Keys returns English column keys in column order.
func (s *Sheet) Keys() []string {
	out := make([]string, len(s.cols))
	for i, c := range s.cols {
		out[i] = c.key
	}
	return out
}

// Len is the number of data rows.
func (s *Sheet) Len() int { return len(s.recs) }

// Text renders row i as display strings.
func (s *Sheet) Text(i int) []string {
	r := s.recs[i]
	out := make([]string, len(s.cols))
	for j, c := range s.cols {
		if c.derived != nil {
			out[j] = c.derived(r)
			continue
		}
		out[j] = r.Value(c.field)
	}
	return out
}

// Values renders row i with numbers as float64 and missing cells as nil.
func (s *Sheet) Values(i int) []any {
	r := s.recs[i]
	out := make([]any, len(s.cols))
	for j, c := range s.cols {
		switch {
		case c.key == "row":
			out[j] = r.Row
		case c.derived != nil:
			out[j] = c.derived(r)
		case c.numeric:
			if v, ok := r.Number(c.field); ok {
				out[j] = v
			}
		default:
			if v := r.Value(c.field); v != "" {
				out[j] = v
			}
		}
	}
	return out
}

// Write exports ds and its quality report to path in the given format.
func Write(path string, format Format, ds *analysis.Dataset, q *analysis.QualityReport) error {
	sheet := NewSheet(ds)
	switch format {
	case FormatCSV:
		return WriteCSV(path, sheet)
	case FormatXLSX:
		return WriteXLSX(path, sheet, q)
	case FormatSQLite:
		return WriteSQLite(path, sheet, q)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// RawTable adapts an unparsed table to Rows. Cells stay text.
type RawTable struct{ *analysis.Table }

func (t RawTable) Headers() []string   { return t.Columns }
func (t RawTable) Len() int            { return len(t.Rows) }
func (t RawTable) Text(i int) []string { return t.Rows[i] }

func (t RawTable) Values(i int) []any {
	out := make([]any, len(t.Rows[i]))
	for j, v := range t.Rows[i] {
		if v != "" {
			out[j] = v
		}
	}
	return out
}

// WriteTable writes a raw table as CSV or XLSX, chosen by the path extension.
func WriteTable(path string, t *analysis.Table) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	switch format {
	case FormatCSV:
		return WriteCSV(path, RawTable{t})
	case FormatXLSX:
		return WriteXLSX(path, RawTable{t}, nil)
	}
	return fmt.Errorf("raw tables are written as csv or xlsx, not %s", format)
}
