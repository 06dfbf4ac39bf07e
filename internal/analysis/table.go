package analysis

import "strings"

// Table is a raw, untyped grid as produced by a file loader. Every row has
// exactly len(Columns) cells.
type Table struct {
	Name    string     `json:"name,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTable builds a table, padding or truncating rows to the header width.
func NewTable(name string, columns []string, rows [][]string) *Table {
	t := &Table{Name: name, Columns: make([]string, len(columns))}
	for i, c := range columns {
		t.Columns[i] = cleanHeader(c)
	}
	t.Rows = make([][]string, 0, len(rows))
	for _, r := range rows {
		t.Rows = append(t.Rows, fitRow(r, len(columns)))
	}
	return t
}

// Index returns the position of the first column named name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether a column with that exact name exists.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Clone deep-copies the header and row slices.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, Columns: append([]string(nil), t.Columns...)}
	out.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}

// Concat stacks tables. The result carries the union of columns in
// first-seen order; cells a source table lacks are left empty.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	pos := map[string]int{}
	var names []string
	for _, t := range tables {
		if t == nil {
			continue
		}
		if t.Name != "" {
			names = append(names, t.Name)
		}
		for _, c := range t.Columns {
			if _, ok := pos[c]; !ok {
				pos[c] = len(out.Columns)
				out.Columns = append(out.Columns, c)
			}
		}
	}
	out.Name = strings.Join(names, ", ")
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, r := range t.Rows {
			row := make([]string, len(out.Columns))
			for i, c := range t.Columns {
				if i < len(r) {
					row[pos[c]] = r[i]
				}
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

func cleanHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.TrimSpace(s)
}

func fitRow(r []string, n int) []string {
	row := make([]string, n)
	copy(row, r)
	return row
}
