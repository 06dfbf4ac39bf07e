package analysis

import (
	"reflect"
	"testing"
)

func TestNewTable_FitsRowsAndStripsBOM(t *testing.T) {
	tb := NewTable("a.csv", []string{"\ufeff小区名称", " 总价 "}, [][]string{{"甲"}, {"乙", "300", "extra"}})
	if !reflect.DeepEqual(tb.Columns, []string{"小区名称", "总价"}) {
		t.Fatalf("columns not cleaned: %q", tb.Columns)
	}
	for i, r := range tb.Rows {
		if len(r) != 2 {
			t.Fatalf("row %d width %d, want 2", i, len(r))
		}
	}
	if tb.Rows[0][1] != "" || tb.Rows[1][1] != "300" {
		t.Fatalf("unexpected cells: %q", tb.Rows)
	}
}

func TestConcat_UnionsColumnsInFirstSeenOrder(t *testing.T) {
	a := NewTable("a", []string{"小区名称", "总价"}, [][]string{{"甲", "300"}})
	b := NewTable("b", []string{"总价", "面积"}, [][]string{{"400", "88"}})
	out := Concat(a, nil, b)
	if !reflect.DeepEqual(out.Columns, []string{"小区名称", "总价", "面积"}) {
		t.Fatalf("columns: %q", out.Columns)
	}
	want := [][]string{{"甲", "300", ""}, {"", "400", "88"}}
	if !reflect.DeepEqual(out.Rows, want) {
		t.Fatalf("rows: got %q want %q", out.Rows, want)
	}
	if out.Name != "a, b" {
		t.Fatalf("name: %q", out.Name)
	}
}

func TestClone_IsDeep(t *testing.T) {
	a := NewTable("a", []string{"x"}, [][]string{{"1"}})
	c := a.Clone()
	c.Columns[0] = "y"
	c.Rows[0][0] = "2"
	if a.Columns[0] != "x" || a.Rows[0][0] != "1" {
		t.Fatalf("clone shares storage with source")
	}
}
