package analysis

import (
	"reflect"
	"testing"
)

func TestNormalize_RenamesAliases(t *testing.T) {
	tb := NewTable("", []string{"小区", "总价", "单价", "建筑面积", "备注"}, nil)
	out, renames := Normalize(tb, DomainForSale)
	want := []string{"小区名称", "总价(万)", "单价(元/平)", "面积(㎡)", "备注"}
	if !reflect.DeepEqual(out.Columns, want) {
		t.Fatalf("columns: got %q want %q", out.Columns, want)
	}
	if len(renames) != 4 {
		t.Fatalf("expected 4 renames, got %+v", renames)
	}
	if tb.Columns[1] != "总价" {
		t.Fatalf("input table was modified")
	}
}

func TestNormalize_TransactionAliases(t *testing.T) {
	tb := NewTable("", []string{"成交价(万)", "挂牌价", "成交时间", "成交周期"}, nil)
	out, _ := Normalize(tb, DomainTransaction)
	want := []string{"总价(万)", "挂牌价(万)", "成交日期", "成交周期(天)"}
	if !reflect.DeepEqual(out.Columns, want) {
		t.Fatalf("columns: got %q want %q", out.Columns, want)
	}
}

func TestNormalize_NeverOverwritesCanonical(t *testing.T) {
	tb := NewTable("", []string{"总价(万)", "总价"}, [][]string{{"300", "999"}})
	out, renames := Normalize(tb, DomainForSale)
	if !reflect.DeepEqual(out.Columns, []string{"总价(万)", "总价"}) {
		t.Fatalf("canonical column overwritten: %q", out.Columns)
	}
	for _, r := range renames {
		if r.Field == FieldTotalPrice {
			t.Fatalf("unexpected rename %+v", r)
		}
	}
}

func TestNormalize_FirstAliasWins(t *testing.T) {
	tb := NewTable("", []string{"成交价", "成交总价(万)"}, nil)
	out, _ := Normalize(tb, DomainTransaction)
	if out.Columns[1] != "总价(万)" || out.Columns[0] != "成交价" {
		t.Fatalf("priority not respected: %q", out.Columns)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, d := range []Domain{DomainForSale, DomainTransaction} {
		tb := NewTable("", []string{"小区", "户型结构", "总价", "成交单价", "楼层信息", "关注"}, nil)
		once, _ := Normalize(tb, d)
		twice, renames := Normalize(once, d)
		if !reflect.DeepEqual(once.Columns, twice.Columns) {
			t.Fatalf("%s: second pass changed columns %q -> %q", d, once.Columns, twice.Columns)
		}
		if len(renames) != 0 {
			t.Fatalf("%s: second pass renamed %+v", d, renames)
		}
	}
}

func TestRules_WithExtra(t *testing.T) {
	r := RulesFor(DomainForSale).WithExtra(map[string][]string{
		"area":       {"使用面积", "面积(㎡)"},
		"no_such":    {"x"},
		"小区名称":       {"项目"},
		"total_price": {""},
	})
	aliases := r.Aliases(FieldArea)
	if aliases[len(aliases)-1] != "使用面积" {
		t.Fatalf("extra alias not appended last: %q", aliases)
	}
	if contains(aliases, "面积(㎡)") {
		t.Fatalf("canonical header accepted as alias")
	}
	out, _ := r.Apply(NewTable("", []string{"项目", "使用面积"}, nil))
	if !reflect.DeepEqual(out.Columns, []string{"小区名称", "面积(㎡)"}) {
		t.Fatalf("columns: %q", out.Columns)
	}
	if contains(RulesFor(DomainForSale).Aliases(FieldArea), "使用面积") {
		t.Fatalf("WithExtra mutated the base rules")
	}
}

func TestParseDomain(t *testing.T) {
	cases := map[string]Domain{"for-sale": DomainForSale, "在售": DomainForSale, "Deals": DomainTransaction, "成交": DomainTransaction}
	for in, want := range cases {
		got, err := ParseDomain(in)
		if err != nil || got != want {
			t.Fatalf("ParseDomain(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDomain("rental"); err == nil {
		t.Fatalf("expected error for unknown domain")
	}
}
