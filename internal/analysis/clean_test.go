package analysis

import (
	"reflect"
	"strings"
	"testing"
)

func TestClean_BlankRowsAndMissingRate(t *testing.T) {
	var rows [][]string
	bad := 0
	for i := 0; i < 100; i++ {
		if i%20 == 0 {
			rows = append(rows, []string{"", " ", "暂无数据"})
			continue
		}
		price := "300"
		if bad < 10 {
			price = "面议"
			bad++
		}
		rows = append(rows, []string{"小区A", "2室1厅", price})
	}
	tb := NewTable("", []string{"小区名称", "户型", "总价(万)"}, rows)
	ds, rep := Clean(tb, DomainForSale, CleanOptions{CurrentYear: 2024})

	if rep.OriginalRows != 100 || rep.CleanedRows != 95 || ds.Len() != 95 {
		t.Fatalf("rows: original %d cleaned %d records %d", rep.OriginalRows, rep.CleanedRows, ds.Len())
	}
	st, ok := rep.Stat(FieldTotalPrice)
	if !ok {
		t.Fatalf("no stats for total price")
	}
	if st.ValidBefore != 95 || st.Unparseable != 10 || st.ValidAfter != 85 || st.Missing != 10 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	approx(t, "missing rate", st.MissingRate, 10.53, 0.005)
	if len(rep.Issues) == 0 || !strings.Contains(rep.Issues[0], "removed 5 entirely empty rows") {
		t.Fatalf("issues: %q", rep.Issues)
	}
	for i, r := range ds.Records {
		if r.Row != i+1 {
			t.Fatalf("record %d has row %d", i, r.Row)
		}
	}
}

func TestClean_PlausibilityBounds(t *testing.T) {
	tb := NewTable("", []string{"总价(万)", "单价(元/平)", "面积(㎡)", "建成年代", "关注人数"}, [][]string{
		{"0", "500000", "1000", "1900", "0"},
		{"60000", "500001", "1000.5", "1899", "-1"},
		{"300万", "35,000元/平", "89.5㎡", "2025", "12人"},
	})
	ds, rep := Clean(tb, DomainForSale, CleanOptions{CurrentYear: 2024})

	r0, r1, r2 := ds.Records[0], ds.Records[1], ds.Records[2]
	if r0.TotalPrice != nil {
		t.Fatalf("total price 0 should be rejected")
	}
	if r0.UnitPrice == nil || *r0.UnitPrice != 500000 || r0.Area == nil || r0.BuildYear == nil || r0.Attention == nil {
		t.Fatalf("inclusive bounds rejected: %+v", r0)
	}
	if r1.TotalPrice != nil || r1.UnitPrice != nil || r1.Area != nil || r1.BuildYear != nil || r1.Attention != nil {
		t.Fatalf("out-of-range values kept: %+v", r1)
	}
	if r2.TotalPrice == nil || *r2.TotalPrice != 300 || *r2.UnitPrice != 35000 || *r2.Area != 89.5 || *r2.Attention != 12 {
		t.Fatalf("unit suffixes not stripped: %+v", r2)
	}
	if r2.BuildYear != nil {
		t.Fatalf("future build year kept")
	}
	st, _ := rep.Stat(FieldTotalPrice)
	if st.OutOfRange != 2 || st.ValidAfter != 1 {
		t.Fatalf("total price stats: %+v", st)
	}
	found := false
	for _, is := range rep.Issues {
		if strings.Contains(is, "总价(万): 2 values outside (0, 50000]") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing out-of-range issue: %q", rep.Issues)
	}
}

func TestClean_CompletenessAndMissingKeys(t *testing.T) {
	tb := NewTable("", []string{"小区名称", "总价(万)", "成交日期"}, [][]string{
		{"甲", "300", "2024-03-01"},
		{"", "310", "2024/03/05"},
		{"丙", "x", "soon"},
	})
	_, rep := Clean(tb, DomainTransaction, CleanOptions{CurrentYear: 2024})
	c, ok := rep.CompletenessOf(FieldCommunity)
	if !ok || c.Present != 2 {
		t.Fatalf("community completeness: %+v", c)
	}
	approx(t, "community percent", c.Percent, 66.67, 0.01)
	d, _ := rep.CompletenessOf(FieldDealDate)
	if d.Present != 2 || rep.UnparsedDates != 1 {
		t.Fatalf("deal date completeness %+v unparsed %d", d, rep.UnparsedDates)
	}
	want := []string{"户型", "面积(㎡)", "单价(元/平)"}
	if !reflect.DeepEqual(rep.MissingKeyFields, want) {
		t.Fatalf("missing key fields: got %q want %q", rep.MissingKeyFields, want)
	}
}

func TestClean_Deterministic(t *testing.T) {
	tb := NewTable("", []string{"小区名称", "总价(万)", "面积(㎡)"}, [][]string{
		{"甲", "300", "80"},
		{"甲", "300", "80"},
		{"乙", "1,200", "abc"},
		{"丙", "9999", "90"},
	})
	ds1, rep1 := Clean(tb, DomainForSale, CleanOptions{CurrentYear: 2024})
	ds2, rep2 := Clean(tb.Clone(), DomainForSale, CleanOptions{CurrentYear: 2024})
	if !reflect.DeepEqual(rep1, rep2) {
		t.Fatalf("reports differ:\n%+v\n%+v", rep1, rep2)
	}
	if !reflect.DeepEqual(ds1, ds2) {
		t.Fatalf("datasets differ")
	}
	if ds1.Records[0].ID == ds1.Records[1].ID {
		t.Fatalf("duplicate rows share an id")
	}
	if ds1.Find(ds1.Records[2].ID) != ds1.Records[2] {
		t.Fatalf("Find did not resolve id")
	}
}

func TestClean_IgnoresAbsentColumns(t *testing.T) {
	tb := NewTable("", []string{"小区名称"}, [][]string{{"甲"}})
	ds, rep := Clean(tb, DomainForSale, DefaultCleanOptions())
	if len(rep.Numeric) != 0 {
		t.Fatalf("numeric stats for absent columns: %+v", rep.Numeric)
	}
	if ds.Fields.Has(FieldTotalPrice) || !ds.Fields.Has(FieldCommunity) {
		t.Fatalf("field set: %v", ds.Fields.Fields())
	}
}

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1,234", 1234, true},
		{"1,234,567", 1234567, true},
		{"0,5", 0.5, true},
		{"1.234,5", 1234.5, true},
		{"1,234.5", 1234.5, true},
		{"１２３", 123, true},
		{"89.5㎡", 89.5, true},
		{"35000元/平", 35000, true},
		{"12.5%", 12.5, true},
		{"1 234", 1234, true},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"万", 0, false},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, ok := parseNumeric(c.in, NumberFormat{})
			if ok != c.ok || (ok && got != c.want) {
				t.Fatalf("parseNumeric(%q) = %v, %v; want %v, %v", c.in, got, ok, c.want, c.ok)
			}
		})
	}
	if v, ok := parseNumeric("1.234", NumberFormat{Decimal: ',', Thousands: '.'}); !ok || v != 1234 {
		t.Fatalf("pinned locale: %v %v", v, ok)
	}
}

func TestRobustOutliers(t *testing.T) {
	vals := []float64{10, 11, 9.5, 10.5, 9.8, 10.2, 8.8, 9.7, 50}
	if n := robustOutliers(vals, 3.5); n != 1 {
		t.Fatalf("expected 1 outlier, got %d", n)
	}
	if n := robustOutliers([]float64{5, 5, 5, 5}, 3.5); n != 0 {
		t.Fatalf("zero MAD should flag nothing, got %d", n)
	}
}
