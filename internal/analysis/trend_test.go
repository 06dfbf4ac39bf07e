package analysis

import (
	"strings"
	"testing"
	"time"
)

func deal(id string, day time.Time, unit, total, listing, days float64) *Record {
	d := day
	return &Record{
		ID: id, DealDate: &d, UnitPrice: fptr(unit), TotalPrice: fptr(total),
		ListingPrice: fptr(listing), DaysOnMarket: fptr(days), Area: fptr(total * 10000 / unit),
	}
}

func transactionFixture() *Dataset {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	return datasetOf(DomainTransaction,
		deal("j1", jan, 30000, 240, 260, 20),
		deal("j2", jan, 30000, 270, 280, 40),
		deal("f1", feb, 31000, 248, 260, 25),
		deal("f2", feb, 31000, 279, 300, 35),
		deal("f3", feb, 31000, 310, 320, 90),
		deal("m1", mar, 33000, 264, 280, 10),
		deal("m2", mar, 33000, 297, 300, 20),
		deal("m3", mar, 33000, 330, 340, 30),
		deal("m4", mar, 33000, 363, 380, 200),
	)
}

func TestTrends_MonthlyAndHeat(t *testing.T) {
	tr := Trends(transactionFixture())
	if tr == nil || len(tr.Monthly) != 3 {
		t.Fatalf("monthly: %+v", tr)
	}
	if tr.Monthly[0].Period != "2024-01" || tr.Monthly[2].Period != "2024-03" {
		t.Fatalf("periods: %s .. %s", tr.Monthly[0].Period, tr.Monthly[2].Period)
	}
	if tr.Monthly[0].VolumeChange != nil {
		t.Fatalf("first period should have no change")
	}
	approx(t, "feb volume change", *tr.Monthly[1].VolumeChange, 50, 1e-9)
	approx(t, "mar volume change", tr.VolumeChange, 100.0/3, 1e-9)
	approx(t, "mar price change", tr.PriceChange, 2000.0/31000*100, 1e-9)
	if tr.Heat != HeatHot {
		t.Fatalf("heat: %s", tr.Heat)
	}
	if len(tr.Quarterly) != 1 || tr.Quarterly[0].Period != "2024Q1" || tr.Quarterly[0].Volume != 9 {
		t.Fatalf("quarterly: %+v", tr.Quarterly)
	}
	if tr.CycleChange == nil {
		t.Fatalf("expected cycle change")
	}
}

func TestTrends_NilWithoutDates(t *testing.T) {
	ds := datasetOf(DomainTransaction, &Record{TotalPrice: fptr(100)})
	if Trends(ds) != nil {
		t.Fatalf("expected nil trends without a deal date column")
	}
}

func TestHeat(t *testing.T) {
	cases := []struct {
		vol, price float64
		want       MarketHeat
	}{
		{15, 2, HeatHot},
		{-15, -1, HeatCold},
		{5, 3, HeatStable},
		{10, -5, HeatStable},
		{20, -3, HeatAdjusting},
		{-5, 8, HeatAdjusting},
	}
	for _, c := range cases {
		if got := Heat(c.vol, c.price); got != c.want {
			t.Fatalf("Heat(%v, %v) = %s want %s", c.vol, c.price, got, c.want)
		}
	}
}

func TestDiscountsAndDays(t *testing.T) {
	ds := transactionFixture()
	d := Discounts(ds)
	if d == nil || d.Count != 9 {
		t.Fatalf("discounts: %+v", d)
	}
	if d.Min <= 0 || d.Max >= 100 || d.Mean < d.Min || d.Mean > d.Max {
		t.Fatalf("discount summary inconsistent: %+v", d)
	}
	bands := DaysDistribution(ds)
	if bands[0].Label != "fast (<=30d)" || bands[0].Count != 5 {
		t.Fatalf("days bands: %+v", bands)
	}
	if last := bands[len(bands)-1]; last.Label != "stale (>180d)" || last.Count != 1 {
		t.Fatalf("stale band: %+v", last)
	}
}

func TestGroupByAndFit(t *testing.T) {
	ds := datasetOf(DomainForSale,
		&Record{District: sptr("A"), UnitPrice: fptr(10), Area: fptr(50), TotalPrice: fptr(100)},
		&Record{District: sptr("B"), UnitPrice: fptr(20), Area: fptr(100), TotalPrice: fptr(200)},
		&Record{District: sptr("B"), UnitPrice: fptr(40), Area: fptr(150), TotalPrice: fptr(300)},
	)
	g := GroupBy(ds, FieldDistrict, FieldUnitPrice)
	if len(g) != 2 || g[0].Group != "B" || g[0].Count != 2 || g[0].Mean != 30 {
		t.Fatalf("groups: %+v", g)
	}
	fit := Fit(ds, FieldArea, FieldTotalPrice)
	if fit == nil || fit.N != 3 {
		t.Fatalf("fit: %+v", fit)
	}
	approx(t, "slope", fit.Slope, 2, 1e-9)
	approx(t, "intercept", fit.Intercept, 0, 1e-9)
}

func TestMetrics_Capabilities(t *testing.T) {
	sale := datasetOf(DomainForSale,
		&Record{TotalPrice: fptr(300), Area: fptr(80), UnitPrice: fptr(37500)},
		&Record{TotalPrice: fptr(500), Area: fptr(100), UnitPrice: fptr(50000)},
	)
	res := Overview(sale)
	if len(res) != len(Metrics) {
		t.Fatalf("every metric should report, got %d of %d", len(res), len(Metrics))
	}
	if m, _ := Lookup(res, "total_market_value"); !m.Applicable || m.Value != 800 {
		t.Fatalf("total market value: %+v", m)
	}
	if m, _ := Lookup(res, "mean_days_on_market"); m.Applicable || m.Reason != "only for transaction data" {
		t.Fatalf("days on market on for-sale data: %+v", m)
	}
	if m, _ := Lookup(res, "mean_attention"); m.Applicable || !strings.Contains(m.Reason, "关注人数") {
		t.Fatalf("attention without column: %+v", m)
	}

	sale.Fields = sale.Fields.With(FieldAttention)
	if m := Metrics[0].Run(sale); !m.Applicable || m.Value != 2 {
		t.Fatalf("records: %+v", m)
	}
	m, ok := Lookup(Overview(sale), "mean_attention")
	if !ok || m.Applicable || m.Reason != "no valid values" {
		t.Fatalf("attention column without values: %+v", m)
	}

	tx := Overview(transactionFixture())
	if m, _ := Lookup(tx, "fast_deal_share"); !m.Applicable {
		t.Fatalf("fast deal share: %+v", m)
	} else {
		approx(t, "fast share", m.Value, 500.0/9, 1e-9)
	}
	if m, _ := Lookup(tx, "deal_date_span"); m.Value != 60 {
		t.Fatalf("deal date span: %+v", m)
	}
}

func TestBuildDashboard_Markdown(t *testing.T) {
	full := transactionFixture()
	d := BuildDashboard(full, FilterSelection{TotalPrice: Between(0, 300)}, 2024)
	if d.TotalRows != 9 || d.FilteredRows != 6 {
		t.Fatalf("rows: %d/%d", d.FilteredRows, d.TotalRows)
	}
	if d.Trends == nil || d.Discounts == nil || len(d.DaysBands) == 0 {
		t.Fatalf("transaction sections missing: %+v", d)
	}
	if len(d.Insights.Recommendations) == 0 {
		t.Fatalf("expected recommendations")
	}
	md := d.Markdown()
	for _, want := range []string{"[DATASET SUMMARY]", "filter total price: 0 to 300", "[CORE METRICS]", "[MARKET SEGMENTS]", "[TRENDS]", "[INSIGHTS]"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}

	sale := BuildDashboard(datasetOf(DomainForSale, &Record{TotalPrice: fptr(300), Area: fptr(80)}), FilterSelection{}, 2024)
	if sale.Trends != nil || sale.Discounts != nil {
		t.Fatalf("for-sale dashboard carries transaction sections")
	}
}
