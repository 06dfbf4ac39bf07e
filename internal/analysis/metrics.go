package analysis

import (
	"fmt"
	"strings"
)

// Metric is one overview statistic together with the fields it needs.
type Metric struct {
	Key      string
	Label    string
	Unit     string
	Requires []Field
	// Domain restricts the metric to one domain; empty means any.
	Domain  Domain
	compute func(ds *Dataset) (float64, bool)
}

// MetricResult is the outcome of one metric. Metrics whose fields are
// absent are returned with Applicable false instead of being dropped.
type MetricResult struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Unit       string  `json:"unit,omitempty"`
	Applicable bool    `json:"applicable"`
	Value      float64 `json:"value,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

func sumOf(f Field) func(*Dataset) (float64, bool) {
	return func(ds *Dataset) (float64, bool) {
		vals := ds.numbers(f)
		return sum(vals), len(vals) > 0
	}
}

func meanOf(f Field) func(*Dataset) (float64, bool) {
	return func(ds *Dataset) (float64, bool) {
		vals := ds.numbers(f)
		return mean(vals), len(vals) > 0
	}
}

func medianOf(f Field) func(*Dataset) (float64, bool) {
	return func(ds *Dataset) (float64, bool) {
		vals := ds.numbers(f)
		return median(vals), len(vals) > 0
	}
}

// Metrics is the overview pipeline in display order.
var Metrics = []Metric{
	{Key: "records", Label: "Records", compute: func(ds *Dataset) (float64, bool) { return float64(ds.Len()), true }},
	{Key: "total_market_value", Label: "Total market value", Unit: "万", Requires: []Field{FieldTotalPrice}, compute: sumOf(FieldTotalPrice)},
	{Key: "total_area", Label: "Total area", Unit: "㎡", Requires: []Field{FieldArea}, compute: sumOf(FieldArea)},
	{Key: "mean_total_price", Label: "Mean total price", Unit: "万", Requires: []Field{FieldTotalPrice}, compute: meanOf(FieldTotalPrice)},
	{Key: "median_total_price", Label: "Median total price", Unit: "万", Requires: []Field{FieldTotalPrice}, compute: medianOf(FieldTotalPrice)},
	{Key: "mean_unit_price", Label: "Mean unit price", Unit: "元/㎡", Requires: []Field{FieldUnitPrice, FieldArea}, compute: func(ds *Dataset) (float64, bool) {
		s := PriceStats(ds, FieldUnitPrice, FieldArea)
		if s == nil {
			return 0, false
		}
		return s.Mean, true
	}},
	{Key: "median_unit_price", Label: "Median unit price", Unit: "元/㎡", Requires: []Field{FieldUnitPrice, FieldArea}, compute: func(ds *Dataset) (float64, bool) {
		s := PriceStats(ds, FieldUnitPrice, FieldArea)
		if s == nil {
			return 0, false
		}
		return s.Median, true
	}},
	{Key: "mean_area", Label: "Mean area", Unit: "㎡", Requires: []Field{FieldArea}, compute: meanOf(FieldArea)},
	{Key: "median_area", Label: "Median area", Unit: "㎡", Requires: []Field{FieldArea}, compute: medianOf(FieldArea)},
	{Key: "mean_days_on_market", Label: "Mean days on market", Unit: "days", Requires: []Field{FieldDaysOnMarket}, Domain: DomainTransaction, compute: meanOf(FieldDaysOnMarket)},
	{Key: "median_days_on_market", Label: "Median days on market", Unit: "days", Requires: []Field{FieldDaysOnMarket}, Domain: DomainTransaction, compute: medianOf(FieldDaysOnMarket)},
	{Key: "mean_attention", Label: "Mean attention", Unit: "people", Requires: []Field{FieldAttention}, compute: meanOf(FieldAttention)},
	{Key: "price_dispersion", Label: "Price dispersion (CV)", Unit: "%", Requires: []Field{FieldUnitPrice, FieldArea}, compute: func(ds *Dataset) (float64, bool) {
		s := PriceStats(ds, FieldUnitPrice, FieldArea)
		if s == nil {
			return 0, false
		}
		return s.CV(), true
	}},
	{Key: "deal_date_span", Label: "Deal date span", Unit: "days", Requires: []Field{FieldDealDate}, Domain: DomainTransaction, compute: dealSpan},
	{Key: "mean_discount_rate", Label: "Mean discount rate", Unit: "%", Requires: []Field{FieldListingPrice, FieldTotalPrice}, compute: func(ds *Dataset) (float64, bool) {
		rates := discountRates(ds)
		return mean(rates), len(rates) > 0
	}},
	{Key: "fast_deal_share", Label: "Deals within 30 days", Unit: "%", Requires: []Field{FieldDaysOnMarket}, Domain: DomainTransaction, compute: func(ds *Dataset) (float64, bool) {
		days := ds.numbers(FieldDaysOnMarket)
		if len(days) == 0 {
			return 0, false
		}
		return shareAtMost(days, 30), true
	}},
}

// Overview runs every metric that the dataset can support.
func Overview(ds *Dataset) []MetricResult {
	out := make([]MetricResult, 0, len(Metrics))
	for _, m := range Metrics {
		out = append(out, m.Run(ds))
	}
	return out
}

// Run evaluates the metric after checking its capability requirements.
func (m Metric) Run(ds *Dataset) MetricResult {
	res := MetricResult{Key: m.Key, Label: m.Label, Unit: m.Unit}
	if m.Domain != "" && ds.Domain != m.Domain {
		res.Reason = fmt.Sprintf("only for %s data", m.Domain)
		return res
	}
	var missing []string
	for _, f := range m.Requires {
		if !ds.Fields.Has(f) {
			missing = append(missing, f.Header())
		}
	}
	if len(missing) > 0 {
		res.Reason = "missing column " + strings.Join(missing, ", ")
		return res
	}
	v, ok := m.compute(ds)
	if !ok {
		res.Reason = "no valid values"
		return res
	}
	res.Applicable = true
	res.Value = v
	return res
}

// Lookup finds a metric result by key.
func Lookup(results []MetricResult, key string) (MetricResult, bool) {
	for _, r := range results {
		if r.Key == key {
			return r, true
		}
	}
	return MetricResult{}, false
}

func dealSpan(ds *Dataset) (float64, bool) {
	var first, last *Record
	for _, r := range ds.Records {
		if r.DealDate == nil {
			continue
		}
		if first == nil || r.DealDate.Before(*first.DealDate) {
			first = r
		}
		if last == nil || r.DealDate.After(*last.DealDate) {
			last = r
		}
	}
	if first == nil {
		return 0, false
	}
	return float64(int(last.DealDate.Sub(*first.DealDate).Hours() / 24)), true
}

// discountRates lists (listing - total) / listing * 100 per record with both prices.
func discountRates(ds *Dataset) []float64 {
	var out []float64
	for _, r := range ds.Records {
		l, okl := r.Number(FieldListingPrice)
		t, okt := r.Number(FieldTotalPrice)
		if okl && okt && l > 0 {
			out = append(out, (l-t)/l*100)
		}
	}
	return out
}

func shareAtMost(vals []float64, limit float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	n := 0
	for _, v := range vals {
		if v <= limit {
			n++
		}
	}
	return float64(n) / float64(len(vals)) * 100
}
