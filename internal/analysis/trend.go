package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// MarketHeat is the latest-month market state derived from volume and price changes.
type MarketHeat string

const (
	HeatHot       MarketHeat = "hot"
	HeatCold      MarketHeat = "cold"
	HeatStable    MarketHeat = "stable"
	HeatAdjusting MarketHeat = "adjusting"
)

// PeriodStats aggregates transactions dated within one month or quarter.
// Means over fields without values are 0.
type PeriodStats struct {
	Period           string    `json:"period"`
	Start            time.Time `json:"start"`
	Volume           int       `json:"volume"`
	MeanTotalPrice   float64   `json:"mean_total_price"`
	MedianTotalPrice float64   `json:"median_total_price"`
	MeanUnitPrice    float64   `json:"mean_unit_price"`
	MedianUnitPrice  float64   `json:"median_unit_price"`
	MeanArea         float64   `json:"mean_area"`
	MeanDaysOnMarket float64   `json:"mean_days_on_market"`
	// Changes against the preceding period present in the data, in percent.
	VolumeChange *float64 `json:"volume_change,omitempty"`
	PriceChange  *float64 `json:"price_change,omitempty"`
}

// TrendReport is the time-series view of a transaction dataset.
type TrendReport struct {
	Monthly   []PeriodStats `json:"monthly"`
	Quarterly []PeriodStats `json:"quarterly"`
	// Heat compares the last two months; empty with fewer than two months
	// or when either month has no unit price.
	Heat         MarketHeat `json:"heat,omitempty"`
	VolumeChange float64    `json:"volume_change"`
	PriceChange  float64    `json:"price_change"`
	CycleChange  *float64   `json:"cycle_change,omitempty"`
}

// Trends groups dated records by month and quarter. It returns nil when no
// record carries a deal date.
func Trends(ds *Dataset) *TrendReport {
	if !ds.Fields.Has(FieldDealDate) {
		return nil
	}
	monthly := groupPeriods(ds, func(t time.Time) (string, time.Time) {
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start.Format("2006-01"), start
	})
	if len(monthly) == 0 {
		return nil
	}
	quarterly := groupPeriods(ds, func(t time.Time) (string, time.Time) {
		q := (int(t.Month())-1)/3 + 1
		start := time.Date(t.Year(), time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return fmt.Sprintf("%dQ%d", t.Year(), q), start
	})
	rep := &TrendReport{Monthly: monthly, Quarterly: quarterly}
	if n := len(monthly); n >= 2 {
		last, prev := monthly[n-1], monthly[n-2]
		if last.VolumeChange != nil && last.PriceChange != nil {
			rep.VolumeChange = *last.VolumeChange
			rep.PriceChange = *last.PriceChange
			rep.Heat = Heat(rep.VolumeChange, rep.PriceChange)
		}
		rep.CycleChange = pctChange(prev.MeanDaysOnMarket, last.MeanDaysOnMarket)
	}
	return rep
}

// Heat classifies a month-over-month volume and price change, both in percent.
func Heat(volumeChange, priceChange float64) MarketHeat {
	switch {
	case volumeChange > 10 && priceChange > 0:
		return HeatHot
	case volumeChange < -10 && priceChange < 0:
		return HeatCold
	case math.Abs(volumeChange) <= 10 && math.Abs(priceChange) <= 5:
		return HeatStable
	default:
		return HeatAdjusting
	}
}

func groupPeriods(ds *Dataset, key func(time.Time) (string, time.Time)) []PeriodStats {
	type bucket struct {
		start time.Time
		recs  []*Record
	}
	buckets := map[string]*bucket{}
	for _, r := range ds.Records {
		if r.DealDate == nil {
			continue
		}
		k, start := key(*r.DealDate)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{start: start}
			buckets[k] = b
		}
		b.recs = append(b.recs, r)
	}
	out := make([]PeriodStats, 0, len(buckets))
	for k, b := range buckets {
		sub := ds.withRecords(b.recs)
		total := sub.numbers(FieldTotalPrice)
		unit := sub.numbers(FieldUnitPrice)
		out = append(out, PeriodStats{
			Period:           k,
			Start:            b.start,
			Volume:           len(b.recs),
			MeanTotalPrice:   round2(mean(total)),
			MedianTotalPrice: round2(median(total)),
			MeanUnitPrice:    round2(mean(unit)),
			MedianUnitPrice:  round2(median(unit)),
			MeanArea:         round2(mean(sub.numbers(FieldArea))),
			MeanDaysOnMarket: round2(mean(sub.numbers(FieldDaysOnMarket))),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	for i := 1; i < len(out); i++ {
		out[i].VolumeChange = pctChange(float64(out[i-1].Volume), float64(out[i].Volume))
		out[i].PriceChange = pctChange(out[i-1].MeanUnitPrice, out[i].MeanUnitPrice)
	}
	return out
}

func pctChange(prev, cur float64) *float64 {
	if prev == 0 || cur == 0 {
		return nil
	}
	v := (cur - prev) / prev * 100
	return &v
}

// BandCount is the size of one classification band.
type BandCount struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// DaysDistribution counts records per days-on-market band.
func DaysDistribution(ds *Dataset) []BandCount {
	return countBands(DaysBands, ds.numbers(FieldDaysOnMarket))
}

func countBands(bands []Band, vals []float64) []BandCount {
	if len(vals) == 0 {
		return nil
	}
	counts := map[string]int{}
	for _, v := range vals {
		counts[classify(bands, v)]++
	}
	var out []BandCount
	for _, b := range bands {
		if n := counts[b.Label]; n > 0 {
			out = append(out, BandCount{Label: b.Label, Count: n, Share: float64(n) / float64(len(vals)) * 100})
		}
	}
	return out
}

// DiscountSummary describes listing-to-deal discounts in percent.
type DiscountSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Discounts summarizes (listing - total) / listing * 100, or nil without data.
func Discounts(ds *Dataset) *DiscountSummary {
	rates := discountRates(ds)
	if len(rates) == 0 {
		return nil
	}
	s := sortedCopy(rates)
	return &DiscountSummary{Count: len(s), Mean: mean(s), Median: quantile(s, 0.5), Min: s[0], Max: s[len(s)-1]}
}

// AgeBandStats is the unit price profile of one building-age band.
type AgeBandStats struct {
	Label         string  `json:"label"`
	Count         int     `json:"count"`
	MeanUnitPrice float64 `json:"mean_unit_price"`
}

// AgeProfile groups records with a build year and unit price by age band.
func AgeProfile(ds *Dataset, currentYear int) []AgeBandStats {
	groups := map[string][]float64{}
	for _, r := range ds.Records {
		p, ok := r.Number(FieldUnitPrice)
		if !ok {
			continue
		}
		if _, ok := r.Number(FieldBuildYear); !ok {
			continue
		}
		l := AgeBand(r, currentYear)
		groups[l] = append(groups[l], p)
	}
	var out []AgeBandStats
	for _, b := range AgeBands {
		if vals := groups[b.Label]; len(vals) > 0 {
			out = append(out, AgeBandStats{Label: b.Label, Count: len(vals), MeanUnitPrice: round2(mean(vals))})
		}
	}
	return out
}

// GroupStat summarizes a numeric field within one text-field group.
type GroupStat struct {
	Group  string  `json:"group"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// GroupBy summarizes value per distinct value of by, largest groups first.
func GroupBy(ds *Dataset, by, value Field) []GroupStat {
	groups := map[string][]float64{}
	for _, r := range ds.Records {
		g, ok := r.Text(by)
		if !ok {
			continue
		}
		if v, ok := r.Number(value); ok {
			groups[g] = append(groups[g], v)
		}
	}
	out := make([]GroupStat, 0, len(groups))
	for g, vals := range groups {
		out = append(out, GroupStat{Group: g, Count: len(vals), Mean: round2(mean(vals)), Median: round2(median(vals))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Group < out[j].Group
		}
		return out[i].Count > out[j].Count
	})
	return out
}

// LinearFit is an ordinary least squares line y = Slope*x + Intercept.
type LinearFit struct {
	N         int     `json:"n"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// Fit regresses y on x over records carrying both. It returns nil with
// fewer than two points or no spread in x.
func Fit(ds *Dataset, x, y Field) *LinearFit {
	var xs, ys []float64
	for _, r := range ds.Records {
		xv, okx := r.Number(x)
		yv, oky := r.Number(y)
		if okx && oky {
			xs = append(xs, xv)
			ys = append(ys, yv)
		}
	}
	if len(xs) < 2 {
		return nil
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx float64
	for i := range xs {
		sxy += (xs[i] - mx) * (ys[i] - my)
		sxx += (xs[i] - mx) * (xs[i] - mx)
	}
	if sxx == 0 {
		return nil
	}
	slope := sxy / sxx
	return &LinearFit{N: len(xs), Slope: slope, Intercept: my - slope*mx}
}
