package analysis

import (
	"fmt"
	"time"
)

// Insights are rule-based observations and recommendations for one pass.
type Insights struct {
	Observations    []string `json:"observations"`
	Recommendations []string `json:"recommendations"`
}

// Thresholds used by the insight rules.
const (
	dispersionHigh    = 30.0 // coefficient of variation, percent
	smallUnitArea     = 70.0
	smallShareHigh    = 60.0
	smallShareLow     = 30.0
	fastShareHigh     = 50.0
	slowCycleDays     = 90.0
	discountHigh      = 10.0
	discountLow       = 5.0
	volumeRiseFactor  = 1.2
	volumeFallFactor  = 0.8
	priceTrendPercent = 5.0
)

// BuildInsights derives observations from the filtered dataset. full is the
// unfiltered dataset the selection was applied to.
func BuildInsights(filtered, full *Dataset, sel FilterSelection) Insights {
	var in Insights
	obs := func(format string, args ...any) { in.Observations = append(in.Observations, fmt.Sprintf(format, args...)) }
	rec := func(format string, args ...any) { in.Recommendations = append(in.Recommendations, fmt.Sprintf(format, args...)) }

	if active := sel.Active(full); len(active) > 0 {
		obs("Results reflect %d active filter(s); conclusions apply to the selected segment only", len(active))
		if vals := sel.RoomClasses.Values(); !sel.RoomClasses.All() && len(vals) == 1 {
			obs("Focused on %s layouts", vals[0])
		}
		if vals := sel.FloorClasses.Values(); !sel.FloorClasses.All() && len(vals) == 1 {
			switch vals[0] {
			case FloorHigh:
				rec("High floors carry a premium; factor in elevator maintenance costs")
			case FloorLow:
				rec("Low floors offer better value for budget-constrained first-time buyers")
			}
		}
	}

	stats := PriceStats(filtered, FieldUnitPrice, FieldArea)
	if stats != nil {
		if stats.CV() > dispersionHigh {
			obs("Unit prices are widely dispersed (CV %.1f%%); location choice matters", stats.CV())
			if filtered.Domain == DomainForSale {
				rec("Prices vary widely; look for listings priced 20%% or more below the mean unit price")
			}
		} else {
			obs("Unit prices are concentrated (CV %.1f%%)", stats.CV())
		}
	}

	if areas := filtered.numbers(FieldArea); len(areas) > 0 {
		small := shareAtMost(areas, smallUnitArea)
		switch {
		case small > smallShareHigh:
			obs("Small units (<=70㎡) dominate at %.1f%%; entry-level and rental demand is strong", small)
		case small < smallShareLow:
			obs("Larger units make up %.1f%%; upgrade demand dominates", 100-small)
		}
		if filtered.Domain == DomainForSale {
			if small > smallShareHigh {
				rec("Small units dominate; rental investment near transit and business districts fits this supply")
			} else {
				rec("Larger units are common; prioritize schools and environment for upgrade buyers")
			}
		}
	}

	if filtered.Domain == DomainTransaction {
		transactionInsights(filtered, obs, rec)
	} else {
		rec("Favor listings with high attention and reasonable prices")
		rec("Prefer listings exempt from transfer taxes to reduce transaction costs")
	}
	return in
}

func transactionInsights(ds *Dataset, obs, rec func(string, ...any)) {
	if tr := Trends(ds); tr != nil && len(tr.Monthly) >= 3 {
		recent := tr.Monthly[len(tr.Monthly)-3:]
		first, last := recent[0], recent[len(recent)-1]
		switch {
		case float64(last.Volume) > float64(first.Volume)*volumeRiseFactor:
			obs("Volume has risen over the last three months")
			rec("Volume is rising; act early to avoid missing opportunities")
		case float64(last.Volume) < float64(first.Volume)*volumeFallFactor:
			obs("Volume has fallen over the last three months; the market is cautious")
			rec("Volume is falling; waiting may yield better negotiating room")
		}
		if first.MeanUnitPrice > 0 && last.MeanUnitPrice > 0 {
			trend := (last.MeanUnitPrice - first.MeanUnitPrice) / first.MeanUnitPrice * 100
			switch {
			case trend > priceTrendPercent:
				obs("Unit prices are rising (%.1f%% over three months)", trend)
			case trend < -priceTrendPercent:
				obs("Unit prices are falling (%.1f%% over three months)", trend)
			default:
				obs("Unit prices are stable over three months")
			}
		}
	}

	if days := ds.numbers(FieldDaysOnMarket); len(days) > 0 {
		fast := shareAtMost(days, 30)
		avg := mean(days)
		switch {
		case fast > fastShareHigh:
			obs("%.1f%% of deals closed within 30 days; a seller's market", fast)
		case avg > slowCycleDays:
			obs("Average time to close is %.0f days; buyers have room to negotiate", avg)
		default:
			obs("Time to close is moderate; supply and demand are balanced")
		}
		if avg > slowCycleDays {
			rec("Long closing cycles favor buyers; negotiate on price")
		} else {
			rec("Short closing cycles; price close to the market")
		}
	}

	if d := Discounts(ds); d != nil {
		switch {
		case d.Mean > discountHigh:
			obs("Average discount from listing price is %.1f%%; buyers hold bargaining power", d.Mean)
		case d.Mean < discountLow:
			obs("Average discount from listing price is only %.1f%%; sellers hold pricing power", d.Mean)
		}
		rec("Use the %.1f%% average discount to set price expectations", d.Mean)
	}
	rec("Watch areas with short closing cycles and low discounts")
	rec("Account for seasonal swings when timing a transaction")
}

// Dashboard bundles every aggregate view of one filtered pass.
type Dashboard struct {
	Domain       Domain           `json:"domain"`
	Sources      []string         `json:"sources,omitempty"`
	TotalRows    int              `json:"total_rows"`
	FilteredRows int              `json:"filtered_rows"`
	FilterRatio  float64          `json:"filter_ratio"`
	Filters      []string         `json:"filters,omitempty"`
	Renames      []Rename         `json:"renames,omitempty"`
	Quality      *QualityReport   `json:"quality,omitempty"`
	Metrics      []MetricResult   `json:"metrics"`
	PriceStats   *Stats           `json:"price_stats,omitempty"`
	Segments     *Segments        `json:"segments,omitempty"`
	Districts    []GroupStat      `json:"districts,omitempty"`
	AreaPrice    *LinearFit       `json:"area_price_fit,omitempty"`
	AgeProfile   []AgeBandStats   `json:"age_profile,omitempty"`
	Trends       *TrendReport     `json:"trends,omitempty"`
	DaysBands    []BandCount      `json:"days_bands,omitempty"`
	Discounts    *DiscountSummary `json:"discounts,omitempty"`
	Insights     Insights         `json:"insights"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// BuildDashboard runs one full recomputation over full filtered by sel.
func BuildDashboard(full *Dataset, sel FilterSelection, currentYear int) *Dashboard {
	if currentYear == 0 {
		currentYear = time.Now().Year()
	}
	filtered := Apply(full, sel)
	d := &Dashboard{
		Domain:       full.Domain,
		TotalRows:    full.Len(),
		FilteredRows: filtered.Len(),
		FilterRatio:  FilterRatio(filtered, full),
		Filters:      sel.Active(full),
		Metrics:      Overview(filtered),
		PriceStats:   PriceStats(filtered, FieldUnitPrice, FieldArea),
		Segments:     Segment(filtered, FieldTotalPrice, FieldArea),
		Districts:    GroupBy(filtered, FieldDistrict, FieldUnitPrice),
		AreaPrice:    Fit(filtered, FieldArea, FieldTotalPrice),
		AgeProfile:   AgeProfile(filtered, currentYear),
		Insights:     BuildInsights(filtered, full, sel),
		GeneratedAt:  time.Now(),
	}
	if full.Domain == DomainTransaction {
		d.Trends = Trends(filtered)
		d.DaysBands = DaysDistribution(filtered)
		d.Discounts = Discounts(filtered)
	}
	return d
}
