package analysis

import "errors"

const (
	TierEconomy      = "economy"
	TierMid          = "mid"
	TierPremium      = "premium"
	TierUnclassified = "unclassified"
)

// PriceTiers is the display order of price tiers.
var PriceTiers = []string{TierEconomy, TierMid, TierPremium, TierUnclassified}

// Tier boundary methods reported on Segments.
const (
	MethodQuantile     = "quantile"
	MethodEqualThirds  = "equal-thirds"
	MethodSingleTier   = "single-tier"
	MethodUnclassified = "unclassified"
)

// fallbackEpsilon widens the last equal-thirds edge so the maximum stays inside.
const fallbackEpsilon = 0.1

// SegmentBucket aggregates the paired field over one band or tier.
type SegmentBucket struct {
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// SegmentedRecord annotates a record with its band and tier for this pass.
type SegmentedRecord struct {
	Record    *Record `json:"record"`
	AreaBand  string  `json:"area_band"`
	PriceTier string  `json:"price_tier"`
}

// Segments is the result of one segmentation pass.
type Segments struct {
	PriceField Field `json:"price_field"`
	AreaField  Field `json:"area_field"`
	// Method names how price tier edges were chosen.
	Method string `json:"method"`
	// Edges are the tier boundaries in use; empty for single-tier and unclassified.
	Edges         []float64         `json:"edges,omitempty"`
	AreaSegments  []SegmentBucket   `json:"area_segments"`
	PriceSegments []SegmentBucket   `json:"price_segments"`
	Rows          []SegmentedRecord `json:"-"`
	Note          string            `json:"note,omitempty"`
}

var errNonFinite = errors.New("non-finite value in segmentation input")

// Segment buckets every record with both fields into one area band and one
// price tier, then aggregates the paired field per bucket. Area bands
// aggregate prices and price tiers aggregate areas.
func Segment(ds *Dataset, priceField, areaField Field) *Segments {
	seg := &Segments{PriceField: priceField, AreaField: areaField}
	var recs []*Record
	var prices, areas []float64
	for _, r := range ds.Records {
		p, okp := r.Number(priceField)
		a, oka := r.Number(areaField)
		if okp && oka {
			recs = append(recs, r)
			prices = append(prices, p)
			areas = append(areas, a)
		}
	}
	if len(recs) == 0 {
		return seg
	}

	tiers, err := priceTiers(seg, prices)
	if err == nil && !allFinite(areas) {
		err = errNonFinite
	}
	if err != nil {
		seg.Method = MethodUnclassified
		seg.Edges = nil
		seg.Note = err.Error()
		for _, r := range recs {
			seg.Rows = append(seg.Rows, SegmentedRecord{Record: r, AreaBand: TierUnclassified, PriceTier: TierUnclassified})
		}
		seg.AreaSegments = aggregate([]string{TierUnclassified}, fill(len(recs), TierUnclassified), prices)
		seg.PriceSegments = aggregate([]string{TierUnclassified}, fill(len(recs), TierUnclassified), areas)
		return seg
	}

	bands := make([]string, len(recs))
	for i, r := range recs {
		bands[i] = classify(AreaBands, areas[i])
		seg.Rows = append(seg.Rows, SegmentedRecord{Record: r, AreaBand: bands[i], PriceTier: tiers[i]})
	}
	seg.AreaSegments = aggregate(bandLabels(AreaBands), bands, prices)
	seg.PriceSegments = aggregate(PriceTiers, tiers, areas)
	return seg
}

// priceTiers assigns a tier per price and records the method on seg.
func priceTiers(seg *Segments, prices []float64) ([]string, error) {
	if !allFinite(prices) {
		return nil, errNonFinite
	}
	sorted := sortedCopy(prices)
	q33 := quantile(sorted, 0.33)
	q67 := quantile(sorted, 0.67)
	edges := []float64{0, q33, q67}
	seg.Method = MethodQuantile
	if q33 == q67 || q33 == 0 {
		lo, hi := sorted[0], sorted[len(sorted)-1]
		rng := hi - lo
		if rng == 0 {
			seg.Method = MethodSingleTier
			return fill(len(prices), TierMid), nil
		}
		seg.Method = MethodEqualThirds
		edges = []float64{lo, lo + rng/3, lo + 2*rng/3, hi + fallbackEpsilon}
	}
	seg.Edges = edges
	out := make([]string, len(prices))
	for i, p := range prices {
		switch {
		case p <= edges[1]:
			out[i] = TierEconomy
		case p <= edges[2]:
			out[i] = TierMid
		default:
			out[i] = TierPremium
		}
	}
	return out, nil
}

// aggregate groups values by label, emitting non-empty buckets in order.
// Non-finite values are counted but left out of the mean and median.
func aggregate(order, labels []string, values []float64) []SegmentBucket {
	groups := make(map[string][]float64)
	for i, l := range labels {
		groups[l] = append(groups[l], values[i])
	}
	var out []SegmentBucket
	for _, l := range order {
		vals := groups[l]
		if len(vals) == 0 {
			continue
		}
		b := SegmentBucket{Label: l, Count: len(vals)}
		if finite := finiteOnly(vals); len(finite) > 0 {
			b.Mean = round2(mean(finite))
			b.Median = round2(median(finite))
		}
		out = append(out, b)
	}
	return out
}

func fill(n int, s string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
