package analysis

// Stats describes the distribution of one price field. Std is the sample
// standard deviation (n-1 denominator) and is 0 for a single value.
type Stats struct {
	Field  Field   `json:"field"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// CV is the coefficient of variation in percent, or 0 when the mean is 0.
func (s *Stats) CV() float64 {
	if s == nil || s.Mean == 0 {
		return 0
	}
	return s.Std / s.Mean * 100
}

// PriceStats summarizes priceField over records where both priceField and
// areaField are present. It returns nil when no record qualifies.
func PriceStats(ds *Dataset, priceField, areaField Field) *Stats {
	vals := ds.numbers(priceField, areaField)
	if len(vals) == 0 {
		return nil
	}
	return describe(priceField, vals)
}

func describe(f Field, vals []float64) *Stats {
	sorted := sortedCopy(vals)
	return &Stats{
		Field:  f,
		Count:  len(vals),
		Mean:   mean(vals),
		Median: quantile(sorted, 0.5),
		Std:    sampleStd(vals),
		Q25:    quantile(sorted, 0.25),
		Q75:    quantile(sorted, 0.75),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}
